package groups

import (
	"context"
	"errors"
	"fmt"

	"github.com/manzolo/docker-compose-playground-sub001/lib/catalog"
	"github.com/manzolo/docker-compose-playground-sub001/lib/lifecycle"
	"github.com/manzolo/docker-compose-playground-sub001/lib/logger"
	"github.com/manzolo/docker-compose-playground-sub001/lib/operations"
	"github.com/manzolo/docker-compose-playground-sub001/lib/runtime"
)

// Coordinator fans lifecycle calls out across the members of a named group
// and aggregates per-member outcomes into one operation record. Members are
// processed sequentially; the engine serializes daemon work anyway.
type Coordinator interface {
	// StartGroup starts every member, classifying each outcome as started,
	// already_running, or failed. Member failures never abort the loop; the
	// operation completes with the failures in its error list.
	StartGroup(ctx context.Context, cat *catalog.Catalog, group string, opID string)

	// StopGroup stops every member, classifying each outcome as stopped,
	// not_running, or failed.
	StopGroup(ctx context.Context, cat *catalog.Catalog, group string, opID string)

	// StopAll behaves as StopGroup over the implicit group of all catalog
	// images.
	StopAll(ctx context.Context, cat *catalog.Catalog, opID string)

	// RestartAll restarts every catalog image.
	RestartAll(ctx context.Context, cat *catalog.Catalog, opID string)

	// Cleanup force-removes every managed container, including orphans whose
	// image has since left the catalog. Hooks do not run; this is the recovery
	// path for a wedged environment.
	Cleanup(ctx context.Context, opID string)
}

// Members resolves the member list of a group, or catalog.ErrGroupNotFound.
// Callers use it to size the operation before execution begins.
func Members(cat *catalog.Catalog, group string) ([]string, error) {
	g, ok := cat.Group(group)
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrGroupNotFound, group)
	}
	return append([]string(nil), g.Images...), nil
}

type coordinator struct {
	controller lifecycle.Controller
	runtime    runtime.Runtime
	tracker    operations.Tracker
}

// NewCoordinator creates a group coordinator.
func NewCoordinator(controller lifecycle.Controller, rt runtime.Runtime, tracker operations.Tracker) Coordinator {
	return &coordinator{controller: controller, runtime: rt, tracker: tracker}
}

func (c *coordinator) StartGroup(ctx context.Context, cat *catalog.Catalog, group string, opID string) {
	log := logger.FromContextWith(ctx, logger.SubsystemGroups)

	members, err := Members(cat, group)
	if err != nil {
		// Nothing ran at all: this is the one case that maps to error status.
		c.tracker.Fail(opID, err.Error())
		return
	}
	if len(members) == 0 {
		log.InfoContext(ctx, "group has no members, skipping", "group", group)
		c.tracker.Complete(opID)
		return
	}

	log.InfoContext(ctx, "starting group", "group", group, "members", len(members))
	for _, member := range members {
		c.startMember(ctx, cat, member, opID)
	}
	c.tracker.Complete(opID)
}

func (c *coordinator) StopGroup(ctx context.Context, cat *catalog.Catalog, group string, opID string) {
	log := logger.FromContextWith(ctx, logger.SubsystemGroups)

	members, err := Members(cat, group)
	if err != nil {
		c.tracker.Fail(opID, err.Error())
		return
	}
	if len(members) == 0 {
		log.InfoContext(ctx, "group has no members, skipping", "group", group)
		c.tracker.Complete(opID)
		return
	}

	log.InfoContext(ctx, "stopping group", "group", group, "members", len(members))
	for _, member := range members {
		c.stopMember(ctx, cat, member, opID)
	}
	c.tracker.Complete(opID)
}

func (c *coordinator) StopAll(ctx context.Context, cat *catalog.Catalog, opID string) {
	log := logger.FromContextWith(ctx, logger.SubsystemGroups)
	names := cat.ImageNames()

	log.InfoContext(ctx, "stopping all images", "count", len(names))
	for _, name := range names {
		c.stopMember(ctx, cat, name, opID)
	}
	c.tracker.Complete(opID)
}

func (c *coordinator) RestartAll(ctx context.Context, cat *catalog.Catalog, opID string) {
	log := logger.FromContextWith(ctx, logger.SubsystemGroups)
	names := cat.ImageNames()

	log.InfoContext(ctx, "restarting all images", "count", len(names))
	for _, name := range names {
		if _, err := c.controller.Restart(ctx, cat, name); err != nil {
			c.tracker.Increment(opID, operations.CounterFailed)
			c.tracker.AppendError(opID, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		c.tracker.Increment(opID, operations.CounterStarted)
	}
	c.tracker.Complete(opID)
}

func (c *coordinator) Cleanup(ctx context.Context, opID string) {
	log := logger.FromContextWith(ctx, logger.SubsystemGroups)

	states, err := c.runtime.ListManaged(ctx)
	if err != nil {
		c.tracker.Fail(opID, err.Error())
		return
	}

	log.InfoContext(ctx, "removing managed containers", "count", len(states))
	for _, state := range states {
		if err := c.runtime.RemoveContainer(ctx, state.Name, true); err != nil {
			log.WarnContext(ctx, "container remove failed", "container", state.Name, "error", err)
			c.tracker.Increment(opID, operations.CounterFailed)
			c.tracker.AppendError(opID, fmt.Sprintf("%s: %v", state.Name, err))
			continue
		}
		c.tracker.Increment(opID, operations.CounterRemoved)
	}
	c.tracker.Complete(opID)
}

// startMember classifies one member's start outcome. A member observed
// running is left alone. A degraded start (health-check timeout) still counts
// as started, matching the single-image soft-failure behavior.
func (c *coordinator) startMember(ctx context.Context, cat *catalog.Catalog, member string, opID string) {
	log := logger.FromContextWith(ctx, logger.SubsystemGroups)

	if state, err := c.controller.Status(ctx, member); err == nil && state.Running() {
		log.DebugContext(ctx, "member already running", "image", member)
		c.tracker.Increment(opID, operations.CounterAlreadyRunning)
		return
	}

	result, err := c.controller.Start(ctx, cat, member)
	if err != nil {
		log.WarnContext(ctx, "member start failed", "image", member, "error", err)
		c.tracker.Increment(opID, operations.CounterFailed)
		c.tracker.AppendError(opID, fmt.Sprintf("%s: %v", member, err))
		return
	}

	for _, warning := range result.Warnings {
		c.tracker.AppendError(opID, warning)
	}
	c.tracker.Increment(opID, operations.CounterStarted)
}

func (c *coordinator) stopMember(ctx context.Context, cat *catalog.Catalog, member string, opID string) {
	log := logger.FromContextWith(ctx, logger.SubsystemGroups)

	err := c.controller.Stop(ctx, cat, member)
	switch {
	case err == nil:
		c.tracker.Increment(opID, operations.CounterStopped)
	case errors.Is(err, lifecycle.ErrNotRunning):
		c.tracker.Increment(opID, operations.CounterNotRunning)
	default:
		log.WarnContext(ctx, "member stop failed", "image", member, "error", err)
		c.tracker.Increment(opID, operations.CounterFailed)
		c.tracker.AppendError(opID, fmt.Sprintf("%s: %v", member, err))
	}
}
