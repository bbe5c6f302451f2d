package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/manzolo/docker-compose-playground-sub001/lib/catalog"
	"github.com/manzolo/docker-compose-playground-sub001/lib/compose"
	"github.com/manzolo/docker-compose-playground-sub001/lib/logger"
	"github.com/manzolo/docker-compose-playground-sub001/lib/paths"
	"github.com/manzolo/docker-compose-playground-sub001/lib/retry"
	"github.com/manzolo/docker-compose-playground-sub001/lib/runtime"
)

// Options tunes the bounded health-check wait and stop behavior.
type Options struct {
	// HealthInterval is the fixed delay between container state polls.
	HealthInterval time.Duration
	// HealthAttempts bounds the health-check wait.
	HealthAttempts int
	// StopTimeout is how long the engine waits before killing on stop.
	StopTimeout time.Duration
	// DiagnosticTailLines is how many log lines are captured when a start is
	// flagged degraded.
	DiagnosticTailLines int
}

// DefaultOptions returns the standard lifecycle tuning.
func DefaultOptions() Options {
	return Options{
		HealthInterval:      2 * time.Second,
		HealthAttempts:      30,
		StopTimeout:         10 * time.Second,
		DiagnosticTailLines: 50,
	}
}

// StartResult reports the outcome of a successful start. Degraded means the
// container was started but never observed running within the health-check
// budget; it is left up regardless.
type StartResult struct {
	ContainerName string
	Degraded      bool
	Warnings      []string
}

// Controller drives the start/stop state machine for one image at a time.
// The catalog is passed explicitly on every call; the controller holds no
// resolved-config state of its own.
type Controller interface {
	// Start tears down any stale container for the image, applies a fresh
	// runtime spec scoped to just this image, waits (bounded) for it to be
	// running, and runs the post_start hook. Hook failures and health-check
	// timeouts do not fail the start.
	Start(ctx context.Context, cat *catalog.Catalog, name string) (*StartResult, error)

	// Stop runs the pre_stop hook (non-fatal), then stops and removes the
	// container. Both runtime sub-steps must succeed; an absent container
	// yields ErrNotRunning.
	Stop(ctx context.Context, cat *catalog.Catalog, name string) error

	// Restart stops the image, tolerating an absent container, then starts it.
	Restart(ctx context.Context, cat *catalog.Catalog, name string) (*StartResult, error)

	// Status returns the runtime state of the image's reserved container.
	Status(ctx context.Context, name string) (*runtime.ContainerState, error)
}

type controller struct {
	runtime   runtime.Runtime
	generator *compose.Generator
	hooks     *hookRunner
	opts      Options
	metrics   *Metrics
}

// NewController creates a lifecycle controller. meter may be nil to disable
// metrics.
func NewController(rt runtime.Runtime, gen *compose.Generator, p *paths.Paths, opts Options, meter metric.Meter) (Controller, error) {
	c := &controller{
		runtime:   rt,
		generator: gen,
		hooks:     newHookRunner(p),
		opts:      opts,
	}

	if meter != nil {
		metrics, err := newMetrics(meter, rt)
		if err != nil {
			return nil, fmt.Errorf("create metrics: %w", err)
		}
		c.metrics = metrics
	}

	return c, nil
}

func (c *controller) Start(ctx context.Context, cat *catalog.Catalog, name string) (*StartResult, error) {
	start := time.Now()
	log := logger.FromContextWith(ctx, logger.SubsystemLifecycle)

	def, ok := cat.Image(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrImageNotFound, name)
	}

	containerName := compose.ContainerName(name)
	log.InfoContext(ctx, "starting image", "image", name, "container", containerName)

	// 1. Idempotent teardown: a container with the reserved name in any state
	// is force-removed so no stale state leaks into this attempt.
	if err := c.teardown(ctx, containerName); err != nil {
		c.recordDuration(ctx, c.metrics.start(), start, "failed")
		return nil, fmt.Errorf("%w: teardown stale container: %v", ErrStartFailed, err)
	}

	// 2. Regenerate the runtime spec for just this image and apply it.
	spec, err := c.generator.Generate([]catalog.ImageDefinition{def})
	if err != nil {
		c.recordDuration(ctx, c.metrics.start(), start, "failed")
		return nil, fmt.Errorf("%w: generate spec: %v", ErrStartFailed, err)
	}
	if err := c.runtime.Apply(ctx, spec); err != nil {
		// Clean up anything the failed attempt left behind.
		c.teardown(ctx, containerName)
		c.recordDuration(ctx, c.metrics.start(), start, "failed")
		return nil, fmt.Errorf("%w: %v", ErrStartFailed, err)
	}
	c.recordTransition(ctx, "idle", "starting")

	result := &StartResult{ContainerName: containerName}

	// 3. Bounded health-check wait. Timing out is soft: the container stays
	// up and the start is flagged degraded, with recent logs captured for the
	// operator.
	if err := c.waitRunning(ctx, containerName); err != nil {
		result.Degraded = true
		warning := fmt.Sprintf("%s may not be fully started: %v", name, err)
		result.Warnings = append(result.Warnings, warning)

		logs, logsErr := c.runtime.ContainerLogs(ctx, containerName, c.opts.DiagnosticTailLines)
		if logsErr != nil {
			logs = fmt.Sprintf("(logs unavailable: %v)", logsErr)
		}
		log.WarnContext(ctx, "health check did not confirm running state",
			"image", name,
			"error", err,
			"recent_logs", logs,
		)
		c.recordTransition(ctx, "starting", "degraded")
	} else {
		c.recordTransition(ctx, "starting", "running")
	}

	// 4. post_start hook. Failure is logged as a warning and never fails the
	// start.
	if err := c.hooks.Run(ctx, def.PostStart, name); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("post_start hook failed: %v", err))
		log.WarnContext(ctx, "post_start hook failed", "image", name, "error", err)
		c.recordHookFailure(ctx, "post_start")
	}

	c.recordDuration(ctx, c.metrics.start(), start, "success")
	log.InfoContext(ctx, "image started", "image", name, "degraded", result.Degraded)
	return result, nil
}

func (c *controller) Stop(ctx context.Context, cat *catalog.Catalog, name string) error {
	start := time.Now()
	log := logger.FromContextWith(ctx, logger.SubsystemLifecycle)

	def, ok := cat.Image(name)
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrImageNotFound, name)
	}

	containerName := compose.ContainerName(name)
	log.InfoContext(ctx, "stopping image", "image", name, "container", containerName)

	// 1. pre_stop hook runs before the container is touched; non-fatal.
	if err := c.hooks.Run(ctx, def.PreStop, name); err != nil {
		log.WarnContext(ctx, "pre_stop hook failed", "image", name, "error", err)
		c.recordHookFailure(ctx, "pre_stop")
	}

	// 2. Stop, then remove. Both must succeed; an absent container is a stop
	// failure, not a silent no-op.
	if err := c.runtime.StopContainer(ctx, containerName, c.opts.StopTimeout); err != nil {
		c.recordDuration(ctx, c.metrics.stop(), start, "failed")
		if errors.Is(err, runtime.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotRunning, name)
		}
		return fmt.Errorf("%w: stop: %v", ErrStopFailed, err)
	}
	c.recordTransition(ctx, "running", "stopping")

	if err := c.runtime.RemoveContainer(ctx, containerName, false); err != nil {
		c.recordDuration(ctx, c.metrics.stop(), start, "failed")
		return fmt.Errorf("%w: remove: %v", ErrStopFailed, err)
	}
	c.recordTransition(ctx, "stopping", "idle")

	c.recordDuration(ctx, c.metrics.stop(), start, "success")
	log.InfoContext(ctx, "image stopped", "image", name)
	return nil
}

func (c *controller) Restart(ctx context.Context, cat *catalog.Catalog, name string) (*StartResult, error) {
	if err := c.Stop(ctx, cat, name); err != nil && !errors.Is(err, ErrNotRunning) {
		return nil, err
	}
	return c.Start(ctx, cat, name)
}

func (c *controller) Status(ctx context.Context, name string) (*runtime.ContainerState, error) {
	return c.runtime.InspectContainer(ctx, compose.ContainerName(name))
}

// teardown force-removes the named container if it exists, in any state.
func (c *controller) teardown(ctx context.Context, containerName string) error {
	_, err := c.runtime.InspectContainer(ctx, containerName)
	if errors.Is(err, runtime.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	// Best-effort stop; force remove handles containers that will not stop.
	_ = c.runtime.StopContainer(ctx, containerName, c.opts.StopTimeout)

	if err := c.runtime.RemoveContainer(ctx, containerName, true); err != nil && !errors.Is(err, runtime.ErrNotFound) {
		return err
	}
	return nil
}

// waitRunning polls container state at a fixed interval up to the attempt
// budget. The runtime only offers point-in-time queries, hence polling.
func (c *controller) waitRunning(ctx context.Context, containerName string) error {
	return retry.Do(ctx, c.opts.HealthInterval, c.opts.HealthAttempts, func(ctx context.Context) (bool, error) {
		state, err := c.runtime.InspectContainer(ctx, containerName)
		if err != nil {
			if errors.Is(err, runtime.ErrNotFound) {
				// The engine may briefly not list a just-created container.
				return false, nil
			}
			return false, err
		}
		return state.Running(), nil
	})
}

// start and stop guard metric access when metrics are disabled.
func (m *Metrics) start() metric.Float64Histogram {
	if m == nil {
		return nil
	}
	return m.startDuration
}

func (m *Metrics) stop() metric.Float64Histogram {
	if m == nil {
		return nil
	}
	return m.stopDuration
}
