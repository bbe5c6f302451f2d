package runtime

import (
	"context"
	"time"

	"github.com/manzolo/docker-compose-playground-sub001/lib/compose"
)

// ContainerState is a point-in-time view of one managed container. The
// underlying engine only exposes state queries, so callers that need to wait
// poll this.
type ContainerState struct {
	ID    string
	Name  string
	Image string // catalog image name, from the image label
	State string // created, running, exited, ...
}

// Running reports whether the container is in the running state.
func (s *ContainerState) Running() bool {
	return s.State == "running"
}

// Runtime is the container engine capability the orchestration core invokes
// but does not reimplement: compose-spec apply plus per-container
// stop/remove/inspect/logs.
type Runtime interface {
	// Apply creates and starts every service of the spec, provisioning the
	// spec's networks and named volumes first.
	Apply(ctx context.Context, spec *compose.Spec) error

	// InspectContainer returns the state of a container by name.
	// Returns ErrNotFound when no such container exists.
	InspectContainer(ctx context.Context, name string) (*ContainerState, error)

	// StopContainer stops a container, waiting up to timeout for it to exit.
	StopContainer(ctx context.Context, name string, timeout time.Duration) error

	// RemoveContainer removes a container, optionally killing it first.
	RemoveContainer(ctx context.Context, name string, force bool) error

	// ListManaged returns all containers carrying the managed label, in any
	// state.
	ListManaged(ctx context.Context) ([]ContainerState, error)

	// ContainerLogs returns the last tail lines of a container's output.
	ContainerLogs(ctx context.Context, name string, tail int) (string, error)

	// Close releases the engine connection.
	Close() error
}
