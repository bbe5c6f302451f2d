package api

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/manzolo/docker-compose-playground-sub001/cmd/api/config"
	"github.com/manzolo/docker-compose-playground-sub001/lib/catalog"
	"github.com/manzolo/docker-compose-playground-sub001/lib/compose"
	"github.com/manzolo/docker-compose-playground-sub001/lib/groups"
	"github.com/manzolo/docker-compose-playground-sub001/lib/lifecycle"
	"github.com/manzolo/docker-compose-playground-sub001/lib/operations"
	"github.com/manzolo/docker-compose-playground-sub001/lib/paths"
	"github.com/manzolo/docker-compose-playground-sub001/lib/runtime"
)

const testCatalogYAML = `
images:
  ubuntu:
    image: ubuntu:24.04
    category: os
    description: Ubuntu playground
  redis:
    image: redis:7
    category: cache
group:
  name: web
  images: [ubuntu, redis]
`

// fakeRuntime is an in-memory engine stand-in shared by the handler tests.
type fakeRuntime struct {
	mu         sync.Mutex
	containers map[string]runtime.ContainerState
	logs       string
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{containers: make(map[string]runtime.ContainerState)}
}

func (f *fakeRuntime) addContainer(name, image, state string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.containers[name] = runtime.ContainerState{ID: "id-" + name, Name: name, Image: image, State: state}
}

func (f *fakeRuntime) Apply(_ context.Context, spec *compose.Spec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, svc := range spec.Services {
		f.containers[svc.ContainerName] = runtime.ContainerState{
			ID: "id-" + svc.ContainerName, Name: svc.ContainerName, Image: name, State: "running",
		}
	}
	return nil
}

func (f *fakeRuntime) InspectContainer(_ context.Context, name string) (*runtime.ContainerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[name]
	if !ok {
		return nil, runtime.ErrNotFound
	}
	return &c, nil
}

func (f *fakeRuntime) StopContainer(_ context.Context, name string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[name]
	if !ok {
		return runtime.ErrNotFound
	}
	c.State = "exited"
	f.containers[name] = c
	return nil
}

func (f *fakeRuntime) RemoveContainer(_ context.Context, name string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.containers[name]; !ok {
		return runtime.ErrNotFound
	}
	delete(f.containers, name)
	return nil
}

func (f *fakeRuntime) ListManaged(_ context.Context) ([]runtime.ContainerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]runtime.ContainerState, 0, len(f.containers))
	for _, c := range f.containers {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRuntime) ContainerLogs(_ context.Context, name string, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.containers[name]; !ok {
		return "", runtime.ErrNotFound
	}
	return f.logs, nil
}

func (f *fakeRuntime) Close() error { return nil }

// newTestServer wires the full handler stack over the fake runtime and a
// temp-dir catalog.
func newTestServer(t *testing.T) (*httptest.Server, *fakeRuntime, *ApiService) {
	t.Helper()
	dir := t.TempDir()

	catalogFile := filepath.Join(dir, "images.yml")
	require.NoError(t, os.WriteFile(catalogFile, []byte(testCatalogYAML), 0o644))

	p := paths.New(dir, catalogFile,
		filepath.Join(dir, "images.d"),
		filepath.Join(dir, "scripts"),
		filepath.Join(dir, "shared"),
	)

	rt := newFakeRuntime()
	gen := compose.NewGenerator(p, "playground-network")

	opts := lifecycle.DefaultOptions()
	opts.HealthInterval = time.Millisecond
	opts.HealthAttempts = 3
	ctrl, err := lifecycle.NewController(rt, gen, p, opts, nil)
	require.NoError(t, err)

	tracker := operations.NewTracker()
	svc := New(
		&config.Config{NetworkName: "playground-network"},
		catalog.NewResolver(p),
		rt,
		ctrl,
		groups.NewCoordinator(ctrl, rt, tracker),
		tracker,
	)

	r := chi.NewRouter()
	r.Get("/healthz", svc.Healthz)
	svc.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, rt, svc
}

// awaitOperation polls the tracker until the operation is terminal.
func awaitOperation(t *testing.T, tracker operations.Tracker, id string) *operations.Operation {
	t.Helper()
	op, err := operations.PollUntilDone(context.Background(),
		func(_ context.Context, id string) (*operations.Operation, error) { return tracker.Get(id) },
		id, time.Millisecond, 5000)
	require.NoError(t, err)
	return op
}
