package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"

	"github.com/manzolo/docker-compose-playground-sub001/lib/compose"
	"github.com/manzolo/docker-compose-playground-sub001/lib/logger"
)

// dockerRuntime implements Runtime against the Docker Engine API.
type dockerRuntime struct {
	cli *client.Client
}

var _ Runtime = (*dockerRuntime)(nil)

// NewDockerRuntime connects to the engine using the standard environment
// (DOCKER_HOST et al) with API version negotiation.
func NewDockerRuntime() (Runtime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &dockerRuntime{cli: cli}, nil
}

func (r *dockerRuntime) Apply(ctx context.Context, spec *compose.Spec) error {
	log := logger.FromContextWith(ctx, logger.SubsystemRuntime)

	// 1. Provision networks.
	for name, decl := range spec.Networks {
		if err := r.ensureNetwork(ctx, name, decl); err != nil {
			return fmt.Errorf("ensure network %s: %w", name, err)
		}
	}

	// 2. Provision named volumes.
	for name, decl := range spec.Volumes {
		if err := r.ensureVolume(ctx, name, decl); err != nil {
			return fmt.Errorf("ensure volume %s: %w", name, err)
		}
	}

	// 3. Create and start services in deterministic order.
	names := make([]string, 0, len(spec.Services))
	for name := range spec.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		svc := spec.Services[name]
		if err := r.applyService(ctx, svc); err != nil {
			return fmt.Errorf("apply service %s: %w", name, err)
		}
		log.DebugContext(ctx, "service applied", "service", name, "container", svc.ContainerName)
	}

	return nil
}

func (r *dockerRuntime) ensureNetwork(ctx context.Context, name string, decl compose.NetworkDecl) error {
	if _, err := r.cli.NetworkInspect(ctx, name, network.InspectOptions{}); err == nil {
		return nil
	} else if !errdefs.IsNotFound(err) {
		return err
	}

	driver := decl.Driver
	if driver == "" {
		driver = "bridge"
	}
	_, err := r.cli.NetworkCreate(ctx, name, network.CreateOptions{
		Driver: driver,
		Labels: map[string]string{compose.ManagedLabel: "true"},
	})
	return err
}

func (r *dockerRuntime) ensureVolume(ctx context.Context, name string, decl compose.VolumeDecl) error {
	if _, err := r.cli.VolumeInspect(ctx, name); err == nil {
		return nil
	} else if !errdefs.IsNotFound(err) {
		return err
	}

	_, err := r.cli.VolumeCreate(ctx, volume.CreateOptions{
		Name:   name,
		Labels: decl.Labels,
	})
	return err
}

func (r *dockerRuntime) applyService(ctx context.Context, svc compose.Service) error {
	cfg, hostCfg, netCfg, err := serviceToEngine(svc)
	if err != nil {
		return err
	}

	_, err = r.cli.ContainerCreate(ctx, cfg, hostCfg, netCfg, nil, svc.ContainerName)
	if errdefs.IsNotFound(err) {
		// Image not present locally: pull, then retry the create once.
		if pullErr := r.pullImage(ctx, svc.Image); pullErr != nil {
			return fmt.Errorf("pull image %s: %w", svc.Image, pullErr)
		}
		_, err = r.cli.ContainerCreate(ctx, cfg, hostCfg, netCfg, nil, svc.ContainerName)
	}
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}

	if err := r.cli.ContainerStart(ctx, svc.ContainerName, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container: %w", err)
	}
	return nil
}

func (r *dockerRuntime) pullImage(ctx context.Context, ref string) error {
	log := logger.FromContextWith(ctx, logger.SubsystemRuntime)
	log.InfoContext(ctx, "pulling image", "image", ref)

	rc, err := r.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return err
	}
	defer rc.Close()

	// Drain the progress stream; the pull only completes once it is consumed.
	_, err = io.Copy(io.Discard, rc)
	return err
}

// serviceToEngine translates one spec service into engine create parameters.
func serviceToEngine(svc compose.Service) (*container.Config, *container.HostConfig, *network.NetworkingConfig, error) {
	exposed, bindings, err := nat.ParsePortSpecs(svc.Ports)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse ports: %w", err)
	}

	env := make([]string, 0, len(svc.Environment))
	for k, v := range svc.Environment {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)

	mounts := make([]mount.Mount, 0, len(svc.Volumes))
	for _, spec := range svc.Volumes {
		m, err := parseMountSpec(spec)
		if err != nil {
			return nil, nil, nil, err
		}
		mounts = append(mounts, m)
	}

	cfg := &container.Config{
		Image:        svc.Image,
		Env:          env,
		Labels:       svc.Labels,
		ExposedPorts: exposed,
	}
	if svc.Command != "" {
		cfg.Cmd = []string{"/bin/sh", "-c", svc.Command}
	}

	hostCfg := &container.HostConfig{
		Privileged:   svc.Privileged,
		PortBindings: bindings,
		Mounts:       mounts,
	}

	netCfg := &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{},
	}
	for _, name := range svc.Networks {
		netCfg.EndpointsConfig[name] = &network.EndpointSettings{}
	}

	return cfg, hostCfg, netCfg, nil
}

// parseMountSpec parses "source:target[:ro]". Absolute sources are bind
// mounts; anything else is a named volume.
func parseMountSpec(spec string) (mount.Mount, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return mount.Mount{}, fmt.Errorf("invalid mount spec %q", spec)
	}

	m := mount.Mount{
		Source: parts[0],
		Target: parts[1],
	}
	if len(parts) == 3 {
		if parts[2] != "ro" {
			return mount.Mount{}, fmt.Errorf("invalid mount option %q in %q", parts[2], spec)
		}
		m.ReadOnly = true
	}

	if filepath.IsAbs(m.Source) {
		m.Type = mount.TypeBind
	} else {
		m.Type = mount.TypeVolume
	}
	return m, nil
}

func (r *dockerRuntime) InspectContainer(ctx context.Context, name string) (*ContainerState, error) {
	resp, err := r.cli.ContainerInspect(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("inspect container: %w", err)
	}

	state := &ContainerState{
		ID:   resp.ID,
		Name: strings.TrimPrefix(resp.Name, "/"),
	}
	if resp.State != nil {
		state.State = string(resp.State.Status)
	}
	if resp.Config != nil {
		state.Image = resp.Config.Labels[compose.ImageLabel]
	}
	return state, nil
}

func (r *dockerRuntime) StopContainer(ctx context.Context, name string, timeout time.Duration) error {
	seconds := int(timeout.Seconds())
	err := r.cli.ContainerStop(ctx, name, container.StopOptions{Timeout: &seconds})
	if errdefs.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (r *dockerRuntime) RemoveContainer(ctx context.Context, name string, force bool) error {
	err := r.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: force})
	if errdefs.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (r *dockerRuntime) ListManaged(ctx context.Context) ([]ContainerState, error) {
	summaries, err := r.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", compose.ManagedLabel+"=true")),
	})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	states := make([]ContainerState, 0, len(summaries))
	for _, s := range summaries {
		name := ""
		if len(s.Names) > 0 {
			name = strings.TrimPrefix(s.Names[0], "/")
		}
		states = append(states, ContainerState{
			ID:    s.ID,
			Name:  name,
			Image: s.Labels[compose.ImageLabel],
			State: string(s.State),
		})
	}

	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states, nil
}

func (r *dockerRuntime) ContainerLogs(ctx context.Context, name string, tail int) (string, error) {
	rc, err := r.cli.ContainerLogs(ctx, name, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       strconv.Itoa(tail),
	})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("container logs: %w", err)
	}
	defer rc.Close()

	// Engine log streams are multiplexed; demux into one buffer.
	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, rc); err != nil {
		return "", fmt.Errorf("read logs: %w", err)
	}
	return buf.String(), nil
}

func (r *dockerRuntime) Close() error {
	return r.cli.Close()
}
