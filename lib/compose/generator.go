package compose

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/manzolo/docker-compose-playground-sub001/lib/catalog"
	"github.com/manzolo/docker-compose-playground-sub001/lib/paths"
)

// SharedMountTarget is where the shared data directory appears inside every
// managed container.
const SharedMountTarget = "/playground/shared"

// ContainerName returns the reserved container name for an image definition.
func ContainerName(image string) string {
	return "playground-" + image
}

// Generator turns selected image definitions into a runtime Spec. It is
// deterministic apart from host-path provisioning, which is create-if-absent
// and never destructive.
type Generator struct {
	paths   *paths.Paths
	network string
}

// NewGenerator creates a compose generator scoped to the given network.
func NewGenerator(p *paths.Paths, network string) *Generator {
	return &Generator{paths: p, network: network}
}

// Generate builds the spec for the selected images. It provisions missing
// bind directories and file mounts on the host as a side effect.
func (g *Generator) Generate(selected []catalog.ImageDefinition) (*Spec, error) {
	spec := &Spec{
		Services: make(map[string]Service, len(selected)),
		Networks: map[string]NetworkDecl{
			g.network: {Driver: "bridge"},
		},
	}

	// The shared data directory is mounted into every service.
	if err := ensureDir(g.paths.SharedDir); err != nil {
		return nil, fmt.Errorf("provision shared directory: %w", err)
	}

	for _, def := range selected {
		svc, named, err := g.generateService(def)
		if err != nil {
			return nil, err
		}
		spec.Services[def.Name] = svc

		// Named volumes are declared once at the top level even when several
		// services reference them.
		for _, name := range named {
			if spec.Volumes == nil {
				spec.Volumes = make(map[string]VolumeDecl)
			}
			if _, ok := spec.Volumes[name]; !ok {
				spec.Volumes[name] = VolumeDecl{
					Labels: map[string]string{ManagedLabel: "true"},
				}
			}
		}
	}

	return spec, nil
}

func (g *Generator) generateService(def catalog.ImageDefinition) (Service, []string, error) {
	mounts := []string{g.paths.SharedDir + ":" + SharedMountTarget}
	var named []string

	for _, vol := range def.Volumes {
		switch vol.Type {
		case catalog.VolumeNamed:
			named = append(named, vol.Name)
			mounts = append(mounts, mountSpec(vol.Name, vol.Target, vol.ReadOnly))

		case catalog.VolumeBind:
			hostPath := g.resolveHostPath(vol.Source)
			if err := ensureDir(hostPath); err != nil {
				return Service{}, nil, fmt.Errorf("provision bind path for %s: %w", def.Name, err)
			}
			mounts = append(mounts, mountSpec(hostPath, vol.Target, vol.ReadOnly))

		case catalog.VolumeFile:
			hostPath := g.resolveHostPath(vol.Source)
			if err := ensureFile(hostPath); err != nil {
				return Service{}, nil, fmt.Errorf("provision file mount for %s: %w", def.Name, err)
			}
			mounts = append(mounts, mountSpec(hostPath, vol.Target, vol.ReadOnly))
		}
	}

	svc := Service{
		Image:         def.Image,
		ContainerName: ContainerName(def.Name),
		Command:       def.KeepAlive,
		Privileged:    def.Privileged,
		Ports:         append([]string(nil), def.Ports...),
		Volumes:       mounts,
		Labels: map[string]string{
			ManagedLabel: "true",
			ImageLabel:   def.Name,
		},
		Networks: []string{g.network},
	}
	if len(def.Environment) > 0 {
		svc.Environment = def.Environment
	}

	return svc, named, nil
}

// resolveHostPath resolves a relative volume source against the project root.
func (g *Generator) resolveHostPath(source string) string {
	if filepath.IsAbs(source) {
		return filepath.Clean(source)
	}
	return filepath.Join(g.paths.ProjectRoot(), source)
}

func mountSpec(source, target string, readOnly bool) string {
	spec := source + ":" + target
	if readOnly {
		spec += ":ro"
	}
	return spec
}

// ensureDir creates the directory if absent and leaves it untouched if
// present.
func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// ensureFile creates an empty file (and parent directories) if absent and
// leaves existing content untouched.
func ensureFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	return f.Close()
}
