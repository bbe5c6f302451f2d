package compose

import "github.com/ghodss/yaml"

// Labels stamped on every generated service. LifecycleController and the
// group coordinator discover managed containers through these at runtime, so
// no separate container index is needed.
const (
	ManagedLabel = "com.manzolo.playground.managed"
	ImageLabel   = "com.manzolo.playground.image"
)

// Spec is the generated runtime specification: one service per selected
// image, one shared network, and the deduplicated named volumes.
type Spec struct {
	Services map[string]Service     `json:"services"`
	Volumes  map[string]VolumeDecl  `json:"volumes,omitempty"`
	Networks map[string]NetworkDecl `json:"networks"`
}

// Service is one container entry of the spec.
type Service struct {
	Image         string            `json:"image"`
	ContainerName string            `json:"container_name"`
	Command       string            `json:"command,omitempty"`
	Privileged    bool              `json:"privileged,omitempty"`
	Environment   map[string]string `json:"environment,omitempty"`
	Ports         []string          `json:"ports,omitempty"`
	Volumes       []string          `json:"volumes,omitempty"` // source:target[:ro]
	Labels        map[string]string `json:"labels"`
	Networks      []string          `json:"networks"`
}

// VolumeDecl is a top-level named volume declaration.
type VolumeDecl struct {
	Labels map[string]string `json:"labels,omitempty"`
}

// NetworkDecl is the shared network declaration.
type NetworkDecl struct {
	Driver string `json:"driver,omitempty"`
}

// YAML renders the spec. ghodss/yaml routes through JSON, which sorts map
// keys, so the same input set always yields byte-identical output.
func (s *Spec) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}
