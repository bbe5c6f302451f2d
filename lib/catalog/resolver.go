package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/distribution/reference"
	"github.com/docker/go-connections/nat"
	"github.com/ghodss/yaml"
	"github.com/samber/lo"

	"github.com/manzolo/docker-compose-playground-sub001/lib/logger"
	"github.com/manzolo/docker-compose-playground-sub001/lib/paths"
)

// Resolver loads the base catalog plus overlays and produces one effective
// Catalog. It is a pure function of its inputs plus filesystem reads; it
// holds no mutable state between passes.
type Resolver struct {
	paths *paths.Paths
}

// NewResolver creates a catalog resolver.
func NewResolver(p *paths.Paths) *Resolver {
	return &Resolver{paths: p}
}

// rawSource mirrors the on-disk document shape. ghodss/yaml routes through
// JSON, so the json tags double as the YAML field names.
type rawSource struct {
	Images map[string]map[string]interface{} `json:"images"`
	Group  *rawGroup                         `json:"group"`
}

type rawGroup struct {
	Name   string   `json:"name"`
	Images []string `json:"images"`
}

type rawImage struct {
	Image       string            `json:"image"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Shell       string            `json:"shell"`
	KeepAlive   string            `json:"keep_alive"`
	Privileged  bool              `json:"privileged"`
	Volumes     []rawVolume       `json:"volumes"`
	Ports       []string          `json:"ports"`
	Environment map[string]string `json:"environment"`
	Hooks       *rawHooks         `json:"hooks"`
	MOTD        string            `json:"motd"`
}

type rawVolume struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	ReadOnly bool   `json:"readonly"`
}

type rawHooks struct {
	PostStart *rawHook `json:"post_start"`
	PreStop   *rawHook `json:"pre_stop"`
}

type rawHook struct {
	Script string `json:"script"`
	File   string `json:"file"`
}

// Resolve loads the base catalog file, applies overlay files from the overlay
// directory in lexical order, and builds the effective catalog. No partial
// catalog is ever returned: any unparsable source fails the whole pass.
func (r *Resolver) Resolve(ctx context.Context) (*Catalog, error) {
	log := logger.FromContextWith(ctx, logger.SubsystemCatalog)

	sources := []string{r.paths.CatalogFile}
	overlays, err := listOverlays(r.paths.OverlayDir)
	if err != nil {
		return nil, fmt.Errorf("list overlays: %w", err)
	}
	sources = append(sources, overlays...)

	merged := make(map[string]map[string]interface{})
	groups := make(map[string]Group)

	for i, source := range sources {
		data, err := os.ReadFile(source)
		if err != nil {
			// The base catalog is mandatory; overlays were just listed.
			return nil, fmt.Errorf("read catalog source %s: %w", source, err)
		}

		raw, err := parseSource(source, data)
		if err != nil {
			return nil, err
		}

		for name, block := range raw.Images {
			if block == nil {
				block = map[string]interface{}{}
			}
			if existing, ok := merged[name]; ok {
				// Field-level override: later layer wins per field, untouched
				// fields keep the earlier layer's value.
				merged[name] = lo.Assign(existing, block)
			} else {
				merged[name] = block
			}
		}

		if raw.Group != nil && raw.Group.Name != "" {
			// A later layer's group with the same name replaces the member list.
			groups[raw.Group.Name] = Group{
				Name:   raw.Group.Name,
				Images: append([]string(nil), raw.Group.Images...),
			}
		}

		if i > 0 {
			log.DebugContext(ctx, "applied overlay", "source", source, "images", len(raw.Images))
		}
	}

	images := make(map[string]ImageDefinition, len(merged))
	for name, block := range merged {
		def, err := buildDefinition(name, block)
		if err != nil {
			return nil, err
		}
		images[name] = def
	}

	log.InfoContext(ctx, "catalog resolved",
		"images", len(images),
		"groups", len(groups),
		"overlays", len(overlays),
	)

	return &Catalog{images: images, groups: groups}, nil
}

// listOverlays returns the overlay files in lexical order. A missing overlay
// directory is not an error; overlays are optional.
func listOverlays(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// parseSource decodes one catalog document and enforces the images map.
func parseSource(source string, data []byte) (*rawSource, error) {
	var raw rawSource
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSource, source, err)
	}
	if raw.Images == nil {
		return nil, fmt.Errorf("%w: %s: missing images map", ErrInvalidSource, source)
	}
	return &raw, nil
}

// buildDefinition converts a merged image block into a validated, defaulted
// ImageDefinition. Absent and explicitly-null fields are indistinguishable:
// both get the default.
func buildDefinition(name string, block map[string]interface{}) (ImageDefinition, error) {
	data, err := json.Marshal(block)
	if err != nil {
		return ImageDefinition{}, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, name, err)
	}

	var raw rawImage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ImageDefinition{}, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, name, err)
	}

	if raw.Image == "" {
		return ImageDefinition{}, fmt.Errorf("%w: %s: image reference is required", ErrInvalidDefinition, name)
	}
	if _, err := reference.ParseNormalizedNamed(raw.Image); err != nil {
		return ImageDefinition{}, fmt.Errorf("%w: %s: image %q: %v", ErrInvalidDefinition, name, raw.Image, err)
	}

	if len(raw.Ports) > 0 {
		if _, _, err := nat.ParsePortSpecs(raw.Ports); err != nil {
			return ImageDefinition{}, fmt.Errorf("%w: %s: ports: %v", ErrInvalidDefinition, name, err)
		}
	}

	volumes := make([]Volume, 0, len(raw.Volumes))
	for i, rv := range raw.Volumes {
		vol, err := buildVolume(name, i, rv)
		if err != nil {
			return ImageDefinition{}, err
		}
		volumes = append(volumes, vol)
	}

	postStart, err := buildHook(name, "post_start", hookFromRaw(raw.Hooks, true))
	if err != nil {
		return ImageDefinition{}, err
	}
	preStop, err := buildHook(name, "pre_stop", hookFromRaw(raw.Hooks, false))
	if err != nil {
		return ImageDefinition{}, err
	}

	def := ImageDefinition{
		Name:        name,
		Image:       raw.Image,
		Category:    raw.Category,
		Description: raw.Description,
		Shell:       raw.Shell,
		KeepAlive:   raw.KeepAlive,
		Privileged:  raw.Privileged,
		Volumes:     volumes,
		Ports:       append([]string(nil), raw.Ports...),
		Environment: raw.Environment,
		PostStart:   postStart,
		PreStop:     preStop,
		MOTD:        raw.MOTD,
	}

	// Defaults baked into the definition so downstream code never consults a
	// path-string lookup with string defaults.
	if def.Shell == "" {
		def.Shell = DefaultShell
	}
	if def.KeepAlive == "" {
		def.KeepAlive = DefaultKeepAlive
	}
	if def.Environment == nil {
		def.Environment = map[string]string{}
	}

	return def, nil
}

func buildVolume(image string, index int, rv rawVolume) (Volume, error) {
	if rv.Target == "" {
		return Volume{}, fmt.Errorf("%w: %s: volume %d: target is required", ErrInvalidDefinition, image, index)
	}

	switch VolumeType(rv.Type) {
	case VolumeNamed:
		if rv.Name == "" {
			return Volume{}, fmt.Errorf("%w: %s: volume %d: named volume requires a name", ErrInvalidDefinition, image, index)
		}
	case VolumeBind, VolumeFile:
		if rv.Source == "" {
			return Volume{}, fmt.Errorf("%w: %s: volume %d: %s volume requires a source", ErrInvalidDefinition, image, index, rv.Type)
		}
	default:
		return Volume{}, fmt.Errorf("%w: %s: volume %d: unknown type %q", ErrInvalidDefinition, image, index, rv.Type)
	}

	return Volume{
		Type:     VolumeType(rv.Type),
		Name:     rv.Name,
		Source:   rv.Source,
		Target:   rv.Target,
		ReadOnly: rv.ReadOnly,
	}, nil
}

func hookFromRaw(hooks *rawHooks, postStart bool) *rawHook {
	if hooks == nil {
		return nil
	}
	if postStart {
		return hooks.PostStart
	}
	return hooks.PreStop
}

// buildHook resolves the inline-vs-file duality exactly once. Declaring both
// forms is a configuration error rather than a silent preference.
func buildHook(image, kind string, raw *rawHook) (Hook, error) {
	if raw == nil {
		return Hook{}, nil
	}

	script := strings.TrimSpace(raw.Script) != ""
	file := strings.TrimSpace(raw.File) != ""

	switch {
	case script && file:
		return Hook{}, fmt.Errorf("%w: %s: %s hook declares both script and file", ErrInvalidDefinition, image, kind)
	case script:
		return Hook{Kind: HookInline, Inline: raw.Script}, nil
	case file:
		return Hook{Kind: HookFile, File: raw.File}, nil
	default:
		return Hook{}, nil
	}
}
