package catalog

import (
	"sort"
)

// Defaults applied when a field is absent (or explicitly null) in every layer.
const (
	DefaultShell     = "/bin/bash"
	DefaultKeepAlive = "tail -f /dev/null"
)

// VolumeType discriminates the three volume resolution paths.
type VolumeType string

const (
	VolumeNamed VolumeType = "named" // docker named volume
	VolumeBind  VolumeType = "bind"  // host directory bind mount
	VolumeFile  VolumeType = "file"  // single host file bind mount
)

// Volume is one declared mount of an image definition.
type Volume struct {
	Type VolumeType
	// Name is the volume name for VolumeNamed.
	Name string
	// Source is the host path for VolumeBind/VolumeFile. Relative paths are
	// resolved against the project root at generation time.
	Source string
	// Target is the path inside the container.
	Target string
	// ReadOnly mounts the volume read-only.
	ReadOnly bool
}

// HookKind tags the hook variant.
type HookKind int

const (
	HookNone HookKind = iota
	HookInline
	HookFile
)

// Hook is a lifecycle script resolved once when the definition is built, so
// downstream code never re-implements the inline-vs-file branch.
type Hook struct {
	Kind HookKind
	// Inline is the script body for HookInline.
	Inline string
	// File is the script path, relative to the scripts directory, for HookFile.
	File string
}

// IsZero reports whether no hook was declared.
func (h Hook) IsZero() bool { return h.Kind == HookNone }

// ImageDefinition is a named, resolved description of one manageable
// container. It is materialized once per resolution pass and immutable
// thereafter.
type ImageDefinition struct {
	Name        string
	Image       string // normalized reference
	Category    string
	Description string
	Shell       string
	KeepAlive   string
	Privileged  bool
	Volumes     []Volume
	Ports       []string // host:container[/proto] specs, validated at resolve time
	Environment map[string]string
	PostStart   Hook
	PreStop     Hook
	MOTD        string
}

// Group is a named, ordered set of image names managed as one unit.
type Group struct {
	Name   string
	Images []string
}

// Catalog is the effective mapping produced by one resolution pass. It is
// read-only; re-resolution produces a fresh value.
type Catalog struct {
	images map[string]ImageDefinition
	groups map[string]Group
}

// New builds a catalog from already-resolved definitions and groups. The
// resolver is the usual producer; this constructor exists for callers that
// assemble catalogs programmatically.
func New(images []ImageDefinition, groups []Group) *Catalog {
	c := &Catalog{
		images: make(map[string]ImageDefinition, len(images)),
		groups: make(map[string]Group, len(groups)),
	}
	for _, def := range images {
		c.images[def.Name] = def
	}
	for _, g := range groups {
		c.groups[g.Name] = g
	}
	return c
}

// Image returns the definition for name.
func (c *Catalog) Image(name string) (ImageDefinition, bool) {
	def, ok := c.images[name]
	return def, ok
}

// Images returns all definitions sorted by name.
func (c *Catalog) Images() []ImageDefinition {
	names := make([]string, 0, len(c.images))
	for name := range c.images {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]ImageDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, c.images[name])
	}
	return defs
}

// ImageNames returns all image names sorted.
func (c *Catalog) ImageNames() []string {
	names := make([]string, 0, len(c.images))
	for name := range c.images {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Group returns the group for name.
func (c *Catalog) Group(name string) (Group, bool) {
	g, ok := c.groups[name]
	return g, ok
}

// Groups returns all groups sorted by name.
func (c *Catalog) Groups() []Group {
	names := make([]string, 0, len(c.groups))
	for name := range c.groups {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]Group, 0, len(names))
	for _, name := range names {
		groups = append(groups, c.groups[name])
	}
	return groups
}

// Len returns the number of image definitions.
func (c *Catalog) Len() int { return len(c.images) }
