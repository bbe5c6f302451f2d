package paths

import "path/filepath"

// Paths centralizes filesystem layout derivations so path logic lives in one
// place instead of being rebuilt ad hoc by every package.
type Paths struct {
	// DataDir is the daemon's working directory (transient state, temp hooks).
	DataDir string
	// CatalogFile is the base catalog YAML file.
	CatalogFile string
	// OverlayDir holds overlay catalog files applied on top of the base.
	OverlayDir string
	// ScriptsDir holds file-based hook scripts.
	ScriptsDir string
	// SharedDir is the host directory mounted into every managed container.
	SharedDir string
}

// New creates a Paths rooted at the given locations.
func New(dataDir, catalogFile, overlayDir, scriptsDir, sharedDir string) *Paths {
	return &Paths{
		DataDir:     dataDir,
		CatalogFile: catalogFile,
		OverlayDir:  overlayDir,
		ScriptsDir:  scriptsDir,
		SharedDir:   sharedDir,
	}
}

// HookTempDir is where inline hook scripts are materialized before execution.
func (p *Paths) HookTempDir() string {
	return filepath.Join(p.DataDir, "hooks")
}

// ProjectRoot is the directory relative bind/file volume sources resolve
// against. It is the directory containing the base catalog.
func (p *Paths) ProjectRoot() string {
	return filepath.Dir(p.CatalogFile)
}
