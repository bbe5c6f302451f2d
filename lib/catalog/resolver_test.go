package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manzolo/docker-compose-playground-sub001/lib/paths"
)

// newTestResolver builds a resolver over a temp base catalog and overlay dir.
func newTestResolver(t *testing.T, base string, overlays map[string]string) *Resolver {
	t.Helper()
	dir := t.TempDir()

	catalogFile := filepath.Join(dir, "images.yml")
	require.NoError(t, os.WriteFile(catalogFile, []byte(base), 0o644))

	overlayDir := filepath.Join(dir, "images.d")
	require.NoError(t, os.MkdirAll(overlayDir, 0o755))
	for name, content := range overlays {
		require.NoError(t, os.WriteFile(filepath.Join(overlayDir, name), []byte(content), 0o644))
	}

	p := paths.New(dir, catalogFile, overlayDir, filepath.Join(dir, "scripts"), filepath.Join(dir, "shared"))
	return NewResolver(p)
}

func TestResolve_Defaults(t *testing.T) {
	r := newTestResolver(t, `
images:
  ubuntu:
    image: ubuntu:24.04
`, nil)

	cat, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())

	def, ok := cat.Image("ubuntu")
	require.True(t, ok)
	assert.Equal(t, "ubuntu:24.04", def.Image)
	assert.Equal(t, DefaultShell, def.Shell)
	assert.Equal(t, DefaultKeepAlive, def.KeepAlive)
	assert.False(t, def.Privileged)
	assert.Empty(t, def.Volumes)
	assert.NotNil(t, def.Environment)
	assert.True(t, def.PostStart.IsZero())
	assert.True(t, def.PreStop.IsZero())
}

func TestResolve_FieldLevelMerge(t *testing.T) {
	r := newTestResolver(t, `
images:
  postgres:
    image: postgres:16
    category: database
    shell: /bin/sh
    environment:
      POSTGRES_PASSWORD: secret
`, map[string]string{
		"10-site.yml": `
images:
  postgres:
    category: storage
`,
	})

	cat, err := r.Resolve(context.Background())
	require.NoError(t, err)

	def, ok := cat.Image("postgres")
	require.True(t, ok)
	// Overridden field takes the overlay's value.
	assert.Equal(t, "storage", def.Category)
	// Untouched fields keep the base layer's values.
	assert.Equal(t, "postgres:16", def.Image)
	assert.Equal(t, "/bin/sh", def.Shell)
	assert.Equal(t, map[string]string{"POSTGRES_PASSWORD": "secret"}, def.Environment)
}

func TestResolve_OverlayAddsImage(t *testing.T) {
	r := newTestResolver(t, `
images:
  ubuntu:
    image: ubuntu:24.04
`, map[string]string{
		"20-extra.yml": `
images:
  redis:
    image: redis:7
    category: cache
`,
	})

	cat, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"redis", "ubuntu"}, cat.ImageNames())
}

func TestResolve_LexicalOverlayOrder(t *testing.T) {
	r := newTestResolver(t, `
images:
  app:
    image: alpine:3.20
    category: base
`, map[string]string{
		"20-later.yml": `
images:
  app:
    category: last
`,
		"10-earlier.yml": `
images:
  app:
    category: middle
`,
	})

	cat, err := r.Resolve(context.Background())
	require.NoError(t, err)

	def, _ := cat.Image("app")
	assert.Equal(t, "last", def.Category)
}

func TestResolve_GroupReplacedByOverlay(t *testing.T) {
	r := newTestResolver(t, `
images:
  a:
    image: alpine:3.20
  b:
    image: busybox:1.36
group:
  name: web
  images: [a, b]
`, map[string]string{
		"10-web.yml": `
images: {}
group:
  name: web
  images: [a]
`,
	})

	cat, err := r.Resolve(context.Background())
	require.NoError(t, err)

	g, ok := cat.Group("web")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, g.Images)
}

func TestResolve_DistinctGroupsAccumulate(t *testing.T) {
	r := newTestResolver(t, `
images:
  a:
    image: alpine:3.20
group:
  name: web
  images: [a]
`, map[string]string{
		"10-db.yml": `
images: {}
group:
  name: db
  images: [a]
`,
	})

	cat, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Len(t, cat.Groups(), 2)
}

func TestResolve_InvalidSources(t *testing.T) {
	tests := []struct {
		name string
		base string
	}{
		{name: "malformed yaml", base: "images: [\n"},
		{name: "missing images map", base: "group:\n  name: web\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, tt.base, nil)
			_, err := r.Resolve(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSource)
		})
	}
}

func TestResolve_InvalidOverlayFailsWholePass(t *testing.T) {
	r := newTestResolver(t, `
images:
  ubuntu:
    image: ubuntu:24.04
`, map[string]string{
		"10-bad.yml": "images: [\n",
	})

	_, err := r.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestResolve_InvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		base string
	}{
		{
			name: "missing image ref",
			base: "images:\n  app:\n    category: base\n",
		},
		{
			name: "bad image ref",
			base: "images:\n  app:\n    image: \"UPPER CASE bad ref\"\n",
		},
		{
			name: "bad port spec",
			base: "images:\n  app:\n    image: alpine:3.20\n    ports: [\"not-a-port\"]\n",
		},
		{
			name: "hook declares both forms",
			base: "images:\n  app:\n    image: alpine:3.20\n    hooks:\n      post_start:\n        script: echo hi\n        file: init.sh\n",
		},
		{
			name: "unknown volume type",
			base: "images:\n  app:\n    image: alpine:3.20\n    volumes:\n      - type: tmpfs\n        target: /data\n",
		},
		{
			name: "named volume without name",
			base: "images:\n  app:\n    image: alpine:3.20\n    volumes:\n      - type: named\n        target: /data\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, tt.base, nil)
			_, err := r.Resolve(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestResolve_Hooks(t *testing.T) {
	r := newTestResolver(t, `
images:
  app:
    image: alpine:3.20
    hooks:
      post_start:
        script: |
          echo ready
      pre_stop:
        file: drain.sh
`, nil)

	cat, err := r.Resolve(context.Background())
	require.NoError(t, err)

	def, _ := cat.Image("app")
	assert.Equal(t, HookInline, def.PostStart.Kind)
	assert.Contains(t, def.PostStart.Inline, "echo ready")
	assert.Equal(t, HookFile, def.PreStop.Kind)
	assert.Equal(t, "drain.sh", def.PreStop.File)
}

func TestResolve_MissingOverlayDirIsOptional(t *testing.T) {
	dir := t.TempDir()
	catalogFile := filepath.Join(dir, "images.yml")
	require.NoError(t, os.WriteFile(catalogFile, []byte("images:\n  a:\n    image: alpine:3.20\n"), 0o644))

	p := paths.New(dir, catalogFile, filepath.Join(dir, "does-not-exist"), "", "")
	cat, err := NewResolver(p).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
}

func TestResolve_MissingBaseCatalogFails(t *testing.T) {
	dir := t.TempDir()
	p := paths.New(dir, filepath.Join(dir, "absent.yml"), "", "", "")
	_, err := NewResolver(p).Resolve(context.Background())
	assert.Error(t, err)
}
