package compose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manzolo/docker-compose-playground-sub001/lib/catalog"
	"github.com/manzolo/docker-compose-playground-sub001/lib/paths"
)

func newTestGenerator(t *testing.T) (*Generator, *paths.Paths) {
	t.Helper()
	dir := t.TempDir()
	p := paths.New(dir,
		filepath.Join(dir, "images.yml"),
		filepath.Join(dir, "images.d"),
		filepath.Join(dir, "scripts"),
		filepath.Join(dir, "shared"),
	)
	return NewGenerator(p, "playground-network"), p
}

func def(name, image string, volumes ...catalog.Volume) catalog.ImageDefinition {
	return catalog.ImageDefinition{
		Name:      name,
		Image:     image,
		KeepAlive: catalog.DefaultKeepAlive,
		Volumes:   volumes,
	}
}

func TestGenerate_Service(t *testing.T) {
	g, p := newTestGenerator(t)

	spec, err := g.Generate([]catalog.ImageDefinition{def("ubuntu", "ubuntu:24.04")})
	require.NoError(t, err)

	svc, ok := spec.Services["ubuntu"]
	require.True(t, ok)
	assert.Equal(t, "ubuntu:24.04", svc.Image)
	assert.Equal(t, "playground-ubuntu", svc.ContainerName)
	assert.Equal(t, catalog.DefaultKeepAlive, svc.Command)
	assert.Equal(t, "true", svc.Labels[ManagedLabel])
	assert.Equal(t, "ubuntu", svc.Labels[ImageLabel])
	assert.Equal(t, []string{"playground-network"}, svc.Networks)

	// The shared mount is always first.
	require.NotEmpty(t, svc.Volumes)
	assert.Equal(t, p.SharedDir+":"+SharedMountTarget, svc.Volumes[0])

	// The shared directory was provisioned.
	info, err := os.Stat(p.SharedDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestGenerate_NamedVolumesDeduplicated(t *testing.T) {
	g, _ := newTestGenerator(t)

	vol := catalog.Volume{Type: catalog.VolumeNamed, Name: "pgdata", Target: "/var/lib/postgresql/data"}
	spec, err := g.Generate([]catalog.ImageDefinition{
		def("pg-primary", "postgres:16", vol),
		def("pg-replica", "postgres:16", vol),
	})
	require.NoError(t, err)

	require.Len(t, spec.Volumes, 1)
	decl, ok := spec.Volumes["pgdata"]
	require.True(t, ok)
	assert.Equal(t, "true", decl.Labels[ManagedLabel])
}

func TestGenerate_BindVolumeProvisioned(t *testing.T) {
	g, p := newTestGenerator(t)

	spec, err := g.Generate([]catalog.ImageDefinition{
		def("app", "alpine:3.20", catalog.Volume{Type: catalog.VolumeBind, Source: "data/app", Target: "/data", ReadOnly: true}),
	})
	require.NoError(t, err)

	hostPath := filepath.Join(p.ProjectRoot(), "data", "app")
	info, err := os.Stat(hostPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	svc := spec.Services["app"]
	assert.Contains(t, svc.Volumes, hostPath+":/data:ro")
}

func TestGenerate_FileVolumeNeverTruncates(t *testing.T) {
	g, p := newTestGenerator(t)

	source := filepath.Join(p.ProjectRoot(), "conf", "app.conf")
	require.NoError(t, os.MkdirAll(filepath.Dir(source), 0o755))
	require.NoError(t, os.WriteFile(source, []byte("keep me"), 0o644))

	_, err := g.Generate([]catalog.ImageDefinition{
		def("app", "alpine:3.20", catalog.Volume{Type: catalog.VolumeFile, Source: "conf/app.conf", Target: "/etc/app.conf"}),
	})
	require.NoError(t, err)

	content, err := os.ReadFile(source)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(content))
}

func TestGenerate_FileVolumeCreatedWhenAbsent(t *testing.T) {
	g, p := newTestGenerator(t)

	_, err := g.Generate([]catalog.ImageDefinition{
		def("app", "alpine:3.20", catalog.Volume{Type: catalog.VolumeFile, Source: "conf/fresh.conf", Target: "/etc/fresh.conf"}),
	})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(p.ProjectRoot(), "conf", "fresh.conf"))
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestGenerate_AbsoluteSourceKept(t *testing.T) {
	g, _ := newTestGenerator(t)
	host := t.TempDir()

	spec, err := g.Generate([]catalog.ImageDefinition{
		def("app", "alpine:3.20", catalog.Volume{Type: catalog.VolumeBind, Source: host, Target: "/mnt"}),
	})
	require.NoError(t, err)

	assert.Contains(t, spec.Services["app"].Volumes, host+":/mnt")
}

func TestSpec_DeterministicYAML(t *testing.T) {
	g, _ := newTestGenerator(t)

	defs := []catalog.ImageDefinition{
		def("b", "busybox:1.36"),
		def("a", "alpine:3.20"),
	}

	first, err := g.Generate(defs)
	require.NoError(t, err)
	second, err := g.Generate([]catalog.ImageDefinition{defs[1], defs[0]})
	require.NoError(t, err)

	firstYAML, err := first.YAML()
	require.NoError(t, err)
	secondYAML, err := second.YAML()
	require.NoError(t, err)

	assert.Equal(t, string(firstYAML), string(secondYAML))
}
