package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manzolo/docker-compose-playground-sub001/lib/catalog"
	"github.com/manzolo/docker-compose-playground-sub001/lib/paths"
)

func newTestHookRunner(t *testing.T) (*hookRunner, *paths.Paths) {
	t.Helper()
	dir := t.TempDir()
	p := paths.New(dir,
		filepath.Join(dir, "images.yml"),
		filepath.Join(dir, "images.d"),
		filepath.Join(dir, "scripts"),
		filepath.Join(dir, "shared"),
	)
	require.NoError(t, os.MkdirAll(p.ScriptsDir, 0o755))
	return newHookRunner(p), p
}

func TestHookRun_None(t *testing.T) {
	h, _ := newTestHookRunner(t)
	assert.NoError(t, h.Run(context.Background(), catalog.Hook{}, "ubuntu"))
}

func TestHookRun_InlineReceivesImageName(t *testing.T) {
	h, p := newTestHookRunner(t)
	marker := filepath.Join(p.DataDir, "marker")

	hook := catalog.Hook{
		Kind:   catalog.HookInline,
		Inline: "#!/bin/sh\necho \"$1\" > " + marker + "\n",
	}
	require.NoError(t, h.Run(context.Background(), hook, "ubuntu"))

	content, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "ubuntu\n", string(content))
}

func TestHookRun_InlineScriptRemovedAfterRun(t *testing.T) {
	h, p := newTestHookRunner(t)

	hook := catalog.Hook{Kind: catalog.HookInline, Inline: "#!/bin/sh\ntrue\n"}
	require.NoError(t, h.Run(context.Background(), hook, "ubuntu"))

	entries, err := os.ReadDir(p.HookTempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHookRun_InlineFailureIncludesOutput(t *testing.T) {
	h, _ := newTestHookRunner(t)

	hook := catalog.Hook{Kind: catalog.HookInline, Inline: "#!/bin/sh\necho boom >&2\nexit 3\n"}
	err := h.Run(context.Background(), hook, "ubuntu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestHookRun_File(t *testing.T) {
	h, p := newTestHookRunner(t)
	script := filepath.Join(p.ScriptsDir, "init.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	hook := catalog.Hook{Kind: catalog.HookFile, File: "init.sh"}
	assert.NoError(t, h.Run(context.Background(), hook, "ubuntu"))
}

func TestHookRun_FileMissing(t *testing.T) {
	h, _ := newTestHookRunner(t)

	hook := catalog.Hook{Kind: catalog.HookFile, File: "absent.sh"}
	assert.Error(t, h.Run(context.Background(), hook, "ubuntu"))
}

func TestHookRun_FileEscapeContained(t *testing.T) {
	h, p := newTestHookRunner(t)

	// A traversal path resolves inside the scripts dir, where nothing exists.
	outside := filepath.Join(p.DataDir, "outside.sh")
	require.NoError(t, os.WriteFile(outside, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	hook := catalog.Hook{Kind: catalog.HookFile, File: "../outside.sh"}
	assert.Error(t, h.Run(context.Background(), hook, "ubuntu"))
}
