package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/manzolo/docker-compose-playground-sub001/lib/catalog"
	"github.com/manzolo/docker-compose-playground-sub001/lib/logger"
	"github.com/manzolo/docker-compose-playground-sub001/lib/paths"
)

// hookRunner executes post_start/pre_stop hooks. Inline scripts are
// materialized to a transient executable file and removed afterwards; file
// scripts run from the scripts directory. Hooks always receive the image
// name as their single argument.
type hookRunner struct {
	paths *paths.Paths
}

func newHookRunner(p *paths.Paths) *hookRunner {
	return &hookRunner{paths: p}
}

// Run executes the hook synchronously and returns its error. Callers treat
// hook failures as warnings; the surrounding lifecycle transition never fails
// because of one.
func (h *hookRunner) Run(ctx context.Context, hook catalog.Hook, imageName string) error {
	switch hook.Kind {
	case catalog.HookNone:
		return nil
	case catalog.HookInline:
		return h.runInline(ctx, hook.Inline, imageName)
	case catalog.HookFile:
		return h.runFile(ctx, hook.File, imageName)
	default:
		return fmt.Errorf("unknown hook kind %d", hook.Kind)
	}
}

func (h *hookRunner) runInline(ctx context.Context, script, imageName string) error {
	dir := h.paths.HookTempDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create hook temp dir: %w", err)
	}

	f, err := os.CreateTemp(dir, "hook-*.sh")
	if err != nil {
		return fmt.Errorf("create hook script: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(script); err != nil {
		f.Close()
		return fmt.Errorf("write hook script: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close hook script: %w", err)
	}
	if err := os.Chmod(path, 0o700); err != nil {
		return fmt.Errorf("chmod hook script: %w", err)
	}

	return h.execScript(ctx, path, imageName)
}

func (h *hookRunner) runFile(ctx context.Context, file, imageName string) error {
	// Scripts must stay inside the scripts directory even when the catalog
	// names something like "../x".
	path, err := securejoin.SecureJoin(h.paths.ScriptsDir, file)
	if err != nil {
		return fmt.Errorf("resolve hook script %s: %w", file, err)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("hook script %s: %w", file, err)
	}

	return h.execScript(ctx, path, imageName)
}

func (h *hookRunner) execScript(ctx context.Context, path, imageName string) error {
	log := logger.FromContextWith(ctx, logger.SubsystemLifecycle)
	log.DebugContext(ctx, "running hook", "script", path, "image", imageName)

	cmd := exec.CommandContext(ctx, path, imageName)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("hook %s: %w: %s", path, err, truncateOutput(output))
	}
	return nil
}

func truncateOutput(output []byte) string {
	s := strings.TrimSpace(string(output))
	const limit = 512
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
