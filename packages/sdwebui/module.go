// Package sdwebui provides the Go hooks for the Stable Diffusion WebUI
// package.
package sdwebui

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mlstack/launchpad/internal/ctxlog"
	"github.com/mlstack/launchpad/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Prepare is the pre_launch hook. The web UI assumes its output directories
// exist and writes nothing useful when they don't.
func Prepare(ctx context.Context, env *registry.HookEnv) error {
	logger := ctxlog.FromContext(ctx)
	for _, dir := range []string{"outputs", "log"} {
		path := filepath.Join(env.CheckoutDir, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return err
		}
		logger.Debug("Ensured output directory.", "path", path)
	}
	return nil
}

// Register registers the hooks with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHook("SDWebUIPrepare", Prepare)
}
