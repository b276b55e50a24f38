// Package comfyui provides the Go hooks for the ComfyUI package.
package comfyui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mlstack/launchpad/internal/ctxlog"
	"github.com/mlstack/launchpad/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// WriteExtraPaths is the post_install hook. ComfyUI reads shared model
// locations from extra_model_paths.yaml instead of folder links, so we point
// it at the shared tree directly.
func WriteExtraPaths(ctx context.Context, env *registry.HookEnv) error {
	logger := ctxlog.FromContext(ctx)

	content := fmt.Sprintf(`launchpad:
  base_path: %s
  checkpoints: models/checkpoints
  loras: models/lora
  vae: models/vae
  embeddings: models/embeddings
`, env.SharedDir)

	path := filepath.Join(env.CheckoutDir, "extra_model_paths.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write extra_model_paths.yaml: %w", err)
	}
	logger.Debug("Wrote shared model paths.", "path", path)
	return nil
}

// Register registers the hooks with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHook("ComfyUIWriteExtraPaths", WriteExtraPaths)
}
