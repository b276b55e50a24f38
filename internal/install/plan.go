package install

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mlstack/launchpad/internal/config"
	"github.com/mlstack/launchpad/internal/console"
	"github.com/mlstack/launchpad/internal/ctxlog"
	"github.com/mlstack/launchpad/internal/fsutil"
	"github.com/mlstack/launchpad/internal/pyenv"
)

// Step is one unit of an install plan. Steps run strictly in order; the
// first failure aborts the plan.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// buildPlan produces the ordered steps that take a package from its
// declarative definition to an installed state.
func (i *Installer) buildPlan(def *config.PackageDefinition, out *console.LineWriter) []Step {
	checkout := i.CheckoutDir(def.Name)
	venv := pyenv.NewVenv(i.VenvDir(def.Name), i.Runtime.Python())

	steps := []Step{
		{
			Name: "ensure-runtime",
			Run: func(ctx context.Context) error {
				_, err := i.Runtime.Ensure(ctx, out)
				return err
			},
		},
		{
			Name: "fetch-source",
			Run: func(ctx context.Context) error {
				return fetchSource(ctx, out, def.Source, checkout)
			},
		},
		{
			Name: "create-venv",
			Run: func(ctx context.Context) error {
				return venv.Create(ctx, out)
			},
		},
	}

	if def.Install != nil && len(def.Install.TorchIndex) > 0 {
		steps = append(steps, Step{
			Name: "install-torch",
			Run: func(ctx context.Context) error {
				index, ok := def.Install.TorchIndex[i.Accelerator]
				if !ok {
					// No index for this accelerator: fall back to PyPI.
					return venv.Pip(ctx, out, "install", "torch", "torchvision")
				}
				return venv.Pip(ctx, out, "install", "torch", "torchvision", "--index-url", index)
			},
		})
	}

	if def.Install != nil && def.Install.Requirements != "" {
		steps = append(steps, Step{
			Name: "install-requirements",
			Run: func(ctx context.Context) error {
				req := filepath.Join(checkout, def.Install.Requirements)
				return venv.Pip(ctx, out, "install", "-r", req)
			},
		})
	}

	if def.Install != nil && len(def.Install.ExtraPackages) > 0 {
		steps = append(steps, Step{
			Name: "install-extra-packages",
			Run: func(ctx context.Context) error {
				args := append([]string{"install"}, def.Install.ExtraPackages...)
				return venv.Pip(ctx, out, args...)
			},
		})
	}

	if len(def.Folders) > 0 {
		steps = append(steps, Step{
			Name: "map-folders",
			Run: func(ctx context.Context) error {
				return i.mapFolders(ctx, def, checkout)
			},
		})
	}

	if def.Hooks != nil && def.Hooks.PostInstall != "" {
		steps = append(steps, Step{
			Name: "post-install-hook",
			Run: func(ctx context.Context) error {
				return i.runHook(ctx, def, def.Hooks.PostInstall)
			},
		})
	}

	return steps
}

// mapFolders links each mapped package folder to its shared location, so
// large model files are stored once under the shared tree.
func (i *Installer) mapFolders(ctx context.Context, def *config.PackageDefinition, checkout string) error {
	logger := ctxlog.FromContext(ctx)
	for _, m := range def.Folders {
		target := filepath.Join(i.SharedDir(), m.SharedPath)
		linkPath := filepath.Join(checkout, m.PackagePath)
		linked, err := fsutil.LinkDir(target, linkPath)
		if err != nil {
			return fmt.Errorf("failed to map folder %s: %w", m.PackagePath, err)
		}
		if !linked {
			logger.Warn("Folder mapping skipped: package directory already exists.", "package", def.Name, "path", m.PackagePath)
		}
	}
	return nil
}
