package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mlstack/launchpad/internal/config"
	"github.com/mlstack/launchpad/internal/console"
	"github.com/mlstack/launchpad/internal/ctxlog"
	"github.com/mlstack/launchpad/internal/registry"
	"github.com/mlstack/launchpad/internal/script"
	"github.com/mlstack/launchpad/internal/state"

	"github.com/mlstack/launchpad/internal/pyenv"
)

// Installer executes install plans for packages.
type Installer struct {
	Registry    *registry.Registry
	Store       *state.Store
	Runtime     *pyenv.Runtime
	Broker      *console.Broker
	Scripts     *script.Host
	DataDir     string
	Accelerator string
}

// CheckoutDir is where a package's source lives.
func (i *Installer) CheckoutDir(name string) string {
	return filepath.Join(i.DataDir, "packages", name)
}

// VenvDir is where a package's virtual environment lives.
func (i *Installer) VenvDir(name string) string {
	return filepath.Join(i.DataDir, "venvs", name)
}

// SharedDir is the root of the shared models tree.
func (i *Installer) SharedDir() string {
	return filepath.Join(i.DataDir, "shared")
}

// Install executes the full install plan for one package and records the
// result in the state store.
func (i *Installer) Install(ctx context.Context, name string) error {
	def := i.Registry.Definition(name)
	if def == nil {
		return fmt.Errorf("unknown package '%s'", name)
	}

	logger := ctxlog.FromContext(ctx).With("package", name)
	out := i.Broker.Writer(name)
	defer out.Flush()

	row := state.InstalledPackage{
		Name:        name,
		Ref:         def.Source.Ref,
		CheckoutDir: i.CheckoutDir(name),
		VenvDir:     i.VenvDir(name),
		Status:      state.StatusInstalling,
		InstalledAt: time.Now(),
	}
	if err := i.Store.Put(ctx, row); err != nil {
		return err
	}

	plan := i.buildPlan(def, out)
	logger.Info("🔧 Installing package.", "steps", len(plan))

	for _, step := range plan {
		logger.Info("Step starting.", "step", step.Name)
		if err := step.Run(ctx); err != nil {
			_ = i.Store.SetStatus(ctx, name, state.StatusFailed)
			return fmt.Errorf("package '%s', step '%s': %w", name, step.Name, err)
		}
		logger.Debug("Step finished.", "step", step.Name)
	}

	if err := i.Store.SetStatus(ctx, name, state.StatusInstalled); err != nil {
		return err
	}
	logger.Info("✅ Package installed.")
	return nil
}

// InstallAll installs several packages on a bounded worker pool. Each
// package's failure is isolated; the joined error reports all failures.
func (i *Installer) InstallAll(ctx context.Context, names []string, workers int) error {
	if workers <= 0 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	errs := make([]error, len(names))
	var wg sync.WaitGroup

	for idx, name := range names {
		wg.Add(1)
		go func(idx int, name string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				errs[idx] = ctx.Err()
				return
			}
			errs[idx] = i.Install(ctx, name)
		}(idx, name)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Update refreshes an installed package: newer source, reinstalled
// requirements, rerun hooks. The plan is the same as install; every step is
// already idempotent for an existing checkout.
func (i *Installer) Update(ctx context.Context, name string) error {
	if _, ok, err := i.installed(ctx, name); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("package '%s' is not installed", name)
	}
	return i.Install(ctx, name)
}

// Uninstall removes a package's checkout, venv and state row. The shared
// models tree and the shared runtime are never touched.
func (i *Installer) Uninstall(ctx context.Context, name string) error {
	if _, ok, err := i.installed(ctx, name); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("package '%s' is not installed", name)
	}

	logger := ctxlog.FromContext(ctx).With("package", name)
	if err := os.RemoveAll(i.CheckoutDir(name)); err != nil {
		return fmt.Errorf("failed to remove checkout: %w", err)
	}
	if err := os.RemoveAll(i.VenvDir(name)); err != nil {
		return fmt.Errorf("failed to remove venv: %w", err)
	}
	if err := i.Store.Delete(ctx, name); err != nil {
		return err
	}
	logger.Info("🗑️  Package uninstalled.")
	return nil
}

func (i *Installer) installed(ctx context.Context, name string) (state.InstalledPackage, bool, error) {
	return i.Store.Get(ctx, name)
}

// RunHook executes a lifecycle hook reference for a package: either a Go
// handler registered by the package's module, or a Lua script relative to
// the manifest dir.
func (i *Installer) RunHook(ctx context.Context, def *config.PackageDefinition, ref string) error {
	return i.runHook(ctx, def, ref)
}

func (i *Installer) runHook(ctx context.Context, def *config.PackageDefinition, ref string) error {
	logger := ctxlog.FromContext(ctx).With("package", def.Name, "hook", ref)

	env := &registry.HookEnv{
		Package:     def,
		CheckoutDir: i.CheckoutDir(def.Name),
		VenvDir:     i.VenvDir(def.Name),
		SharedDir:   i.SharedDir(),
	}

	if registry.IsScriptHook(ref) {
		logger.Debug("Running script hook.")
		// Set and run under one host lock: parallel installs must not see
		// each other's pkg table.
		return i.Scripts.RunFileWithGlobals(ctx, filepath.Join(def.ManifestDir, ref), "pkg", map[string]string{
			"name":         def.Name,
			"checkout_dir": env.CheckoutDir,
			"venv_dir":     env.VenvDir,
			"shared_dir":   env.SharedDir,
		})
	}

	hook := i.Registry.Hook(ref)
	if hook == nil {
		// ValidateRegistry catches this at startup; reaching it here means
		// the registry was bypassed.
		return fmt.Errorf("hook '%s' is not registered", ref)
	}
	logger.Debug("Running Go hook.")
	return hook(ctx, env)
}
