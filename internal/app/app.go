package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/mlstack/launchpad/internal/bridge"
	"github.com/mlstack/launchpad/internal/config"
	"github.com/mlstack/launchpad/internal/console"
	"github.com/mlstack/launchpad/internal/ctxlog"
	"github.com/mlstack/launchpad/internal/download"
	"github.com/mlstack/launchpad/internal/fsutil"
	"github.com/mlstack/launchpad/internal/install"
	"github.com/mlstack/launchpad/internal/launch"
	"github.com/mlstack/launchpad/internal/pyenv"
	"github.com/mlstack/launchpad/internal/registry"
	"github.com/mlstack/launchpad/internal/script"
	"github.com/mlstack/launchpad/internal/state"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry

	broker    *console.Broker
	store     *state.Store
	scripts   *script.Host
	installer *install.Installer
	launcher  *launch.Launcher
	bridge    *bridge.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Critical startup failures (unreadable catalog, manifest/hook mismatch,
// unopenable state store) panic; the caller recovers for a clean exit.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load all manifests into the format-agnostic model first.
	model, err := loader.Load(ctx, appConfig.PackagesPath)
	if err != nil {
		// A failure to load the catalog is a fatal startup error.
		panic(fmt.Errorf("failed to load package catalog: %w", err))
	}
	logger.Debug("Catalog loaded and translated into unified model.")

	// Create and populate the registry with Go hook handlers.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	reg.PopulateDefinitionsFromModel(model)
	logger.Debug("Registry definitions populated from catalog model.")

	if err := reg.ValidateRegistry(ctx); err != nil {
		// A mismatch between manifests and compiled-in hooks is a
		// programmer error, so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	if err := fsutil.EnsureDir(appConfig.DataDir); err != nil {
		panic(err)
	}
	store, err := state.Open(filepath.Join(appConfig.DataDir, "state.db"))
	if err != nil {
		panic(fmt.Errorf("failed to open state store: %w", err))
	}

	broker := console.NewBroker(512)
	scripts := script.NewHost(broker.Writer("script"))

	accelerator := appConfig.Accelerator
	if accelerator == "" {
		accelerator = pyenv.DetectAccelerator()
		logger.Debug("Accelerator detected.", "accelerator", accelerator)
	}

	rt := pyenv.NewRuntime(filepath.Join(appConfig.DataDir, "runtime"), download.New())
	rt.DistURL = appConfig.RuntimeURL

	installer := &install.Installer{
		Registry:    reg,
		Store:       store,
		Runtime:     rt,
		Broker:      broker,
		Scripts:     scripts,
		DataDir:     appConfig.DataDir,
		Accelerator: accelerator,
	}
	launcher := launch.NewLauncher(broker)

	a := &App{
		outW:      outW,
		logger:    logger,
		config:    appConfig,
		registry:  reg,
		broker:    broker,
		store:     store,
		scripts:   scripts,
		installer: installer,
		launcher:  launcher,
	}
	a.bridge = bridge.NewServer(broker, a.statusSnapshot)
	return a
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Store returns the application's state store. This is primarily for testing.
func (a *App) Store() *state.Store {
	return a.store
}

// Close releases the app's resources.
func (a *App) Close() error {
	return a.store.Close()
}

// statusSnapshot assembles the /status response from the state store and the
// launcher's live process table.
func (a *App) statusSnapshot(ctx context.Context) (bridge.StatusSnapshot, error) {
	installed, err := a.store.List(ctx)
	if err != nil {
		return bridge.StatusSnapshot{}, err
	}
	running := a.launcher.Running()

	var snapshot bridge.StatusSnapshot
	for _, pkg := range installed {
		status := bridge.PackageStatus{
			Name:   pkg.Name,
			Status: string(pkg.Status),
		}
		if run, ok := running[pkg.Name]; ok {
			status.Running = true
			status.PID = run.PID()
			status.URL = run.URL()
		}
		snapshot.Packages = append(snapshot.Packages, status)
	}
	return snapshot, nil
}
