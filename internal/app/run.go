package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mlstack/launchpad/internal/ctxlog"
	"github.com/mlstack/launchpad/internal/pyenv"
	"github.com/mlstack/launchpad/internal/state"
)

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	var err error
	switch a.config.Command {
	case CommandList:
		err = a.runList(ctx)
	case CommandStatus:
		err = a.runStatus(ctx)
	case CommandInstall:
		a.startBridge(ctx)
		err = a.installer.InstallAll(ctx, a.config.Packages, a.config.WorkerCount)
	case CommandUpdate:
		a.startBridge(ctx)
		for _, name := range a.config.Packages {
			if err = a.installer.Update(ctx, name); err != nil {
				break
			}
		}
	case CommandUninstall:
		for _, name := range a.config.Packages {
			if err = a.installer.Uninstall(ctx, name); err != nil {
				break
			}
		}
	case CommandLaunch:
		err = a.runLaunch(ctx)
	default:
		err = fmt.Errorf("unknown command %q", a.config.Command)
	}

	if shutdownErr := a.bridge.Shutdown(ctx); shutdownErr != nil {
		a.logger.Error("Console bridge shutdown failed", "error", shutdownErr)
	}
	a.logger.Debug("App.Run method finished.")
	return err
}

// startBridge starts the console bridge when a port is configured.
func (a *App) startBridge(ctx context.Context) {
	if a.config.BridgePort > 0 {
		a.bridge.Start(ctx, a.config.BridgePort)
	}
}

// runList prints the catalog, marking which packages are installed.
func (a *App) runList(ctx context.Context) error {
	installed := make(map[string]state.InstalledPackage)
	rows, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		installed[row.Name] = row
	}

	defs := a.registry.Definitions()
	if len(defs) == 0 {
		fmt.Fprintln(a.outW, "No packages found in catalog.")
		return nil
	}

	for _, def := range defs {
		mark := " "
		if row, ok := installed[def.Name]; ok && row.Status == state.StatusInstalled {
			mark = "*"
		}
		fmt.Fprintf(a.outW, "%s %-16s %s\n", mark, def.Name, def.DisplayName)
	}
	return nil
}

// runStatus prints the install-state rows.
func (a *App) runStatus(ctx context.Context) error {
	rows, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.outW, "No packages installed.")
		return nil
	}
	for _, row := range rows {
		launched := "never"
		if !row.LastLaunchedAt.IsZero() {
			launched = row.LastLaunchedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(a.outW, "%-16s %-10s ref=%s last_launched=%s\n", row.Name, row.Status, row.Ref, launched)
	}
	return nil
}

// runLaunch starts one installed package and blocks until it exits or the
// user interrupts.
func (a *App) runLaunch(ctx context.Context) error {
	name := a.config.Packages[0]

	def := a.registry.Definition(name)
	if def == nil {
		return fmt.Errorf("unknown package '%s'", name)
	}
	row, ok, err := a.store.Get(ctx, name)
	if err != nil {
		return err
	}
	if !ok || row.Status != state.StatusInstalled {
		return fmt.Errorf("package '%s' is not installed; run install first", name)
	}

	if def.Hooks != nil && def.Hooks.PreLaunch != "" {
		if err := a.installer.RunHook(ctx, def, def.Hooks.PreLaunch); err != nil {
			return fmt.Errorf("pre_launch hook failed: %w", err)
		}
	}

	if err := a.store.TouchLaunched(ctx, name, time.Now()); err != nil {
		return err
	}

	a.startBridge(ctx)

	// Ctrl-C requests a graceful stop of the child, not an abort.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	venv := pyenv.NewVenv(row.VenvDir, "")
	return a.launcher.Launch(ctx, def, row.CheckoutDir, venv.Python(), a.config.ExtraArgs)
}
