package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mlstack/launchpad/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const usageText = `
Launchpad - a package manager and launcher for ML web UI applications.

Usage:
  launchpad <command> [options] [PACKAGE ...] [-- EXTRA_ARGS]

Commands:
  list        Show the package catalog and what is installed.
  install     Install one or more packages.
  update      Update installed packages.
  uninstall   Remove installed packages.
  launch      Start an installed package (extra args after -- go to it).
  status      Show install state.

Options:
`

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	cfg, err := app.DefaultConfig()
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if len(args) == 0 {
		printUsage(output, cfg)
		return nil, true, nil
	}

	command := args[0]
	rest := args[1:]
	if command == "help" || command == "-h" || command == "--help" {
		printUsage(output, cfg)
		return nil, true, nil
	}

	// Everything after a bare "--" is passed through to the launched package.
	var extraArgs []string
	for i, arg := range rest {
		if arg == "--" {
			extraArgs = rest[i+1:]
			rest = rest[:i]
			break
		}
	}

	flagSet := newFlagSet(&cfg, output)
	if err := flagSet.Parse(rest); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.", "command", command)

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	cfg.Command = command
	cfg.Packages = flagSet.Args()
	cfg.ExtraArgs = extraArgs

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// newFlagSet binds the shared option flags to the given config. Flag defaults
// come from the config itself, so environment overrides survive unless a flag
// is set explicitly.
func newFlagSet(cfg *app.Config, output io.Writer) *flag.FlagSet {
	flagSet := flag.NewFlagSet("launchpad", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() { printUsage(output, *cfg) }

	flagSet.StringVar(&cfg.PackagesPath, "packages-path", cfg.PackagesPath, "Path to the directory containing package manifests.")
	flagSet.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for checkouts, venvs, the shared runtime and state.")
	flagSet.IntVar(&cfg.BridgePort, "bridge-port", cfg.BridgePort, "Port for the console bridge HTTP server. 0 is disabled.")
	flagSet.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log output format. Options: 'text' or 'json'.")
	flagSet.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.IntVar(&cfg.WorkerCount, "workers", cfg.WorkerCount, "Number of concurrent package installs.")
	flagSet.StringVar(&cfg.Accelerator, "accelerator", cfg.Accelerator, "Torch accelerator: 'cuda', 'rocm' or 'cpu'. Auto-detected when empty.")

	return flagSet
}

func printUsage(output io.Writer, cfg app.Config) {
	fmt.Fprint(output, usageText)
	newFlagSet(&cfg, output).PrintDefaults()
}
