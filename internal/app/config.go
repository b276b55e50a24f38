package app

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Commands understood by Run.
const (
	CommandList      = "list"
	CommandStatus    = "status"
	CommandInstall   = "install"
	CommandUpdate    = "update"
	CommandUninstall = "uninstall"
	CommandLaunch    = "launch"
)

// Config holds all the necessary configuration for an App instance to run.
// Fields with env tags can be set through LAUNCHPAD_-prefixed environment
// variables; command line flags take precedence.
type Config struct {
	Command   string
	Packages  []string
	ExtraArgs []string

	PackagesPath string `env:"PACKAGES_PATH" envDefault:"packages"`
	DataDir      string `env:"DATA_DIR" envDefault:".launchpad"`
	BridgePort   int    `env:"BRIDGE_PORT" envDefault:"0"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"text"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	WorkerCount  int    `env:"WORKERS" envDefault:"2"`
	Accelerator  string `env:"ACCELERATOR"`
	RuntimeURL   string `env:"RUNTIME_URL"`
}

// DefaultConfig returns the configuration defaults with environment
// overrides already applied.
func DefaultConfig() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "LAUNCHPAD_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// commandsNeedingPackages lists the commands that require at least one
// package argument.
var commandsNeedingPackages = map[string]bool{
	CommandInstall:   true,
	CommandUpdate:    true,
	CommandUninstall: true,
	CommandLaunch:    true,
}

// NewConfig validates a configuration.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CommandList, CommandStatus, CommandInstall, CommandUpdate, CommandUninstall, CommandLaunch:
	case "":
		return nil, errors.New("a command is required")
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}

	if commandsNeedingPackages[cfg.Command] && len(cfg.Packages) == 0 {
		return nil, fmt.Errorf("command %q requires at least one package name", cfg.Command)
	}
	if cfg.Command == CommandLaunch && len(cfg.Packages) > 1 {
		return nil, errors.New("launch takes exactly one package name")
	}
	if cfg.DataDir == "" {
		return nil, errors.New("DataDir is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
