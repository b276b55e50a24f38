package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mlstack/launchpad/internal/config"
)

// HookEnv carries everything a lifecycle hook may need about the package it
// runs for.
type HookEnv struct {
	Package *config.PackageDefinition

	// CheckoutDir is the package's source checkout.
	CheckoutDir string
	// VenvDir is the package's virtual environment.
	VenvDir string
	// SharedDir is the root of the shared models tree.
	SharedDir string
}

// Hook is a Go lifecycle handler referenced by name from a manifest's hooks
// block.
type Hook func(ctx context.Context, env *HookEnv) error

// RegisterHook registers a Go function for a package lifecycle event.
func (r *Registry) RegisterHook(name string, hook Hook) {
	if _, exists := r.HookRegistry[name]; exists {
		panic(fmt.Sprintf("hook with name '%s' already registered", name))
	}
	slog.Debug("Registering hook.", "name", name)
	r.HookRegistry[name] = hook
}

// Hook returns the registered Go hook for a name, or nil.
func (r *Registry) Hook(name string) Hook {
	return r.HookRegistry[name]
}
