package registry

import (
	"sort"

	"github.com/mlstack/launchpad/internal/config"
)

// Module is the interface that all compiled-in package modules must implement
// to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered hooks and package definitions for a
// single application instance.
type Registry struct {
	HookRegistry       map[string]Hook
	DefinitionRegistry map[string]*config.PackageDefinition
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		HookRegistry:       make(map[string]Hook),
		DefinitionRegistry: make(map[string]*config.PackageDefinition),
	}
}

// PopulateDefinitionsFromModel copies the loaded package definitions from the
// catalog model into the registry for easy access during execution.
func (r *Registry) PopulateDefinitionsFromModel(model *config.Model) {
	for key, val := range model.Packages {
		r.DefinitionRegistry[key] = val
	}
}

// Definition returns the package definition for a name, or nil.
func (r *Registry) Definition(name string) *config.PackageDefinition {
	return r.DefinitionRegistry[name]
}

// Definitions returns all package definitions sorted by name.
func (r *Registry) Definitions() []*config.PackageDefinition {
	defs := make([]*config.PackageDefinition, 0, len(r.DefinitionRegistry))
	for _, def := range r.DefinitionRegistry {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
