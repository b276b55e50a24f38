package app

import (
	"github.com/mlstack/launchpad/internal/registry"
	"github.com/mlstack/launchpad/packages/comfyui"
	"github.com/mlstack/launchpad/packages/sdwebui"
)

// coreModules is the definitive list of all package modules that are compiled
// into the launchpad binary. Pure-declarative packages (manifest only, no Go
// hooks) need no entry here.
var coreModules = []registry.Module{
	&comfyui.Module{},
	&sdwebui.Module{},
}
