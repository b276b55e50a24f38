package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/mlstack/launchpad/internal/ctxlog"
)

// IsScriptHook reports whether a hook reference names a Lua script instead of
// a registered Go handler.
func IsScriptHook(ref string) bool {
	return strings.HasSuffix(ref, ".lua")
}

// ValidateRegistry performs a strict parity check between manifests and Go
// code: every non-script hook a manifest references must be registered, and
// every registered hook must be referenced by some manifest.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	referenced := make(map[string]struct{})

	for name, def := range r.DefinitionRegistry {
		if def.Hooks == nil {
			continue
		}
		for event, ref := range map[string]string{
			"post_install": def.Hooks.PostInstall,
			"pre_launch":   def.Hooks.PreLaunch,
		} {
			if ref == "" {
				continue
			}
			if IsScriptHook(ref) {
				logger.Debug("Manifest hook resolves to a script.", "package", name, "event", event, "script", ref)
				continue
			}
			referenced[ref] = struct{}{}
			if _, ok := r.HookRegistry[ref]; !ok {
				errs = append(errs, fmt.Sprintf("package '%s': manifest references hook '%s' (%s) which is not registered by any Go module", name, ref, event))
			}
		}
	}

	for name := range r.HookRegistry {
		if _, ok := referenced[name]; !ok {
			errs = append(errs, fmt.Sprintf("hook '%s' is registered by a Go module but referenced by no manifest", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}
