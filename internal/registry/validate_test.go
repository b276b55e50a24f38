package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlstack/launchpad/internal/config"
)

func defWithHooks(name string, hooks *config.Hooks) *config.PackageDefinition {
	return &config.PackageDefinition{
		Name:   name,
		Source: &config.Source{Repo: "https://example.com/x.git"},
		Launch: &config.Launch{Entry: "main.py", ReadyPattern: "ready"},
		Hooks:  hooks,
	}
}

func TestValidateRegistry_HappyPath(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterHook("DemoHook", func(context.Context, *HookEnv) error { return nil })
	r.DefinitionRegistry["demo"] = defWithHooks("demo", &config.Hooks{PostInstall: "DemoHook"})

	require.NoError(t, r.ValidateRegistry(context.Background()))
}

func TestValidateRegistry_MissingGoHook(t *testing.T) {
	t.Parallel()

	r := New()
	r.DefinitionRegistry["demo"] = defWithHooks("demo", &config.Hooks{PreLaunch: "NotRegistered"})

	err := r.ValidateRegistry(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "not registered by any Go module")
}

func TestValidateRegistry_UnreferencedGoHook(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterHook("Orphan", func(context.Context, *HookEnv) error { return nil })
	r.DefinitionRegistry["demo"] = defWithHooks("demo", nil)

	err := r.ValidateRegistry(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "referenced by no manifest")
}

func TestValidateRegistry_ScriptHooksNeedNoGoHandler(t *testing.T) {
	t.Parallel()

	r := New()
	r.DefinitionRegistry["demo"] = defWithHooks("demo", &config.Hooks{PostInstall: "post_install.lua"})

	require.NoError(t, r.ValidateRegistry(context.Background()))
}

func TestRegisterHook_DuplicatePanics(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterHook("Twice", func(context.Context, *HookEnv) error { return nil })

	require.Panics(t, func() {
		r.RegisterHook("Twice", func(context.Context, *HookEnv) error { return nil })
	})
}

func TestDefinitions_SortedByName(t *testing.T) {
	t.Parallel()

	r := New()
	r.PopulateDefinitionsFromModel(&config.Model{Packages: map[string]*config.PackageDefinition{
		"zeta":  defWithHooks("zeta", nil),
		"alpha": defWithHooks("alpha", nil),
	}})

	defs := r.Definitions()
	require.Len(t, defs, 2)
	require.Equal(t, "alpha", defs[0].Name)
	require.Equal(t, "zeta", defs[1].Name)
}
