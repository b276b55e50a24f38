package hcl

import (
	"fmt"
	"regexp"

	"github.com/mlstack/launchpad/internal/config"
	"github.com/mlstack/launchpad/internal/schema"
)

// translatePackage converts a decoded package block into the format-agnostic
// model and validates the parts the rest of the app depends on.
func translatePackage(pkg *schema.Package, manifestDir string) (*config.PackageDefinition, error) {
	if pkg.Name == "" {
		return nil, fmt.Errorf("package block is missing a name label")
	}
	if pkg.Source == nil {
		return nil, fmt.Errorf("package %q: missing source block", pkg.Name)
	}
	if pkg.Launch == nil {
		return nil, fmt.Errorf("package %q: missing launch block", pkg.Name)
	}
	if _, err := regexp.Compile(pkg.Launch.ReadyPattern); err != nil {
		return nil, fmt.Errorf("package %q: invalid ready_pattern: %w", pkg.Name, err)
	}

	def := &config.PackageDefinition{
		Name:        pkg.Name,
		DisplayName: pkg.DisplayName,
		Description: pkg.Description,
		ManifestDir: manifestDir,
		Source: &config.Source{
			Repo: pkg.Source.Repo,
			Ref:  pkg.Source.Ref,
		},
		Launch: &config.Launch{
			Entry:        pkg.Launch.Entry,
			Args:         pkg.Launch.Args,
			Env:          pkg.Launch.Env,
			ReadyPattern: pkg.Launch.ReadyPattern,
			WorkingDir:   pkg.Launch.WorkingDir,
		},
	}
	if def.DisplayName == "" {
		def.DisplayName = pkg.Name
	}

	if pkg.Install != nil {
		def.Install = &config.Install{
			Requirements:  pkg.Install.Requirements,
			TorchIndex:    pkg.Install.TorchIndex,
			ExtraPackages: pkg.Install.ExtraPackages,
		}
	}

	if pkg.Folders != nil {
		for _, m := range pkg.Folders.Maps {
			if m.To == "" {
				return nil, fmt.Errorf("package %q: folder map %q has empty 'to'", pkg.Name, m.PackagePath)
			}
			def.Folders = append(def.Folders, &config.FolderMapping{
				PackagePath: m.PackagePath,
				SharedPath:  m.To,
			})
		}
	}

	if pkg.Hooks != nil {
		def.Hooks = &config.Hooks{
			PostInstall: pkg.Hooks.PostInstall,
			PreLaunch:   pkg.Hooks.PreLaunch,
		}
	}

	return def, nil
}
