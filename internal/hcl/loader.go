package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/mlstack/launchpad/internal/config"
	"github.com/mlstack/launchpad/internal/ctxlog"
	"github.com/mlstack/launchpad/internal/schema"
)

// evalContext exposes the host platform to manifest expressions, so values
// like launch args can vary per OS without separate manifests.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"os":   cty.StringVal(runtime.GOOS),
			"arch": cty.StringVal(runtime.GOARCH),
		},
	}
}

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL catalog loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load orchestrates the entire manifest loading process. It accepts any mix
// of .hcl files and directories and parses every package block it finds.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := &config.Model{
		Packages: make(map[string]*config.PackageDefinition),
	}

	manifestFiles, err := findManifestFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered manifest files.", "count", len(manifestFiles))

	parser := hclparse.NewParser()
	evalCtx := evalContext()

	for _, file := range manifestFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse manifest %s: %w", file, diags)
		}

		var root schema.Manifest
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode manifest %s: %w", file, diags)
		}

		for _, pkg := range root.Packages {
			def, err := translatePackage(pkg, filepath.Dir(file))
			if err != nil {
				return nil, fmt.Errorf("manifest %s: %w", file, err)
			}
			if _, exists := model.Packages[def.Name]; exists {
				return nil, fmt.Errorf("manifest %s: duplicate package %q", file, def.Name)
			}
			model.Packages[def.Name] = def
		}
	}

	logger.Debug("Manifest loading complete.", "packages", len(model.Packages))
	return model, nil
}

// findManifestFiles walks all given paths and returns a flat list of all .hcl
// files found. A configured path that does not exist is skipped, not an error.
func findManifestFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}

		err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return allFiles, nil
}
