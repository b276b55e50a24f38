package hcl

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

const validManifest = `
package "demo" {
  display_name = "Demo UI"

  source {
    repo = "https://example.com/demo.git"
    ref  = "v1.0.0"
  }

  launch {
    entry         = "main.py"
    args          = ["--demo"]
    ready_pattern = "running at (?P<url>https?://\\S+)"
  }

  install {
    requirements = "requirements.txt"

    torch_index = {
      cpu = "https://download.pytorch.org/whl/cpu"
    }
  }

  folders {
    map "models" {
      to = "models/checkpoints"
    }
  }

  hooks {
    post_install = "post_install.lua"
  }
}
`

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir
}

func TestLoad_ValidManifest(t *testing.T) {
	t.Parallel()
	dir := writeManifest(t, "demo.hcl", validManifest)

	model, err := NewLoader().Load(context.Background(), dir)

	require.NoError(t, err)
	require.Len(t, model.Packages, 1)

	def := model.Packages["demo"]
	require.NotNil(t, def)
	require.Equal(t, "Demo UI", def.DisplayName)
	require.Equal(t, "https://example.com/demo.git", def.Source.Repo)
	require.Equal(t, "v1.0.0", def.Source.Ref)
	require.Equal(t, "main.py", def.Launch.Entry)
	require.Equal(t, []string{"--demo"}, def.Launch.Args)
	require.Equal(t, "requirements.txt", def.Install.Requirements)
	require.Equal(t, "https://download.pytorch.org/whl/cpu", def.Install.TorchIndex["cpu"])
	require.Len(t, def.Folders, 1)
	require.Equal(t, "models", def.Folders[0].PackagePath)
	require.Equal(t, "models/checkpoints", def.Folders[0].SharedPath)
	require.Equal(t, "post_install.lua", def.Hooks.PostInstall)
	require.Equal(t, dir, def.ManifestDir)
}

func TestLoad_DisplayNameDefaultsToName(t *testing.T) {
	t.Parallel()
	dir := writeManifest(t, "min.hcl", `
package "minimal" {
  source {
    repo = "https://example.com/min.git"
  }
  launch {
    entry         = "app.py"
    ready_pattern = "ready"
  }
}
`)

	model, err := NewLoader().Load(context.Background(), dir)

	require.NoError(t, err)
	require.Equal(t, "minimal", model.Packages["minimal"].DisplayName)
}

func TestLoad_DuplicatePackage(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), []byte(validManifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.hcl"), []byte(validManifest), 0o644))

	_, err := NewLoader().Load(context.Background(), dir)

	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate package")
}

func TestLoad_InvalidReadyPattern(t *testing.T) {
	t.Parallel()
	dir := writeManifest(t, "bad.hcl", `
package "bad" {
  source {
    repo = "https://example.com/bad.git"
  }
  launch {
    entry         = "app.py"
    ready_pattern = "([unclosed"
  }
}
`)

	_, err := NewLoader().Load(context.Background(), dir)

	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid ready_pattern")
}

func TestLoad_MissingSource(t *testing.T) {
	t.Parallel()
	dir := writeManifest(t, "nosource.hcl", `
package "nosource" {
  launch {
    entry         = "app.py"
    ready_pattern = "ready"
  }
}
`)

	_, err := NewLoader().Load(context.Background(), dir)

	require.Error(t, err)
	require.Contains(t, err.Error(), "missing source block")
}

func TestLoad_PlatformVariables(t *testing.T) {
	t.Parallel()
	dir := writeManifest(t, "plat.hcl", `
package "plat" {
  source {
    repo = "https://example.com/plat.git"
  }
  launch {
    entry         = "app.py"
    args          = ["--platform", "${os}/${arch}"]
    ready_pattern = "ready"
  }
}
`)

	model, err := NewLoader().Load(context.Background(), dir)

	require.NoError(t, err)
	require.Equal(t, []string{"--platform", runtime.GOOS + "/" + runtime.GOARCH}, model.Packages["plat"].Launch.Args)
}

func TestLoad_MissingPathIsSkipped(t *testing.T) {
	t.Parallel()

	model, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))

	require.NoError(t, err)
	require.Empty(t, model.Packages)
}
