package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlstack/launchpad/internal/app"
)

func TestParse_NoArgsPrintsUsage(t *testing.T) {
	out := &bytes.Buffer{}

	cfg, shouldExit, err := Parse(nil, out)

	require.NoError(t, err)
	require.True(t, shouldExit)
	require.Nil(t, cfg)
	require.Contains(t, out.String(), "Usage:")
}

func TestParse_InstallCommand(t *testing.T) {
	out := &bytes.Buffer{}

	cfg, shouldExit, err := Parse([]string{"install", "--workers", "4", "comfyui", "sdwebui"}, out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, app.CommandInstall, cfg.Command)
	require.Equal(t, []string{"comfyui", "sdwebui"}, cfg.Packages)
	require.Equal(t, 4, cfg.WorkerCount)
}

func TestParse_LaunchExtraArgs(t *testing.T) {
	out := &bytes.Buffer{}

	cfg, _, err := Parse([]string{"launch", "comfyui", "--", "--listen", "0.0.0.0"}, out)

	require.NoError(t, err)
	require.Equal(t, app.CommandLaunch, cfg.Command)
	require.Equal(t, []string{"comfyui"}, cfg.Packages)
	require.Equal(t, []string{"--listen", "0.0.0.0"}, cfg.ExtraArgs)
}

func TestParse_LaunchRejectsMultiplePackages(t *testing.T) {
	out := &bytes.Buffer{}

	_, _, err := Parse([]string{"launch", "a", "b"}, out)

	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	require.Equal(t, 2, exitErr.Code)
}

func TestParse_UnknownCommand(t *testing.T) {
	out := &bytes.Buffer{}

	_, _, err := Parse([]string{"frobnicate"}, out)

	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown command")
}

func TestParse_InvalidLogLevel(t *testing.T) {
	out := &bytes.Buffer{}

	_, _, err := Parse([]string{"list", "--log-level", "loud"}, out)

	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid log-level")
}

func TestParse_EnvOverride(t *testing.T) {
	t.Setenv("LAUNCHPAD_WORKERS", "7")
	out := &bytes.Buffer{}

	cfg, _, err := Parse([]string{"list"}, out)

	require.NoError(t, err)
	require.Equal(t, 7, cfg.WorkerCount)
}

func TestParse_FlagBeatsEnv(t *testing.T) {
	t.Setenv("LAUNCHPAD_WORKERS", "7")
	out := &bytes.Buffer{}

	cfg, _, err := Parse([]string{"install", "--workers", "3", "comfyui"}, out)

	require.NoError(t, err)
	require.Equal(t, 3, cfg.WorkerCount)
}
