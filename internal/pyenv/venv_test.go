package pyenv

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVenv_PythonPath(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("posix venv layout")
	}

	v := NewVenv(filepath.Join("data", "venvs", "demo"), filepath.Join("runtime", "bin", "python3"))
	require.Equal(t, filepath.Join("data", "venvs", "demo", "bin", "python"), v.Python())
}

func TestVenv_ExistsBeforeCreate(t *testing.T) {
	t.Parallel()

	v := NewVenv(filepath.Join(t.TempDir(), "venv"), "python3")
	require.False(t, v.Exists())
}

func TestDetectAccelerator_ReturnsKnownValue(t *testing.T) {
	t.Parallel()

	got := DetectAccelerator()
	require.Contains(t, []string{AcceleratorCUDA, AcceleratorROCm, AcceleratorCPU}, got)
}
