// Package testutil provides the shared harness for integration-style tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlstack/launchpad/internal/app"
	"github.com/mlstack/launchpad/internal/hcl"
	"github.com/mlstack/launchpad/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// NoopModule registers nothing. Passing it keeps the harness from falling
// back to the compiled-in package modules, whose hooks the test manifests
// don't reference.
type NoopModule struct{}

// Register implements registry.Module.
func (NoopModule) Register(*registry.Registry) {}

// HarnessResult holds the outcomes of a harness run. Log keeps collecting
// output written after construction, e.g. by a later App.Run call.
type HarnessResult struct {
	LogOutput string
	Log       *SafeBuffer
	Err       error
	App       *app.App
	DataDir   string
}

// NewHarnessApp writes the given manifest files into a temp packages dir,
// then constructs an App over them. Startup panics are recovered into Err,
// mirroring the top-level recovery in main.
func NewHarnessApp(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	packagesDir := filepath.Join(tmpDir, "packages")
	dataDir := filepath.Join(tmpDir, "data")
	require.NoError(t, os.Mkdir(packagesDir, 0o755))

	for name, content := range files {
		filePath := filepath.Join(packagesDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	if len(modules) == 0 {
		modules = []registry.Module{NoopModule{}}
	}

	appConfig := &app.Config{
		Command:      app.CommandList,
		PackagesPath: packagesDir,
		DataDir:      dataDir,
		LogLevel:     "debug",
		LogFormat:    "text",
		WorkerCount:  2,
		Accelerator:  "cpu",
	}

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig, hcl.NewLoader(), modules...)
	}()

	result := &HarnessResult{
		LogOutput: logBuffer.String(),
		Log:       logBuffer,
		App:       testApp,
		DataDir:   dataDir,
	}
	if panicErr != nil {
		result.Err = fmt.Errorf("application startup panicked | %v", panicErr)
		return result
	}
	t.Cleanup(func() { _ = testApp.Close() })
	return result
}
