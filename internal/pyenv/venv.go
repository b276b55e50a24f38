package pyenv

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/mlstack/launchpad/internal/ctxlog"
)

// Venv is one package's virtual environment.
type Venv struct {
	// Dir is the environment root, e.g. <data>/venvs/<package>.
	Dir string
	// basePython is the shared runtime interpreter used to create the env.
	basePython string
}

// NewVenv describes a virtual environment at dir built from basePython.
func NewVenv(dir, basePython string) *Venv {
	return &Venv{Dir: dir, basePython: basePython}
}

// Python returns the environment's interpreter binary path.
func (v *Venv) Python() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(v.Dir, "Scripts", "python.exe")
	}
	return filepath.Join(v.Dir, "bin", "python")
}

// Exists reports whether the environment has already been created.
func (v *Venv) Exists() bool {
	_, err := os.Stat(v.Python())
	return err == nil
}

// Create builds the virtual environment, streaming tool output to out.
// Creating an existing environment is a no-op.
func (v *Venv) Create(ctx context.Context, out io.Writer) error {
	if v.Exists() {
		ctxlog.FromContext(ctx).Debug("Virtual environment already exists.", "dir", v.Dir)
		return nil
	}
	if err := runTool(ctx, out, "", v.basePython, "-m", "venv", v.Dir); err != nil {
		return fmt.Errorf("failed to create venv at %s: %w", v.Dir, err)
	}
	return nil
}

// Pip runs `python -m pip <args>` inside the environment, streaming output
// to out.
func (v *Venv) Pip(ctx context.Context, out io.Writer, args ...string) error {
	full := append([]string{"-m", "pip"}, args...)
	if err := runTool(ctx, out, "", v.Python(), full...); err != nil {
		return fmt.Errorf("pip %v failed: %w", args, err)
	}
	return nil
}

// Run executes the environment's interpreter with args in workDir.
func (v *Venv) Run(ctx context.Context, out io.Writer, workDir string, args ...string) error {
	return runTool(ctx, out, workDir, v.Python(), args...)
}

// runTool runs a command with stdout and stderr both streamed to out.
func runTool(ctx context.Context, out io.Writer, dir, name string, args ...string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Running tool.", "cmd", name, "args", args)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
