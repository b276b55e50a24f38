package install

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mlstack/launchpad/internal/config"
	"github.com/mlstack/launchpad/internal/ctxlog"
)

// fetchSource clones the package repository into dir, or updates an existing
// checkout. All git output streams to out.
func fetchSource(ctx context.Context, out io.Writer, src *config.Source, dir string) error {
	logger := ctxlog.FromContext(ctx)

	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		logger.Debug("Updating existing checkout.", "dir", dir)
		if err := runGit(ctx, out, "-C", dir, "fetch", "--tags", "origin"); err != nil {
			return err
		}
	} else {
		logger.Debug("Cloning repository.", "repo", src.Repo, "dir", dir)
		if err := runGit(ctx, out, "clone", "--recursive", src.Repo, dir); err != nil {
			return err
		}
	}

	if src.Ref != "" {
		if err := runGit(ctx, out, "-C", dir, "checkout", src.Ref); err != nil {
			return err
		}
	} else if err := runGit(ctx, out, "-C", dir, "pull", "--ff-only"); err != nil {
		// A fresh clone of the default branch is already up to date; a
		// diverged checkout is a real error.
		return err
	}

	// Submodules must track the checked-out ref on updates, not just on the
	// initial recursive clone.
	return runGit(ctx, out, "-C", dir, "submodule", "update", "--init", "--recursive")
}

func runGit(ctx context.Context, out io.Writer, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %v: %w", args, err)
	}
	return nil
}
