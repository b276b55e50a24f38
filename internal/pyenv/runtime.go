package pyenv

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/mlstack/launchpad/internal/ctxlog"
	"github.com/mlstack/launchpad/internal/download"
)

// distURLs maps GOOS/GOARCH to a standalone CPython build archive.
var distURLs = map[string]string{
	"linux/amd64":  "https://github.com/astral-sh/python-build-standalone/releases/download/20250712/cpython-3.11.13+20250712-x86_64-unknown-linux-gnu-install_only.tar.gz",
	"linux/arm64":  "https://github.com/astral-sh/python-build-standalone/releases/download/20250712/cpython-3.11.13+20250712-aarch64-unknown-linux-gnu-install_only.tar.gz",
	"darwin/amd64": "https://github.com/astral-sh/python-build-standalone/releases/download/20250712/cpython-3.11.13+20250712-x86_64-apple-darwin-install_only.tar.gz",
	"darwin/arm64": "https://github.com/astral-sh/python-build-standalone/releases/download/20250712/cpython-3.11.13+20250712-aarch64-apple-darwin-install_only.tar.gz",
}

// Runtime manages the shared interpreter distribution under the data dir.
type Runtime struct {
	// Root is where the distribution is unpacked, e.g. <data>/runtime.
	Root string
	// DistURL overrides the default archive for the current platform.
	DistURL string

	dl *download.Client

	mu      sync.Mutex
	ensured bool
}

// NewRuntime creates a runtime manager rooted at root.
func NewRuntime(root string, dl *download.Client) *Runtime {
	return &Runtime{Root: root, dl: dl}
}

// Python returns the path of the runtime's interpreter binary.
func (r *Runtime) Python() string {
	return filepath.Join(r.Root, "python", "bin", "python3")
}

// Ensure makes the shared runtime available, downloading and unpacking it on
// first use. Progress lines are written to out so console subscribers see the
// step working. Safe for concurrent callers; only one download ever happens.
func (r *Runtime) Ensure(ctx context.Context, out io.Writer) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if out == nil {
		out = io.Discard
	}
	logger := ctxlog.FromContext(ctx)

	if r.ensured {
		return r.Python(), nil
	}
	if _, err := os.Stat(r.Python()); err == nil {
		logger.Debug("Shared runtime already present.", "python", r.Python())
		r.ensured = true
		return r.Python(), nil
	}

	url := r.DistURL
	if url == "" {
		var ok bool
		url, ok = distURLs[runtime.GOOS+"/"+runtime.GOARCH]
		if !ok {
			return "", fmt.Errorf("no runtime distribution known for %s/%s", runtime.GOOS, runtime.GOARCH)
		}
	}

	archive := filepath.Join(r.Root, "dist.tar.gz")
	logger.Info("⬇️  Downloading shared runtime...", "url", url)
	fmt.Fprintf(out, "downloading runtime from %s\n", url)
	if err := r.dl.Fetch(ctx, url, archive); err != nil {
		return "", fmt.Errorf("failed to download runtime: %w", err)
	}

	logger.Info("📦 Unpacking shared runtime...", "dest", r.Root)
	fmt.Fprintf(out, "unpacking runtime into %s\n", r.Root)
	if err := untarGz(archive, r.Root); err != nil {
		return "", fmt.Errorf("failed to unpack runtime: %w", err)
	}

	if _, err := os.Stat(r.Python()); err != nil {
		return "", fmt.Errorf("runtime archive did not contain expected interpreter at %s", r.Python())
	}

	r.ensured = true
	return r.Python(), nil
}

// escapesDest reports whether a cleaned archive-relative path points above
// the extraction root.
func escapesDest(name string) bool {
	name = filepath.Clean(name)
	return name == ".." || strings.HasPrefix(name, ".."+string(os.PathSeparator))
}

// untarGz unpacks a .tar.gz archive under dest, rejecting entries or symlink
// targets that escape it.
func untarGz(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		name := filepath.Clean(hdr.Name)
		if escapesDest(name) {
			return fmt.Errorf("archive entry escapes destination: %s", hdr.Name)
		}
		target := filepath.Join(dest, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeSymlink:
			// Symlink targets must stay inside dest too, or a later file
			// entry routed through the link would be written outside.
			if filepath.IsAbs(hdr.Linkname) {
				return fmt.Errorf("archive symlink %s has absolute target %s", hdr.Name, hdr.Linkname)
			}
			if escapesDest(filepath.Join(filepath.Dir(name), hdr.Linkname)) {
				return fmt.Errorf("archive symlink %s escapes destination: %s", hdr.Name, hdr.Linkname)
			}
			_ = os.Remove(target)
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)&0o777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}
