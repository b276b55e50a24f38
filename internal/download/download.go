// Package download provides the HTTP download helper shared by the installer.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// meta remembers what we last fetched for a URL so unchanged downloads can be
// skipped.
type meta struct {
	etag string
	path string
}

// Client downloads files over HTTP. A small LRU keyed by URL caches the ETag
// of completed downloads; a repeat fetch whose ETag still matches is a no-op.
type Client struct {
	httpClient *http.Client
	cache      *lru.Cache[string, meta]
}

// New creates a download client.
func New() *Client {
	cache, err := lru.New[string, meta](64)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	return &Client{
		httpClient: &http.Client{},
		cache:      cache,
	}
}

// Fetch downloads url into dest. The body is written to a stable partial
// file next to dest and renamed into place, so an incomplete download never
// shows up at dest. A partial file left by an interrupted fetch is resumed
// with a Range request instead of restarting from zero.
func (c *Client) Fetch(ctx context.Context, url, dest string) error {
	if m, ok := c.cache.Get(url); ok && m.path == dest && m.etag != "" {
		if _, err := os.Stat(dest); err == nil {
			if unchanged, err := c.etagMatches(ctx, url, m.etag); err == nil && unchanged {
				return nil
			}
		}
	}

	partial := dest + ".partial"
	var offset int64
	if fi, err := os.Stat(partial); err == nil {
		offset = fi.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
		if m, ok := c.cache.Get(url); ok && m.etag != "" {
			req.Header.Set("If-Range", m.etag)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute download request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		// Appending to the existing partial file.
	case http.StatusOK:
		// Server ignored the range or the content changed; start over.
		offset = 0
	default:
		return fmt.Errorf("download of %s failed with status: %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	f, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open partial file: %w", err)
	}
	if err := f.Truncate(offset); err != nil {
		f.Close()
		return fmt.Errorf("failed to truncate partial file: %w", err)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return fmt.Errorf("failed to seek partial file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		// Keep the partial file so the next fetch can resume.
		f.Close()
		return fmt.Errorf("failed to write download body: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close partial file: %w", err)
	}
	if err := os.Rename(partial, dest); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		c.cache.Add(url, meta{etag: etag, path: dest})
	}
	return nil
}

// etagMatches issues a HEAD request and compares the ETag.
func (c *Client) etagMatches(ctx context.Context, url, etag string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK && resp.Header.Get("ETag") == etag, nil
}
