// Package fetch downloads dataset workbooks to transient local files.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/lipid-data/lipid.report/internal/fsutil"
)

// Fetcher retrieves remote resources into uniquely-named temporary
// files. There is no retry: network and HTTP failures propagate to the
// caller. Callers needing deadlines pass a context or a client with a
// timeout.
type Fetcher struct {
	Client *http.Client
	FS     fsutil.FileSystem

	// Dir is the directory for downloaded files; empty means the
	// platform temp directory.
	Dir string
}

// New returns a Fetcher using the default HTTP client and the real
// filesystem.
func New() *Fetcher {
	return &Fetcher{Client: http.DefaultClient, FS: fsutil.OSFileSystem{}}
}

// Fetch downloads url to a new, unused temporary path and returns the
// path plus a cleanup func that removes the file. Cleanup is the
// caller's half of the contract: defer it as soon as Fetch returns.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, func(), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", nil, fmt.Errorf("fetch %s: status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	pattern := fmt.Sprintf("lipid-report-%s-*%s", uuid.NewString()[:8], fileExt(url))
	name, w, err := f.FS.CreateTemp(f.Dir, pattern)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		w.Close()
		f.FS.Remove(name)
		return "", nil, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		f.FS.Remove(name)
		return "", nil, fmt.Errorf("failed to close %s: %w", name, err)
	}

	cleanup := func() {
		if err := f.FS.Remove(name); err != nil {
			log.Printf("failed to remove downloaded file %s: %v", name, err)
		}
	}
	return name, cleanup, nil
}

// fileExt keeps the remote extension on the temp name so the file type
// stays obvious in the temp directory.
func fileExt(url string) string {
	base := path.Base(url)
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	return path.Ext(base)
}
