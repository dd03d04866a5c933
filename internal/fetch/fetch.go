// Package fetch retrieves package blobs over HTTP from a repository's
// advertised address into the local download cache.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/lodosgroup/lpm/internal/lpmerr"
	"github.com/lodosgroup/lpm/internal/version"
)

// Download retrieves url into outputPath. If outputPath already exists
// it returns immediately without making a request (idempotent cache).
// Non-2xx responses fail with an lpmerr.IOError carrying the status.
func Download(ctx context.Context, client *http.Client, url, outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return &lpmerr.IOError{Op: "stat", Path: outputPath, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return &lpmerr.IOError{Op: "mkdir", Path: filepath.Dir(outputPath), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &lpmerr.IOError{Op: "request", Path: url, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return &lpmerr.IOError{Op: "GET", Path: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &lpmerr.IOError{Op: "GET", Path: url, Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)}
	}

	tmp := outputPath + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return &lpmerr.IOError{Op: "create", Path: tmp, Err: err}
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return &lpmerr.IOError{Op: "write", Path: tmp, Err: err}
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return &lpmerr.IOError{Op: "close", Path: tmp, Err: err}
	}

	if err := os.Rename(tmp, outputPath); err != nil {
		os.Remove(tmp)
		return &lpmerr.IOError{Op: "rename", Path: outputPath, Err: err}
	}
	return nil
}

// PkgURL builds the blob URL for name@v under a repository's address,
// matching the original repository addressing scheme.
func PkgURL(repoAddr, name string, v version.Version) string {
	return join(repoAddr, name, v.Readable, blobName(name, v))
}

// PkgOutputPath builds the local cache path a downloaded blob is stored
// at, keyed by repository address so identically named packages from
// different repositories never collide.
func PkgOutputPath(cacheRoot, repoAddr, name string, v version.Version) string {
	return filepath.Join(cacheRoot, repoKey(repoAddr), name, v.Readable, blobName(name, v))
}

func blobName(name string, v version.Version) string {
	return name + "-" + v.Readable + ".lod"
}

// join concatenates base (a repository address, which may carry a
// "scheme://" prefix that path.Join would collapse) with segments using
// plain "/" separators.
func join(base string, segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, strings.TrimRight(base, "/"))
	for _, s := range segments {
		parts = append(parts, strings.Trim(s, "/"))
	}
	return strings.Join(parts, "/")
}

func repoKey(repoAddr string) string {
	safe := make([]byte, 0, len(repoAddr))
	for i := 0; i < len(repoAddr); i++ {
		c := repoAddr[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '.':
			safe = append(safe, c)
		default:
			safe = append(safe, '_')
		}
	}
	return string(safe)
}
