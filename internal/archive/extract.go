// Package archive decompresses and unpacks LZ4-frame-compressed POSIX
// TAR package blobs into a scratch directory, per the wire layout
// (meta/, program/, scripts/, system.json).
package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/lodosgroup/lpm/internal/lpmerr"
)

// ScratchRoot is the parent directory every extraction writes its stem
// subdirectory under.
const ScratchRoot = "/tmp/lpm"

// Scratch is an extracted package blob's on-disk working directory.
type Scratch struct {
	// Dir is the stem-named directory under ScratchRoot holding meta/,
	// program/, scripts/, and system.json.
	Dir string
}

// MetaPath, FilesPath, SystemPath, ScriptsDir, and ProgramDir locate the
// fixed subpaths inside a Scratch per the blob layout in §6.
func (s *Scratch) MetaPath() string   { return filepath.Join(s.Dir, "meta", "meta.json") }
func (s *Scratch) FilesPath() string  { return filepath.Join(s.Dir, "meta", "files.json") }
func (s *Scratch) SystemPath() string { return filepath.Join(s.Dir, "system.json") }
func (s *Scratch) ScriptsDir() string { return filepath.Join(s.Dir, "scripts") }
func (s *Scratch) ProgramDir() string { return filepath.Join(s.Dir, "program") }

// Stem returns the blob's base filename without its extension, which
// names the scratch subdirectory.
func Stem(blobPath string) string {
	base := filepath.Base(blobPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Extract decompresses blobPath as an LZ4 frame, unpacks the resulting
// TAR stream under ScratchRoot/<stem>/, and returns the resulting
// Scratch. Paths containing ".." components are rejected before that
// entry is written (zip-slip guard). On any failure, partially written
// output is removed before returning the error.
func Extract(blobPath string) (*Scratch, error) {
	stem := Stem(blobPath)
	dir := filepath.Join(ScratchRoot, stem)

	scratch := &Scratch{Dir: dir}
	if err := extractInto(blobPath, dir); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return scratch, nil
}

func extractInto(blobPath, dir string) error {
	f, err := os.Open(blobPath)
	if err != nil {
		return &lpmerr.IOError{Op: "open", Path: blobPath, Err: err}
	}
	defer f.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &lpmerr.IOError{Op: "mkdir", Path: dir, Err: err}
	}

	zr := lz4.NewReader(f)
	tr := tar.NewReader(zr)

	// Entries are written in archive order in one streaming pass, so a
	// hardlink entry only succeeds if the entry it points at appeared
	// earlier in the archive.
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: err.Error()}
		}

		if err := writeEntry(dir, hdr, tr); err != nil {
			return err
		}
	}
}

func writeEntry(dir string, hdr *tar.Header, tr *tar.Reader) error {
	target, err := safeJoin(dir, hdr.Name)
	if err != nil {
		return err
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		return mkdirAll(target, os.FileMode(hdr.Mode))
	case tar.TypeReg:
		return writeRegular(target, hdr, tr)
	case tar.TypeLink:
		linkTarget, err := safeJoin(dir, hdr.Linkname)
		if err != nil {
			return err
		}
		if err := mkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.Link(linkTarget, target); err != nil {
			return &lpmerr.IOError{Op: "link", Path: target, Err: err}
		}
		return nil
	case tar.TypeSymlink:
		if err := mkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.Symlink(hdr.Linkname, target); err != nil {
			return &lpmerr.IOError{Op: "symlink", Path: target, Err: err}
		}
		return nil
	default:
		// Device nodes, fifos, etc. have no place in a package payload.
		return nil
	}
}

func writeRegular(target string, hdr *tar.Header, tr *tar.Reader) error {
	if err := mkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode))
	if err != nil {
		return &lpmerr.IOError{Op: "create", Path: target, Err: err}
	}
	if _, err := io.Copy(out, tr); err != nil {
		out.Close()
		return &lpmerr.IOError{Op: "write", Path: target, Err: err}
	}
	if err := out.Close(); err != nil {
		return &lpmerr.IOError{Op: "close", Path: target, Err: err}
	}

	if err := os.Chmod(target, os.FileMode(hdr.Mode)); err != nil {
		return &lpmerr.IOError{Op: "chmod", Path: target, Err: err}
	}
	if os.Geteuid() == 0 {
		os.Chown(target, hdr.Uid, hdr.Gid)
	}
	return nil
}

func mkdirAll(path string, mode os.FileMode) error {
	if err := os.MkdirAll(path, mode|0o700); err != nil {
		return &lpmerr.IOError{Op: "mkdir", Path: path, Err: err}
	}
	return nil
}

// safeJoin joins dir and name, rejecting any name that contains a ".."
// component, is absolute, or whose joined form lies outside dir
// (zip-slip guard).
func safeJoin(dir, name string) (string, error) {
	if name == "" {
		return "", &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: "empty archive entry name"}
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: "archive entry contains a \"..\" component: " + name}
		}
	}
	cleaned := filepath.Clean(name)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || filepath.IsAbs(cleaned) {
		return "", &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: "archive entry escapes scratch directory: " + name}
	}
	joined := filepath.Join(dir, cleaned)
	if joined != dir && !strings.HasPrefix(joined, dir+string(filepath.Separator)) {
		return "", &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: "archive entry escapes scratch directory: " + name}
	}
	return joined, nil
}
