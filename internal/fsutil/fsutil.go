// Package fsutil provides the filesystem primitives the lifecycle engine
// builds on: directory/symlink predicates, recursive copy, and a
// cross-device-safe rename. It targets Linux only; LPM installs into a
// single root filesystem and never needs to reason about drive letters or
// case-insensitive volumes.
package fsutil

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// HasFilepathPrefix reports whether path is contained by, or is, prefix.
// Unlike strings.HasPrefix, it is path-component aware: /foo and /foobar
// are not considered to share a prefix.
func HasFilepathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)
	if prefix == string(filepath.Separator) {
		return strings.HasPrefix(path, prefix)
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(filepath.Separator))
}

// RenameWithFallback attempts to rename src to dst, falling back to a
// recursive copy-then-remove when the two paths live on different devices
// (EXDEV), which is common when /tmp/lpm and the package target are on
// separate mounts.
func RenameWithFallback(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return errors.Wrapf(err, "cannot stat %s", src)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	linkErr, ok := err.(*os.LinkError)
	if !ok || linkErr.Err != syscall.EXDEV {
		return errors.Wrapf(err, "cannot rename %s to %s", src, dst)
	}

	return renameByCopy(src, dst)
}

func renameByCopy(src, dst string) error {
	var cerr error
	if dir, _ := IsDir(src); dir {
		cerr = CopyDir(src, dst)
	} else {
		cerr = CopyFile(src, dst)
	}
	if cerr != nil {
		return errors.Wrapf(cerr, "rename fallback failed: cannot copy %s to %s", src, dst)
	}
	return errors.Wrapf(os.RemoveAll(src), "cannot remove %s after copy", src)
}

var errSrcNotDir = errors.New("source is not a directory")

// CopyDir recursively copies a directory tree, preserving symlinks and mode
// bits. The destination must not already exist.
func CopyDir(src, dst string) error {
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	fi, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return errSrcNotDir
	}

	if err := os.MkdirAll(dst, fi.Mode()); err != nil {
		return errors.Wrapf(err, "cannot mkdir %s", dst)
	}

	entries, err := ioutil.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, "cannot read directory %s", src)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := CopyDir(srcPath, dstPath); err != nil {
				return errors.Wrap(err, "copying directory failed")
			}
			continue
		}
		if err := CopyFile(srcPath, dstPath); err != nil {
			return errors.Wrap(err, "copying file failed")
		}
	}

	return nil
}

// CopyFile copies src to dst, cloning symlinks rather than following them,
// and preserving the source's mode bits. dst is created or truncated.
func CopyFile(src, dst string) (err error) {
	if sym, serr := IsSymlink(src); serr != nil {
		return errors.Wrap(serr, "symlink check failed")
	} else if sym {
		return cloneSymlink(src, dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}

	si, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, si.Mode())
}

func cloneSymlink(sl, dst string) error {
	resolved, err := os.Readlink(sl)
	if err != nil {
		return err
	}
	return os.Symlink(resolved, dst)
}

// IsDir reports whether name exists and is a directory.
func IsDir(name string) (bool, error) {
	fi, err := os.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}

// IsNonEmptyDir reports whether name is a directory with at least one entry.
func IsNonEmptyDir(name string) (bool, error) {
	isDir, err := IsDir(name)
	if err != nil || !isDir {
		return false, err
	}

	f, err := os.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	switch err {
	case io.EOF:
		return false, nil
	case nil:
		return true, nil
	default:
		return false, err
	}
}

// IsRegular reports whether name exists and is a regular file.
func IsRegular(name string) (bool, error) {
	fi, err := os.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if mode := fi.Mode(); mode&os.ModeType != 0 {
		return false, errors.Errorf("%q is a %v, expected a regular file", name, mode)
	}
	return true, nil
}

// IsSymlink reports whether path is a symbolic link.
func IsSymlink(path string) (bool, error) {
	l, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	return l.Mode()&os.ModeSymlink == os.ModeSymlink, nil
}
