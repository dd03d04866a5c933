package lifecycle

import (
	"context"
	"os"
	"path/filepath"

	"github.com/lodosgroup/lpm/internal/archive"
	"github.com/lodosgroup/lpm/internal/catalog"
	"github.com/lodosgroup/lpm/internal/fsutil"
	"github.com/lodosgroup/lpm/internal/lpmerr"
	"github.com/lodosgroup/lpm/internal/manifest"
	"github.com/lodosgroup/lpm/internal/validate"
	"github.com/lodosgroup/lpm/internal/version"
)

// Update installs the package at blobPath over the already-installed
// package pkgName, dispatching to an upgrade or downgrade based on
// which way the version moves. A request carrying the exact installed
// version is a no-op.
func (e *Engine) Update(ctx context.Context, pkgName, blobPath string) error {
	release, err := e.Ctx.Locks.Acquire(pkgName)
	if err != nil {
		return err
	}
	defer release()

	old, err := e.Ctx.Store.LoadPkgByName(ctx, pkgName)
	if err != nil {
		return err
	}

	scratch, err := archive.Extract(blobPath)
	if err != nil {
		return err
	}

	meta, newFiles, system, scripts, err := loadManifests(scratch)
	if err != nil {
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	var prePhase, postPhase manifest.Phase
	switch version.Compare(old.Version, meta.Version) {
	case version.OrderEqual:
		e.Ctx.Log.Infof("requested package has exactly same version with the one currently installed")
		scratch.Cleanup(e.Ctx.Log)
		return nil
	case version.OrderLess:
		prePhase, postPhase = manifest.PreUpgrade, manifest.PostUpgrade
	case version.OrderGreater:
		prePhase, postPhase = manifest.PreDowngrade, manifest.PostDowngrade
	}

	if err := validate.Validate(scratch, meta, newFiles, system, e.HostArch, e.SelfVersion); err != nil {
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	if err := e.Ctx.Store.Begin(ctx); err != nil {
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	e.Ctx.Log.Infof("running %s for %s", prePhase, pkgName)
	if err := runScript(ctx, scripts, prePhase); err != nil {
		e.Ctx.Store.Rollback(ctx)
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	e.Ctx.Log.Infof("applying package differences to the system")
	if err := e.reconcileFiles(old.Files, newFiles, scratch); err != nil {
		e.Ctx.Store.Rollback(ctx)
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	if err := e.Ctx.Store.UpdatePkg(ctx, old.ID, meta.Version, meta.InstalledSize, newFiles); err != nil {
		e.Ctx.Store.Rollback(ctx)
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	e.Ctx.Log.Infof("running %s for %s", postPhase, pkgName)
	if err := runScript(ctx, scripts, postPhase); err != nil {
		e.Ctx.Store.Rollback(ctx)
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	scratch.Cleanup(e.Ctx.Log)

	if err := e.Ctx.Store.Commit(ctx); err != nil {
		e.Ctx.Store.Rollback(ctx)
		return err
	}

	e.Ctx.Log.Okf("%s transaction completed for %s", string(prePhase), pkgName)
	return nil
}

// reconcileFiles walks newFiles in order, copying in each one unless an
// identical file (same digest) is already installed, and removes every
// file from oldFiles that the new version no longer ships.
func (e *Engine) reconcileFiles(oldFiles []catalog.InstalledFile, newFiles manifest.Files, scratch *archive.Scratch) error {
	remaining := make(map[string]catalog.InstalledFile, len(oldFiles))
	for _, f := range oldFiles {
		remaining[f.AbsolutePath] = f
	}

	for _, nf := range newFiles {
		abs := nf.AbsolutePath()
		dest := e.rooted(abs)
		src := filepath.Join(scratch.ProgramDir(), filepath.FromSlash(nf.Path))

		if of, ok := remaining[abs]; ok {
			delete(remaining, abs)
			if of.ChecksumAlgorithm == nf.ChecksumAlgorithm && of.Checksum == nf.Checksum {
				continue
			}
			if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
				return &lpmerr.IOError{Op: "remove", Path: dest, Err: err}
			}
			if err := fsutil.CopyFile(src, dest); err != nil {
				return &lpmerr.IOError{Op: "copy", Path: dest, Err: err}
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return &lpmerr.IOError{Op: "mkdir", Path: filepath.Dir(dest), Err: err}
		}
		if err := fsutil.CopyFile(src, dest); err != nil {
			return &lpmerr.IOError{Op: "copy", Path: dest, Err: err}
		}
	}

	for _, of := range remaining {
		dest := e.rooted(of.AbsolutePath)
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			return &lpmerr.IOError{Op: "remove", Path: dest, Err: err}
		}
	}
	return nil
}
