package lifecycle

import (
	"context"
	"io"
	"os"

	"github.com/lodosgroup/lpm/internal/lpmerr"
	"github.com/lodosgroup/lpm/internal/manifest"
)

// Delete removes pkgName from the system: its catalog rows, its
// installed files, and its scripts directory. in supplies the
// confirmation prompt's answer stream (os.Stdin in production).
func (e *Engine) Delete(ctx context.Context, in io.Reader, pkgName string) error {
	release, err := e.Ctx.Locks.Acquire(pkgName)
	if err != nil {
		return err
	}
	defer release()

	old, err := e.Ctx.Store.LoadPkgByName(ctx, pkgName)
	if err != nil {
		return err
	}

	if old.GroupID != old.Name {
		return &lpmerr.PackageError{Kind: lpmerr.DependencyOfAnotherPackage, Name: old.Name, DependsOn: old.GroupID}
	}

	e.Ctx.Log.Infof("package list to be deleted:")
	e.Ctx.Log.Infof("  - %s", old.Name)
	if !e.Ctx.AskForConfirmation(in, "proceed with deletion") {
		return nil
	}

	if err := e.Ctx.Store.EnableForeignKeys(ctx); err != nil {
		return err
	}
	if err := e.Ctx.Store.Begin(ctx); err != nil {
		return err
	}

	scriptsDir := e.pkgScriptsDir(old.Name)
	scripts, err := manifest.LoadScripts(scriptsDir)
	if err != nil {
		e.Ctx.Store.Rollback(ctx)
		return err
	}

	e.Ctx.Log.Infof("running pre_delete for %s", old.Name)
	if err := runScript(ctx, scripts, manifest.PreDelete); err != nil {
		e.Ctx.Store.Rollback(ctx)
		return err
	}

	e.Ctx.Log.Infof("syncing with package database")
	if err := e.Ctx.Store.DeletePkg(ctx, old.ID); err != nil {
		e.Ctx.Store.Rollback(ctx)
		return &lpmerr.PackageError{Kind: lpmerr.DeletionFailed, Name: old.Name}
	}

	e.Ctx.Log.Infof("deleting package files from system")
	for _, f := range old.Files {
		dest := e.rooted(f.AbsolutePath)
		if _, err := os.Stat(dest); err == nil {
			if err := os.Remove(dest); err != nil {
				e.Ctx.Store.Rollback(ctx)
				return &lpmerr.IOError{Op: "remove", Path: dest, Err: err}
			}
		} else if !os.IsNotExist(err) {
			e.Ctx.Store.Rollback(ctx)
			return &lpmerr.IOError{Op: "stat", Path: dest, Err: err}
		} else {
			e.Ctx.Log.Errorf("path %s does not exist", dest)
		}
	}

	pkgDir := e.pkgDir(old.Name)
	if _, err := os.Stat(pkgDir); err == nil {
		if err := os.RemoveAll(pkgDir); err != nil {
			e.Ctx.Store.Rollback(ctx)
			return &lpmerr.IOError{Op: "remove", Path: pkgDir, Err: err}
		}
	}

	e.Ctx.Log.Infof("running post_delete for %s", old.Name)
	if err := runScript(ctx, scripts, manifest.PostDelete); err != nil {
		e.Ctx.Store.Rollback(ctx)
		return err
	}

	if err := e.Ctx.Store.Commit(ctx); err != nil {
		e.Ctx.Store.Rollback(ctx)
		return err
	}

	e.Ctx.Log.Okf("deletion transaction completed for %s", old.Name)
	return nil
}
