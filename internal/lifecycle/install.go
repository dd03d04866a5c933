package lifecycle

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/lodosgroup/lpm/internal/archive"
	"github.com/lodosgroup/lpm/internal/catalog"
	"github.com/lodosgroup/lpm/internal/fetch"
	"github.com/lodosgroup/lpm/internal/fsutil"
	"github.com/lodosgroup/lpm/internal/lpmerr"
	"github.com/lodosgroup/lpm/internal/manifest"
	"github.com/lodosgroup/lpm/internal/repoindex"
	"github.com/lodosgroup/lpm/internal/validate"
	"github.com/lodosgroup/lpm/internal/version"
)

// InstallFromFile installs a single .lod blob already present on local
// disk, following the twelve-step sequence with rollback at every
// failure point. groupID names the package that owns this install's
// dependency closure ("" means the package is its own root); srcPkgID
// is the root's packages.id when this call is installing one member of
// a larger closure, left invalid for a standalone install.
func (e *Engine) InstallFromFile(ctx context.Context, blobPath string, groupID string, srcPkgID sql.NullInt64) error {
	releaseStem, err := e.Ctx.Locks.Acquire("scratch:" + archive.Stem(blobPath))
	if err != nil {
		return err
	}
	defer releaseStem()

	// Step 1: extract. No state change on failure.
	scratch, err := archive.Extract(blobPath)
	if err != nil {
		return err
	}

	// Step 2: load manifests.
	meta, files, system, scripts, err := loadManifests(scratch)
	if err != nil {
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	releaseName, err := e.Ctx.Locks.Acquire(meta.Name)
	if err != nil {
		scratch.Cleanup(e.Ctx.Log)
		return err
	}
	defer releaseName()

	// Step 3: already-installed short-circuit.
	if _, err := e.Ctx.Store.LoadPkgByName(ctx, meta.Name); err == nil {
		e.Ctx.Log.Infof("package %q already installed, skipping", meta.Name)
		return nil
	} else if !isDoesNotExist(err) {
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	// Step 4: validate.
	if err := validate.Validate(scratch, meta, files, system, e.HostArch, e.SelfVersion); err != nil {
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	if groupID == "" {
		groupID = meta.Name
	}

	// Step 5: open transaction.
	if err := e.Ctx.Store.Begin(ctx); err != nil {
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	// Step 6: insert package + file rows.
	pkgID, err := e.Ctx.Store.InsertPkg(ctx, meta, meta.Version, groupID)
	if err != nil {
		e.Ctx.Store.Rollback(ctx)
		scratch.Cleanup(e.Ctx.Log)
		return err
	}
	if srcPkgID.Valid {
		if err := e.Ctx.Store.SetSrcPkgID(ctx, pkgID, srcPkgID); err != nil {
			e.Ctx.Store.Rollback(ctx)
			scratch.Cleanup(e.Ctx.Log)
			return err
		}
	}
	if err := e.Ctx.Store.InsertFiles(ctx, pkgID, files); err != nil {
		e.Ctx.Store.Rollback(ctx)
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	// Step 7: pre_install.
	e.Ctx.Log.Infof("running pre_install for %s", meta.Name)
	if err := runScript(ctx, scripts, manifest.PreInstall); err != nil {
		e.Ctx.Store.Rollback(ctx)
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	// Step 8: copy scripts.
	if err := copyScripts(scripts, e.pkgScriptsDir(meta.Name)); err != nil {
		e.Ctx.Store.Rollback(ctx)
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	// Step 9: copy program payload.
	if err := copyProgramFiles(scratch, files, e); err != nil {
		e.Ctx.Store.Rollback(ctx)
		scratch.Cleanup(e.Ctx.Log)
		return err
	}

	// Step 10: cleanup scratch.
	scratch.Cleanup(e.Ctx.Log)

	// Step 11: post_install.
	e.Ctx.Log.Infof("running post_install for %s", meta.Name)
	if err := runScript(ctx, scripts, manifest.PostInstall); err != nil {
		e.Ctx.Store.Rollback(ctx)
		return err
	}

	// Step 12: commit.
	if err := e.Ctx.Store.Commit(ctx); err != nil {
		e.Ctx.Store.Rollback(ctx)
		return err
	}

	e.Ctx.Log.Okf("installed %s %s", meta.Name, meta.Version.Readable)
	return nil
}

// InstallFromRepository resolves name@constraint's dependency closure
// against the active repositories, downloads every member's blob in
// parallel, and installs each one via InstallFromFile on its own fresh
// catalog connection. srcPkgID is threaded uniformly to every closure
// member: the id is an argument of the whole call, not recomputed per
// package.
func (e *Engine) InstallFromRepository(ctx context.Context, queryStr string, srcPkgID sql.NullInt64) error {
	query, ok := version.ParseQuery(queryStr)
	if !ok {
		return &lpmerr.PackageError{Kind: lpmerr.InvalidPackageName, Name: queryStr}
	}

	if _, err := e.Ctx.Store.LoadPkgByName(ctx, query.Name); err == nil {
		e.Ctx.Log.Infof("package %q already installed, skipping", query.Name)
		return nil
	} else if !isDoesNotExist(err) {
		return err
	}

	repos, err := e.Ctx.Store.ListActiveRepositories(ctx)
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		e.Ctx.Log.Infof("no repository has been found within the database")
		return &lpmerr.RepositoryError{Kind: lpmerr.PackageNotFound, Name: query.Name}
	}
	sort.Slice(repos, func(i, j int) bool { return repos[i].ID < repos[j].ID })

	addrByRepoID := make(map[int64]string, len(repos))
	indexes := make([]*repoindex.Index, 0, len(repos))
	for _, r := range repos {
		idx, err := repoindex.Open(ctx, r.IndexDBPath, r.ID, r.Name)
		if err != nil {
			e.Ctx.Log.Errorf("%s repository is not initialized: %v", r.Name, err)
			continue
		}
		defer idx.Close()
		addrByRepoID[r.ID] = r.Address
		indexes = append(indexes, idx)
	}

	closure, err := repoindex.Resolve(ctx, indexes, query)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, member := range closure {
		member := member
		addr := addrByRepoID[member.RepositoryID]

		g.Go(func() error {
			outputPath := fetch.PkgOutputPath(e.CacheRoot, addr, member.Name, member.Version)
			url := fetch.PkgURL(addr, member.Name, member.Version)

			if err := fetch.Download(gctx, e.httpClient(), url, outputPath); err != nil {
				return err
			}

			store, err := catalog.Open(gctx, e.CorePath)
			if err != nil {
				return err
			}
			defer store.Close()

			memberEngine := e.withStore(store)
			e.Ctx.Log.Infof("package installation started for %s", outputPath)
			return memberEngine.InstallFromFile(gctx, outputPath, query.Name, srcPkgID)
		})
	}

	return g.Wait()
}

func (e *Engine) withStore(store *catalog.Store) *Engine {
	clone := *e
	ctxCopy := *e.Ctx
	ctxCopy.Store = store
	clone.Ctx = &ctxCopy
	return &clone
}

func loadManifests(scratch *archive.Scratch) (manifest.Meta, manifest.Files, manifest.System, manifest.ScriptSet, error) {
	var meta manifest.Meta
	var files manifest.Files
	var system manifest.System

	metaBytes, err := os.ReadFile(scratch.MetaPath())
	if err != nil {
		return meta, files, system, manifest.ScriptSet{}, &lpmerr.IOError{Op: "read", Path: scratch.MetaPath(), Err: err}
	}
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return meta, files, system, manifest.ScriptSet{}, err
	}

	filesBytes, err := os.ReadFile(scratch.FilesPath())
	if err != nil {
		return meta, files, system, manifest.ScriptSet{}, &lpmerr.IOError{Op: "read", Path: scratch.FilesPath(), Err: err}
	}
	if err := json.Unmarshal(filesBytes, &files); err != nil {
		return meta, files, system, manifest.ScriptSet{}, err
	}

	systemBytes, err := os.ReadFile(scratch.SystemPath())
	if err != nil {
		return meta, files, system, manifest.ScriptSet{}, &lpmerr.IOError{Op: "read", Path: scratch.SystemPath(), Err: err}
	}
	if err := json.Unmarshal(systemBytes, &system); err != nil {
		return meta, files, system, manifest.ScriptSet{}, err
	}

	scripts, err := manifest.LoadScripts(scratch.ScriptsDir())
	if err != nil {
		return meta, files, system, manifest.ScriptSet{}, err
	}

	return meta, files, system, scripts, nil
}

func copyProgramFiles(scratch *archive.Scratch, files manifest.Files, e *Engine) error {
	for _, f := range files {
		src := filepath.Join(scratch.ProgramDir(), filepath.FromSlash(f.Path))
		dest := e.rooted(f.AbsolutePath())

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return &lpmerr.IOError{Op: "mkdir", Path: filepath.Dir(dest), Err: err}
		}
		if err := fsutil.CopyFile(src, dest); err != nil {
			return &lpmerr.IOError{Op: "copy", Path: dest, Err: err}
		}
	}
	return nil
}
