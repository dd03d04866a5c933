package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lodosgroup/lpm/internal/manifest"
	"github.com/lodosgroup/lpm/internal/version"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "core.db")
	s, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustVersion(t *testing.T, s string) version.Version {
	t.Helper()
	v, err := version.Parse(s)
	require.NoError(t, err)
	return v
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "core.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Close())

	s2, err := Open(ctx, path)
	require.NoError(t, err)
	defer s2.Close()
	require.NoError(t, s2.Migrate(ctx))
}

func TestInsertAndLoadPkgRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	meta := manifest.Meta{Name: "foo", InstalledSize: 4096}
	ver := mustVersion(t, "1.2.3")
	files := manifest.Files{{Path: "usr/bin/foo", ChecksumAlgorithm: "sha256", Checksum: "abc123"}}

	id, err := s.InsertPkg(ctx, meta, ver, "foo")
	require.NoError(t, err)
	require.NoError(t, s.InsertFiles(ctx, id, files))

	pkg, err := s.LoadPkgByName(ctx, "foo")
	require.NoError(t, err)
	require.Equal(t, "foo", pkg.Name)
	require.Equal(t, "foo", pkg.GroupID)
	require.EqualValues(t, 1, pkg.Version.Major)
	require.EqualValues(t, 2, pkg.Version.Minor)
	require.EqualValues(t, 3, pkg.Version.Patch)
	require.Len(t, pkg.Files, 1)
	require.Equal(t, "/usr/bin/foo", pkg.Files[0].AbsolutePath)
}

func TestInsertPkgAlreadyInstalled(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	meta := manifest.Meta{Name: "foo", InstalledSize: 1}
	ver := mustVersion(t, "1.0.0")
	_, err := s.InsertPkg(ctx, meta, ver, "foo")
	require.NoError(t, err)

	_, err = s.InsertPkg(ctx, meta, ver, "foo")
	require.Error(t, err)
}

func TestLoadPkgByNameDoesNotExist(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.LoadPkgByName(ctx, "missing")
	require.Error(t, err)
}

func TestUpdatePkgReplacesFiles(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	meta := manifest.Meta{Name: "foo", InstalledSize: 1}
	v1 := mustVersion(t, "1.0.0")
	oldFiles := manifest.Files{{Path: "a", ChecksumAlgorithm: "md5", Checksum: "x"}}
	id, err := s.InsertPkg(ctx, meta, v1, "foo")
	require.NoError(t, err)
	require.NoError(t, s.InsertFiles(ctx, id, oldFiles))

	v2 := mustVersion(t, "2.0.0")
	newFiles := manifest.Files{{Path: "b", ChecksumAlgorithm: "md5", Checksum: "y"}}
	require.NoError(t, s.UpdatePkg(ctx, id, v2, 2, newFiles))

	pkg, err := s.LoadPkgByName(ctx, "foo")
	require.NoError(t, err)
	require.EqualValues(t, 2, pkg.Version.Major)
	require.Len(t, pkg.Files, 1)
	require.Equal(t, "/b", pkg.Files[0].AbsolutePath)
}

func TestDeletePkgCascadesFiles(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	meta := manifest.Meta{Name: "foo", InstalledSize: 1}
	v1 := mustVersion(t, "1.0.0")
	id, err := s.InsertPkg(ctx, meta, v1, "foo")
	require.NoError(t, err)
	require.NoError(t, s.InsertFiles(ctx, id, manifest.Files{{Path: "a", ChecksumAlgorithm: "md5", Checksum: "x"}}))

	require.NoError(t, s.DeletePkg(ctx, id))

	_, err = s.LoadPkgByName(ctx, "foo")
	require.Error(t, err)

	owners, err := s.FindPathOwners(ctx, "/a")
	require.NoError(t, err)
	require.Empty(t, owners)
}

func TestFindPathOwners(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	meta := manifest.Meta{Name: "foo", InstalledSize: 1}
	v1 := mustVersion(t, "1.0.0")
	id, err := s.InsertPkg(ctx, meta, v1, "foo")
	require.NoError(t, err)
	require.NoError(t, s.InsertFiles(ctx, id, manifest.Files{{Path: "usr/bin/foo", ChecksumAlgorithm: "md5", Checksum: "x"}}))

	owners, err := s.FindPathOwners(ctx, "/usr/bin/foo")
	require.NoError(t, err)
	require.Equal(t, []string{"foo"}, owners)
}

func TestNestedTransactionsViaSavepoint(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Begin(ctx))
	meta := manifest.Meta{Name: "foo", InstalledSize: 1}
	v1 := mustVersion(t, "1.0.0")
	id, err := s.InsertPkg(ctx, meta, v1, "foo")
	require.NoError(t, err)

	require.NoError(t, s.Begin(ctx)) // nested: SAVEPOINT
	require.NoError(t, s.InsertFiles(ctx, id, manifest.Files{{Path: "a", ChecksumAlgorithm: "md5", Checksum: "x"}}))
	require.NoError(t, s.Rollback(ctx)) // rolls back only the nested scope

	require.NoError(t, s.Commit(ctx)) // commits the package insert

	pkg, err := s.LoadPkgByName(ctx, "foo")
	require.NoError(t, err)
	require.Empty(t, pkg.Files)
}

func TestRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.InsertRepository(ctx, Repository{Name: "main", Address: "https://example.test/repo", IndexDBPath: "/var/lib/lpm/index/main.db", IsActive: true})
	require.NoError(t, err)

	r, err := s.LoadRepositoryByName(ctx, "main")
	require.NoError(t, err)
	require.True(t, r.IsActive)

	active, err := s.ListActiveRepositories(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, s.SetRepositoryActive(ctx, "main", false))
	active, err = s.ListActiveRepositories(ctx)
	require.NoError(t, err)
	require.Empty(t, active)

	require.NoError(t, s.DeleteRepository(ctx, "main"))
	_, err = s.LoadRepositoryByName(ctx, "main")
	require.Error(t, err)
}

func TestModuleCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.InsertModule(ctx, "notify", "/usr/lib/lpm/notify.so")
	require.NoError(t, err)

	m, err := s.LoadModuleByName(ctx, "notify")
	require.NoError(t, err)
	require.Equal(t, "/usr/lib/lpm/notify.so", m.DylibPath)

	mods, err := s.ListModules(ctx)
	require.NoError(t, err)
	require.Len(t, mods, 1)

	require.NoError(t, s.DeleteModule(ctx, "notify"))
	_, err = s.LoadModuleByName(ctx, "notify")
	require.Error(t, err)
}
