package repoindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lodosgroup/lpm/internal/version"
	"github.com/stretchr/testify/require"
)

func mustVersion(t *testing.T, s string) version.Version {
	t.Helper()
	v, err := version.Parse(s)
	require.NoError(t, err)
	return v
}

func openTestIndex(t *testing.T, id int64, name string) *Index {
	t.Helper()
	ctx := context.Background()
	idx, err := Open(ctx, filepath.Join(t.TempDir(), name+".db"), id, name)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestGetPackagePicksHighestSatisfying(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, 1, "main")

	require.NoError(t, idx.InsertPackage(ctx, "foo", mustVersion(t, "1.0.0"), nil))
	require.NoError(t, idx.InsertPackage(ctx, "foo", mustVersion(t, "2.1.0"), nil))

	v, ok, err := idx.GetPackage(ctx, "foo", mustVersion(t, ">=1.0.0"))
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 2, v.Major)
}

func TestGetPackageNoSatisfyingVersion(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, 1, "main")
	require.NoError(t, idx.InsertPackage(ctx, "foo", mustVersion(t, "1.0.0"), nil))

	_, ok, err := idx.GetPackage(ctx, "foo", mustVersion(t, ">=2.0.0"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResolveDependencyClosure(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, 1, "main")

	require.NoError(t, idx.InsertPackage(ctx, "b", mustVersion(t, "2.1.0"), nil))
	require.NoError(t, idx.InsertPackage(ctx, "a", mustVersion(t, "1.0.0"), []struct {
		Name string
		Ver  version.Version
	}{{Name: "b", Ver: mustVersion(t, ">=2.0.0")}}))

	resolved, err := Resolve(ctx, []*Index{idx}, version.Query{Name: "a", Version: mustVersion(t, "1.0.0")})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	require.Equal(t, "a", resolved[0].Name)
	require.Equal(t, "b", resolved[1].Name)
}

func TestResolveDependencyCycleTerminates(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, 1, "main")

	require.NoError(t, idx.InsertPackage(ctx, "a", mustVersion(t, "1.0.0"), []struct {
		Name string
		Ver  version.Version
	}{{Name: "b", Ver: mustVersion(t, ">=1.0.0")}}))
	require.NoError(t, idx.InsertPackage(ctx, "b", mustVersion(t, "1.0.0"), []struct {
		Name string
		Ver  version.Version
	}{{Name: "a", Ver: mustVersion(t, ">=1.0.0")}}))

	resolved, err := Resolve(ctx, []*Index{idx}, version.Query{Name: "a", Version: mustVersion(t, "1.0.0")})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
}

func TestResolvePackageNotFound(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, 1, "main")

	_, err := Resolve(ctx, []*Index{idx}, version.Query{Name: "missing", Latest: true})
	require.Error(t, err)
}

func TestResolveUnionsDependenciesAcrossRepositoriesClaimingSameEntry(t *testing.T) {
	ctx := context.Background()
	repo1 := openTestIndex(t, 1, "repo1")
	repo2 := openTestIndex(t, 2, "repo2")

	// Both repositories carry a@1.0.0, but only repo2's copy depends on b.
	require.NoError(t, repo1.InsertPackage(ctx, "a", mustVersion(t, "1.0.0"), nil))
	require.NoError(t, repo2.InsertPackage(ctx, "a", mustVersion(t, "1.0.0"), []struct {
		Name string
		Ver  version.Version
	}{{Name: "b", Ver: mustVersion(t, ">=1.0.0")}}))
	require.NoError(t, repo2.InsertPackage(ctx, "b", mustVersion(t, "1.0.0"), nil))

	resolved, err := Resolve(ctx, []*Index{repo1, repo2}, version.Query{Name: "a", Version: mustVersion(t, "1.0.0")})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	require.Equal(t, "a", resolved[0].Name)
	require.EqualValues(t, 1, resolved[0].RepositoryID, "first active repository wins the version claim")
	require.Equal(t, "b", resolved[1].Name)
	require.EqualValues(t, 2, resolved[1].RepositoryID)
}

func TestResolveLatestPicksHighestVersion(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t, 1, "main")
	require.NoError(t, idx.InsertPackage(ctx, "a", mustVersion(t, "1.0.0"), nil))
	require.NoError(t, idx.InsertPackage(ctx, "a", mustVersion(t, "3.2.1"), nil))

	resolved, err := Resolve(ctx, []*Index{idx}, version.Query{Name: "a", Latest: true})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.EqualValues(t, 3, resolved[0].Version.Major)
}
