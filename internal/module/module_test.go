package module

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lodosgroup/lpm/internal/catalog"
	"github.com/lodosgroup/lpm/internal/lpmerr"
)

func newTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(context.Background(), filepath.Join(t.TempDir(), "core-db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// fakeDlopen, when installed, lets AddModule/TriggerModule's branching
// be exercised without a real dylib on disk, per the loader's seam.
func fakeDlopen(ok bool) func(string, int) (uintptr, error) {
	return func(string, int) (uintptr, error) {
		if !ok {
			return 0, errors.New("cannot load library")
		}
		return 1, nil
	}
}

func fakeDlsym(ok bool) func(uintptr, string) (uintptr, error) {
	return func(uintptr, string) (uintptr, error) {
		if !ok {
			return 0, errors.New("undefined symbol")
		}
		return 1, nil
	}
}

func withFakes(t *testing.T, dlopenOK, dlsymOK bool) {
	t.Helper()
	origOpen, origSym, origClose := dlopenFunc, dlsymFunc, dlcloseFunc
	dlopenFunc = fakeDlopen(dlopenOK)
	dlsymFunc = fakeDlsym(dlsymOK)
	dlcloseFunc = func(uintptr) error { return nil }
	t.Cleanup(func() {
		dlopenFunc, dlsymFunc, dlcloseFunc = origOpen, origSym, origClose
	})
}

func TestAddModuleMissingFileFailsBeforeDlopen(t *testing.T) {
	store := newTestStore(t)
	withFakes(t, true, true)

	_, err := AddModule(context.Background(), store, "hooker", filepath.Join(t.TempDir(), "does-not-exist.so"))
	require.Error(t, err)

	var modErr *lpmerr.ModuleError
	require.ErrorAs(t, err, &modErr)
	require.Equal(t, lpmerr.DynamicLibraryNotFound, modErr.Kind)
}

func TestAddModuleDlopenFailureIsDynamicLibraryNotFound(t *testing.T) {
	store := newTestStore(t)
	withFakes(t, false, true)

	dylib := filepath.Join(t.TempDir(), "hook.so")
	require.NoError(t, writeFile(dylib))

	_, err := AddModule(context.Background(), store, "hooker", dylib)
	require.Error(t, err)

	var modErr *lpmerr.ModuleError
	require.ErrorAs(t, err, &modErr)
	require.Equal(t, lpmerr.DynamicLibraryNotFound, modErr.Kind)
}

func TestAddModuleMissingEntrypointFails(t *testing.T) {
	store := newTestStore(t)
	withFakes(t, true, false)

	dylib := filepath.Join(t.TempDir(), "hook.so")
	require.NoError(t, writeFile(dylib))

	_, err := AddModule(context.Background(), store, "hooker", dylib)
	require.Error(t, err)

	var modErr *lpmerr.ModuleError
	require.ErrorAs(t, err, &modErr)
	require.Equal(t, lpmerr.EntrypointFunctionNotFound, modErr.Kind)
}

func TestAddModuleSucceedsAndRegisters(t *testing.T) {
	store := newTestStore(t)
	withFakes(t, true, true)

	dylib := filepath.Join(t.TempDir(), "hook.so")
	require.NoError(t, writeFile(dylib))

	id, err := AddModule(context.Background(), store, "hooker", dylib)
	require.NoError(t, err)
	require.NotZero(t, id)

	mods, err := PrintModules(context.Background(), store)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	require.Equal(t, "hooker", mods[0].Name)
}

func TestDeleteModulesSkipsUnregisteredNames(t *testing.T) {
	store := newTestStore(t)
	withFakes(t, true, true)

	dylib := filepath.Join(t.TempDir(), "hook.so")
	require.NoError(t, writeFile(dylib))
	_, err := AddModule(context.Background(), store, "hooker", dylib)
	require.NoError(t, err)

	require.NoError(t, DeleteModules(context.Background(), store, []string{"hooker", "ghost"}))

	mods, err := PrintModules(context.Background(), store)
	require.NoError(t, err)
	require.Empty(t, mods)
}

func TestTriggerModuleInvokesEntrypointWithExpectedArgs(t *testing.T) {
	store := newTestStore(t)
	withFakes(t, true, true)

	dylib := filepath.Join(t.TempDir(), "hook.so")
	require.NoError(t, writeFile(dylib))
	_, err := AddModule(context.Background(), store, "hooker", dylib)
	require.NoError(t, err)

	var gotConfigPath, gotDBPath string
	var gotArgv []string
	origInvoke := invokeEntrypoint
	invokeEntrypoint = func(sym uintptr, configPath, dbPath string, argv []string) {
		gotConfigPath, gotDBPath, gotArgv = configPath, dbPath, argv
	}
	t.Cleanup(func() { invokeEntrypoint = origInvoke })

	require.NoError(t, TriggerModule(context.Background(), store, "/etc/lpm/conf", "/var/lib/lpm/core.db", "hooker", []string{"a", "b"}))
	require.Equal(t, "/etc/lpm/conf", gotConfigPath)
	require.Equal(t, "/var/lib/lpm/core.db", gotDBPath)
	require.Equal(t, []string{"a", "b"}, gotArgv)
}

func TestTriggerModuleUnknownNameFails(t *testing.T) {
	store := newTestStore(t)
	withFakes(t, true, true)

	err := TriggerModule(context.Background(), store, "/etc/lpm/conf", "/var/lib/lpm/core.db", "ghost", nil)
	require.Error(t, err)
}

func writeFile(path string) error {
	return os.WriteFile(path, []byte("not a real shared object, only presence is checked"), 0o644)
}
