// Package module loads and invokes LPM's dynamic-library extension
// points. It replaces the original engine's raw dlopen/dlsym/dlclose
// FFI block with github.com/ebitengine/purego, which exposes the same
// ABI without requiring cgo.
package module

import (
	"context"
	"os"

	"github.com/ebitengine/purego"

	"github.com/lodosgroup/lpm/internal/catalog"
	"github.com/lodosgroup/lpm/internal/lpmerr"
)

// entrypointSymbol is the C symbol every module dylib must export.
const entrypointSymbol = "lpm_entrypoint"

// entrypointFn mirrors the module ABI's C signature: two borrowed,
// NUL-terminated paths (config file, core database) plus an argc/argv
// pair carrying the arguments given after the module name on
// "lpm module <name> [-- argv...]".
// All pointers are valid only for the duration of the call.
type entrypointFn func(configPath, dbPath *byte, argc uint32, argv **byte)

// dlopenFunc, dlsymFunc, dlcloseFunc, and invokeEntrypoint are seams
// over purego so AddModule's and TriggerModule's branching can be unit
// tested without a real dylib on disk; production code never reassigns
// them.
var (
	dlopenFunc       = purego.Dlopen
	dlsymFunc        = purego.Dlsym
	dlcloseFunc      = purego.Dlclose
	invokeEntrypoint = realInvokeEntrypoint
)

// AddModule validates that dylibPath exists and exports lpm_entrypoint,
// then registers it in the catalog under name.
func AddModule(ctx context.Context, store *catalog.Store, name, dylibPath string) (int64, error) {
	if _, err := os.Stat(dylibPath); err != nil {
		return 0, &lpmerr.ModuleError{Kind: lpmerr.DynamicLibraryNotFound, Path: dylibPath, Reason: err.Error()}
	}

	handle, err := dlopenFunc(dylibPath, purego.RTLD_NOW)
	if err != nil {
		return 0, &lpmerr.ModuleError{Kind: lpmerr.DynamicLibraryNotFound, Path: dylibPath, Reason: err.Error()}
	}
	defer dlcloseFunc(handle)

	if _, err := dlsymFunc(handle, entrypointSymbol); err != nil {
		return 0, &lpmerr.ModuleError{Kind: lpmerr.EntrypointFunctionNotFound, Path: dylibPath, Reason: err.Error()}
	}

	return store.InsertModule(ctx, name, dylibPath)
}

// DeleteModules removes every named module from the catalog. Names that
// aren't registered are skipped rather than failing the whole batch, so
// a caller can pass a list gathered loosely from the command line.
func DeleteModules(ctx context.Context, store *catalog.Store, names []string) error {
	for _, name := range names {
		if _, err := store.LoadModuleByName(ctx, name); err != nil {
			continue
		}
		if err := store.DeleteModule(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// PrintModules returns every registered module, for the CLI to render.
func PrintModules(ctx context.Context, store *catalog.Store) ([]catalog.Module, error) {
	return store.ListModules(ctx)
}

// TriggerModule loads the named module's dylib, invokes its entrypoint
// with the engine's config and database paths plus argv, and unloads it
// again. The handle never outlives this call.
func TriggerModule(ctx context.Context, store *catalog.Store, configPath, dbPath, name string, argv []string) error {
	mod, err := store.LoadModuleByName(ctx, name)
	if err != nil {
		return err
	}

	handle, err := dlopenFunc(mod.DylibPath, purego.RTLD_NOW)
	if err != nil {
		return &lpmerr.ModuleError{Kind: lpmerr.DynamicLibraryNotFound, Path: mod.DylibPath, Reason: err.Error()}
	}
	defer dlcloseFunc(handle)

	sym, err := dlsymFunc(handle, entrypointSymbol)
	if err != nil {
		return &lpmerr.ModuleError{Kind: lpmerr.EntrypointFunctionNotFound, Path: mod.DylibPath, Reason: err.Error()}
	}

	invokeEntrypoint(sym, configPath, dbPath, argv)
	return nil
}

// realInvokeEntrypoint registers sym as a Go function value through
// purego and calls it with the borrowed C strings the ABI expects.
func realInvokeEntrypoint(sym uintptr, configPath, dbPath string, argv []string) {
	var entrypoint entrypointFn
	purego.RegisterFunc(&entrypoint, sym)

	cfgBytes := cString(configPath)
	dbBytes := cString(dbPath)
	argvPtrs := cStringArray(argv)

	var argvHead **byte
	if len(argvPtrs) > 0 {
		argvHead = &argvPtrs[0]
	}

	entrypoint(&cfgBytes[0], &dbBytes[0], uint32(len(argv)), argvHead)
}

// cString returns s as a NUL-terminated byte slice, the form purego's
// registered C function pointers expect for a char*.
func cString(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

// cStringArray builds one NUL-terminated byte slice per element and
// returns their addresses, the layout a char** argument expects.
func cStringArray(args []string) []*byte {
	if len(args) == 0 {
		return nil
	}
	ptrs := make([]*byte, len(args))
	for i, a := range args {
		b := cString(a)
		ptrs[i] = &b[0]
	}
	return ptrs
}
