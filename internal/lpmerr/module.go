package lpmerr

import "fmt"

type ModuleKind int

const (
	DynamicLibraryNotFound ModuleKind = iota
	EntrypointFunctionNotFound
	ModuleInternal
)

var moduleCodes = map[ModuleKind]int{
	DynamicLibraryNotFound:    40,
	EntrypointFunctionNotFound: 41,
	ModuleInternal:            42,
}

// ModuleError is the taxonomy for the dynamic module loader.
type ModuleError struct {
	Kind   ModuleKind
	Path   string
	Reason string
}

func (e *ModuleError) Error() string {
	switch e.Kind {
	case DynamicLibraryNotFound:
		return fmt.Sprintf("dynamic library not found: %s", e.Path)
	case EntrypointFunctionNotFound:
		return "entrypoint function lpm_entrypoint not found"
	case ModuleInternal:
		return fmt.Sprintf("module internal error: %s", e.Reason)
	default:
		return "module error"
	}
}

func (e *ModuleError) Code() int { return moduleCodes[e.Kind] }
