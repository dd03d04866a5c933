// Package lpmerr is the tagged error taxonomy shared by every layer of the
// lifecycle engine. Each kind carries a single-line reason and a stable
// result code for external consumers. Components return these values
// across boundaries without wrapping them; no propagation chain or source
// location is attached.
package lpmerr

import "fmt"

// PackageKind enumerates PackageError's tagged variants.
type PackageKind int

const (
	InvalidPackageFiles PackageKind = iota
	UnsupportedPackageArchitecture
	UnsupportedChecksumAlgorithm
	InstallationFailed
	UnsupportedStandard
	DeletionFailed
	AlreadyInstalled
	DoesNotExist
	UnrecognizedRepository
	DbOperationFailed
	FailedExecutingStage1Script
	InvalidPackageName
	DependencyOfAnotherPackage
)

// codes are the stable integer result codes surfaced to external consumers,
// independent of error-kind ordinal so a future kind insertion doesn't
// renumber existing codes.
var packageCodes = map[PackageKind]int{
	InvalidPackageFiles:            10,
	UnsupportedPackageArchitecture: 11,
	UnsupportedChecksumAlgorithm:   12,
	InstallationFailed:             13,
	UnsupportedStandard:            14,
	DeletionFailed:                 15,
	AlreadyInstalled:               16,
	DoesNotExist:                   17,
	UnrecognizedRepository:         18,
	DbOperationFailed:              19,
	FailedExecutingStage1Script:    20,
	InvalidPackageName:             21,
	DependencyOfAnotherPackage:     22,
}

// PackageError is the taxonomy for failures in manifest parsing, validation,
// and the lifecycle engine.
type PackageError struct {
	Kind   PackageKind
	Name   string // package name or query, depending on Kind
	Arch   string // UnsupportedPackageArchitecture
	Algo   string // UnsupportedChecksumAlgorithm
	Why    string // UnsupportedStandard, DbOperationFailed; detail on InvalidPackageFiles
	Script string // FailedExecutingStage1Script
	Stderr string // FailedExecutingStage1Script
	DependsOn string // DependencyOfAnotherPackage
}

func (e *PackageError) Error() string {
	switch e.Kind {
	case InvalidPackageFiles:
		return "package files are invalid or corrupted"
	case UnsupportedPackageArchitecture:
		return fmt.Sprintf("unsupported package architecture %q", e.Arch)
	case UnsupportedChecksumAlgorithm:
		return fmt.Sprintf("unsupported checksum algorithm %q", e.Algo)
	case InstallationFailed:
		return fmt.Sprintf("installation failed for package %q", e.Name)
	case UnsupportedStandard:
		return fmt.Sprintf("package %q violates standard: %s", e.Name, e.Why)
	case DeletionFailed:
		return fmt.Sprintf("deletion failed for package %q", e.Name)
	case AlreadyInstalled:
		return fmt.Sprintf("package %q is already installed", e.Name)
	case DoesNotExist:
		return fmt.Sprintf("package %q does not exist", e.Name)
	case UnrecognizedRepository:
		return fmt.Sprintf("unrecognized repository %q", e.Name)
	case DbOperationFailed:
		return fmt.Sprintf("database operation failed: %s", e.Why)
	case FailedExecutingStage1Script:
		return fmt.Sprintf("stage-1 script %q failed: %s", e.Script, e.Stderr)
	case InvalidPackageName:
		return fmt.Sprintf("invalid package query %q", e.Name)
	case DependencyOfAnotherPackage:
		return fmt.Sprintf("package %q is a dependency of %q", e.Name, e.DependsOn)
	default:
		return "package error"
	}
}

// Code returns the stable integer result code for this error.
func (e *PackageError) Code() int { return packageCodes[e.Kind] }
