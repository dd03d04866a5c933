package lpmerr

import "fmt"

type RepositoryKind int

const (
	RepositoryNotFound RepositoryKind = iota
	RepositoryAlreadyExists
	PackageNotFound
	RepositoryInternal
)

var repositoryCodes = map[RepositoryKind]int{
	RepositoryNotFound:      30,
	RepositoryAlreadyExists: 31,
	PackageNotFound:         32,
	RepositoryInternal:      33,
}

// RepositoryError is the taxonomy for repository registration and the
// dependency-closure resolver.
type RepositoryError struct {
	Kind   RepositoryKind
	Name   string
	Reason string
}

func (e *RepositoryError) Error() string {
	switch e.Kind {
	case RepositoryNotFound:
		return fmt.Sprintf("repository %q not found", e.Name)
	case RepositoryAlreadyExists:
		return fmt.Sprintf("repository %q already exists", e.Name)
	case PackageNotFound:
		return fmt.Sprintf("package %q not found in any active repository", e.Name)
	case RepositoryInternal:
		return fmt.Sprintf("repository internal error: %s", e.Reason)
	default:
		return "repository error"
	}
}

func (e *RepositoryError) Code() int { return repositoryCodes[e.Kind] }
