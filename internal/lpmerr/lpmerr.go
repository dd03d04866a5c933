package lpmerr

// Coded is implemented by every error kind in this package. External
// consumers (the CLI's exit path, a loaded dynamic module) use Code to
// report a stable result code without depending on the concrete type.
type Coded interface {
	error
	Code() int
}

// ExitCode is the process exit status for any unrecovered error reaching
// main, per the CLI surface contract.
const ExitCode = 101

var (
	_ Coded = (*PackageError)(nil)
	_ Coded = (*RepositoryError)(nil)
	_ Coded = (*ModuleError)(nil)
	_ Coded = (*DbError)(nil)
	_ Coded = (*IOError)(nil)
)
