package lpmerr

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestPackageErrorMessages(t *testing.T) {
	err := &PackageError{Kind: AlreadyInstalled, Name: "foo"}
	require.Equal(t, `package "foo" is already installed`, err.Error())
	require.Equal(t, 16, err.Code())
}

func TestDependencyOfAnotherPackage(t *testing.T) {
	err := &PackageError{Kind: DependencyOfAnotherPackage, Name: "libfoo", DependsOn: "foo"}
	require.Equal(t, `package "libfoo" is a dependency of "foo"`, err.Error())
}

func TestChainPreservesCause(t *testing.T) {
	leaf := &RepositoryError{Kind: PackageNotFound, Name: "bar"}
	wrapped := pkgerrors.Wrap(leaf, "resolving closure")

	var got *RepositoryError
	require.True(t, errors.As(wrapped, &got))
	require.Equal(t, leaf, got)
	require.Equal(t, 32, got.Code())
}

func TestIOErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := &IOError{Op: "write", Path: "/var/lib/lpm/db/core-db", Err: inner}
	require.ErrorIs(t, err, inner)
	require.Equal(t, 90, err.Code())
}
