package lifecycle

import (
	"errors"

	"github.com/lodosgroup/lpm/internal/lpmerr"
)

func isDoesNotExist(err error) bool {
	var pkgErr *lpmerr.PackageError
	return errors.As(err, &pkgErr) && pkgErr.Kind == lpmerr.DoesNotExist
}
