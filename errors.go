package naturaldb

import (
	"errors"
	"fmt"

	"github.com/felix-wang-0307/NaturalDB/blobstore"
	"github.com/felix-wang-0307/NaturalDB/ident"
	"github.com/felix-wang-0307/NaturalDB/locker"
	"github.com/felix-wang-0307/NaturalDB/query"
	"github.com/felix-wang-0307/NaturalDB/storage"
)

var (
	// ErrInvalidIdentifier is returned for user, database, table or
	// record identifiers that are empty, too long, reserved, or would
	// escape the storage subtree.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrAlreadyExists is returned when creating a resource that is
	// already present.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound is returned when a user, database, table, record or
	// backup does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLockTimeout is returned when a lock cannot be acquired within
	// the configured timeout.
	ErrLockTimeout = errors.New("lock timeout")

	// ErrSerialization is returned when a payload cannot be encoded or
	// a stored file cannot be decoded.
	ErrSerialization = errors.New("serialization error")

	// ErrInvalidQuery is returned for malformed query conditions and
	// aggregations.
	ErrInvalidQuery = errors.New("invalid query")
)

// translateError unifies subpackage sentinels into the package-level
// error taxonomy. The original error stays reachable via errors.Is /
// errors.Unwrap.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ident.ErrInvalidIdentifier):
		return fmt.Errorf("%w: %w", ErrInvalidIdentifier, err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, blobstore.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, locker.ErrLockTimeout):
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	case errors.Is(err, storage.ErrSerialization):
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	case errors.Is(err, query.ErrInvalidQuery):
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return err
}
