package backend

import "errors"

// --------------------------------------------------------------------------
// Error Taxonomy
// --------------------------------------------------------------------------

var (
	// ErrKeyNotFound is returned by point reads for absent keys.
	ErrKeyNotFound = errors.New("backend: key not found")

	// ErrWriteConflict marks a commit-time optimistic-concurrency conflict.
	// This is the only error class the engine recovers from by retrying.
	ErrWriteConflict = errors.New("backend: write conflict")

	// ErrNotConnected is returned by every session accessor before the pool
	// has connected successfully.
	ErrNotConnected = errors.New("backend: not connected")

	// ErrUnsupported is returned for operations a backend access mode cannot
	// serve, e.g. multi-key atomic commands on the raw (non-transactional)
	// path.
	ErrUnsupported = errors.New("backend: operation not supported in this mode")
)

// IsConflict reports whether err is (or wraps) a write conflict and the
// enclosing transaction should be retried from the beginning.
func IsConflict(err error) bool {
	return errors.Is(err, ErrWriteConflict)
}

// IsKeyNotFound reports whether err is (or wraps) a missing-key read result.
func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}
