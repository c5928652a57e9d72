// Package memkv is an in-memory implementation of the backend interfaces.
//
// It exists for two reasons:
//
//   - dev mode: `redikv serve --backend memory` runs the full server without
//     a TiKV cluster, useful for local protocol work
//   - tests: the engine and command test suites run against it; it can be
//     told to fail the next n commits with a write conflict so the retry
//     behavior of the engine is testable deterministically
//
// Concurrency control is optimistic, mirroring the production store: a
// transaction records the version of every key it reads and commit fails
// with backend.ErrWriteConflict if any of those keys has been written in the
// meantime. Writes are buffered and applied atomically under the store lock.
package memkv
