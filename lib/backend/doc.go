// Package backend defines the boundary between the engine and the
// distributed transactional key-value store it runs on.
//
// The engine never talks to a concrete store directly. It is written against
// three small interfaces:
//
//   - ITxnClient: a long-lived client able to begin optimistic transactions
//   - ITxn: one open transaction (read/write/scan, then commit or rollback)
//   - IRawClient: a long-lived client for direct, non-transactional access
//
// Two implementations exist:
//
//   - backend/tikv: the production implementation on top of
//     github.com/tikv/client-go/v2
//   - backend/memkv: an in-memory implementation used by the dev mode and
//     by the test suites (it can simulate commit-time write conflicts)
//
// The package also owns the error taxonomy shared by all implementations.
// Implementations must map their native failures onto these sentinels so the
// engine can make retry decisions without knowing the concrete store.
package backend
