// Package tikv is the production backend implementation on top of the
// official TiKV Go client (github.com/tikv/client-go/v2).
//
// It adapts the client to the backend interfaces in three ways:
//
//   - the per-call timeout from backend.Config is applied to every store
//     call, so a stuck region or network never blocks a command forever
//   - missing keys are mapped onto backend.ErrKeyNotFound (the raw client
//     reports absence as a nil value, the transactional client as a typed
//     error)
//   - commit-time write conflicts are mapped onto backend.ErrWriteConflict
//     so the engine's retry loop stays ignorant of client-go error types
//
// Client tuning (batching, keepalive, overload threshold, TLS material) is
// applied once to the client-go global configuration before the first client
// is created; the knobs are process-wide by client-go design.
package tikv
