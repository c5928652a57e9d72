// Package engine is the transactional execution core of the server.
//
// It translates structure-level commands (strings, lists, hashes, sets,
// sorted sets) into operations against a distributed transactional
// key-value backend while preserving per-command atomicity:
//
//   - KeyEncoder maps logical collection keys, members and metadata slots
//     onto canonical backend byte keys (deterministic, injective,
//     order-preserving for range scans)
//   - SessionPool owns a fixed set of transactional backend sessions plus
//     one raw session and hands them out via a pluggable selection policy
//     (round-robin atomic counter by default)
//   - Engine.RunTxn executes one read-modify-write closure as one optimistic
//     transaction and retries the whole closure with backoff on write
//     conflicts; all structure commands share this single retry policy
//   - RawCtx is the non-transactional fast path for command families that
//     tolerate weaker guarantees; families needing multi-key atomicity are
//     refused there instead of being applied partially
//
// The engine assumes validated input. Argument-shape validation (arity,
// integer parsing) happens in the protocol layer before the engine is
// invoked.
package engine
