package engine

import (
	"context"

	"github.com/ValentinKolb/redikv/lib/backend"
	"github.com/ValentinKolb/redikv/lib/metrics"
)

// --------------------------------------------------------------------------
// Raw Path
// --------------------------------------------------------------------------

// RawCtx executes commands on the raw (non-transactional) session. This path
// serves deployments that accept best-effort semantics for the string and
// key families; every operation is individually atomic but there are no
// cross-key guarantees.
//
// Command families that need multi-step atomicity (lists, hashes, sets,
// sorted sets, counters) are refused with backend.ErrUnsupported instead of
// being applied partially.
type RawCtx struct {
	e *Engine
}

// Raw creates a raw command context.
func (e *Engine) Raw() *RawCtx {
	return &RawCtx{e: e}
}

// Get returns the value of key.
func (c *RawCtx) Get(ctx context.Context, key []byte) (value []byte, found bool, err error) {
	session, err := c.e.pool.AcquireRawSession()
	if err != nil {
		return nil, false, err
	}
	metrics.RawOpCounter.Inc()

	val, err := session.Get(ctx, c.e.enc.StringKey(key))
	if err != nil {
		if backend.IsKeyNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// MGet returns the values for all keys; absent keys yield a nil entry.
func (c *RawCtx) MGet(ctx context.Context, keys [][]byte) ([][]byte, error) {
	session, err := c.e.pool.AcquireRawSession()
	if err != nil {
		return nil, err
	}
	metrics.RawOpCounter.Inc()

	encoded := make([][]byte, len(keys))
	for i, k := range keys {
		encoded[i] = c.e.enc.StringKey(k)
	}
	found, err := session.BatchGet(ctx, encoded)
	if err != nil {
		return nil, err
	}
	values := make([][]byte, len(keys))
	for i, k := range encoded {
		if v, ok := found[string(k)]; ok {
			values[i] = v
		}
	}
	return values, nil
}

// Set stores value under key.
func (c *RawCtx) Set(ctx context.Context, key, value []byte) error {
	session, err := c.e.pool.AcquireRawSession()
	if err != nil {
		return err
	}
	metrics.RawOpCounter.Inc()
	return session.Put(ctx, c.e.enc.StringKey(key), value)
}

// MSet stores all pairs. Each pair is atomic on its own; raw mode gives no
// cross-key atomicity.
func (c *RawCtx) MSet(ctx context.Context, pairs []backend.KVPair) error {
	session, err := c.e.pool.AcquireRawSession()
	if err != nil {
		return err
	}
	metrics.RawOpCounter.Inc()

	encoded := make([]backend.KVPair, len(pairs))
	for i, p := range pairs {
		encoded[i] = backend.KVPair{Key: c.e.enc.StringKey(p.Key), Value: p.Value}
	}
	return session.BatchPut(ctx, encoded)
}

// Del removes keys and returns how many of them existed.
func (c *RawCtx) Del(ctx context.Context, keys [][]byte) (int64, error) {
	session, err := c.e.pool.AcquireRawSession()
	if err != nil {
		return 0, err
	}
	metrics.RawOpCounter.Inc()

	encoded := make([][]byte, len(keys))
	for i, k := range keys {
		encoded[i] = c.e.enc.StringKey(k)
	}
	found, err := session.BatchGet(ctx, encoded)
	if err != nil {
		return 0, err
	}
	if err := session.BatchDelete(ctx, encoded); err != nil {
		return 0, err
	}
	return int64(len(found)), nil
}

// Exists returns how many of the given keys exist.
func (c *RawCtx) Exists(ctx context.Context, keys [][]byte) (int64, error) {
	session, err := c.e.pool.AcquireRawSession()
	if err != nil {
		return 0, err
	}
	metrics.RawOpCounter.Inc()

	encoded := make([][]byte, len(keys))
	for i, k := range keys {
		encoded[i] = c.e.enc.StringKey(k)
	}
	found, err := session.BatchGet(ctx, encoded)
	if err != nil {
		return 0, err
	}
	return int64(len(found)), nil
}

// Strlen returns the length of the value stored at key (0 if absent).
func (c *RawCtx) Strlen(ctx context.Context, key []byte) (int64, error) {
	val, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return 0, err
	}
	return int64(len(val)), nil
}

// --------------------------------------------------------------------------
// Refused Families
// --------------------------------------------------------------------------
//
// The operations below are read-modify-write sequences over several keys.
// Without a transaction a failure mid-sequence would leave the collection
// half-mutated, so the raw path refuses them outright.

// IncrBy is not available in raw mode.
func (c *RawCtx) IncrBy(context.Context, []byte, int64) (int64, error) {
	return 0, backend.ErrUnsupported
}

// LTrim is not available in raw mode.
func (c *RawCtx) LTrim(context.Context, []byte, int64, int64) error {
	return backend.ErrUnsupported
}
