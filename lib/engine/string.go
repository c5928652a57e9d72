package engine

import (
	"context"
	"math"
	"strconv"

	"github.com/ValentinKolb/redikv/lib/backend"
)

// --------------------------------------------------------------------------
// String Commands
// --------------------------------------------------------------------------

// StringCtx executes string commands. A non-nil txn makes all operations run
// inside that externally managed transaction instead of their own.
type StringCtx struct {
	e   *Engine
	txn backend.ITxn
}

// Strings creates a string command context. txn may be nil.
func (e *Engine) Strings(txn backend.ITxn) *StringCtx {
	return &StringCtx{e: e, txn: txn}
}

// Get returns the value of key. found is false for absent keys.
func (c *StringCtx) Get(ctx context.Context, key []byte) (value []byte, found bool, err error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		val, err := txn.Get(ctx, c.e.enc.StringKey(key))
		if backend.IsKeyNotFound(err) {
			return nil, nil
		}
		return val, err
	})
	if err != nil || result == nil {
		return nil, false, err
	}
	return result.([]byte), true, nil
}

// MGet returns the values for all keys; absent keys yield a nil entry.
func (c *StringCtx) MGet(ctx context.Context, keys [][]byte) ([][]byte, error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		encoded := make([][]byte, len(keys))
		for i, k := range keys {
			encoded[i] = c.e.enc.StringKey(k)
		}
		found, err := txn.BatchGet(ctx, encoded)
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
	})
	if err != nil {
		return nil, err
	}
	return result.([][]byte), nil
}

// Set stores value under key, overwriting any previous value.
func (c *StringCtx) Set(ctx context.Context, key, value []byte) error {
	_, err := c.e.RunTxn(ctx, c.txn, func(_ context.Context, txn backend.ITxn) (interface{}, error) {
		return nil, txn.Set(c.e.enc.StringKey(key), value)
	})
	return err
}

// SetNX stores value only if key does not exist yet.
func (c *StringCtx) SetNX(ctx context.Context, key, value []byte) (set bool, err error) {
	result, err := c.e.RunTxn(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		encoded := c.e.enc.StringKey(key)
		_, err := txn.Get(ctx, encoded)
		if err == nil {
			return false, nil
		}
		if !backend.IsKeyNotFound(err) {
			return false, err
		}
		return true, txn.Set(encoded, value)
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// MSet stores all pairs atomically.
func (c *StringCtx) MSet(ctx context.Context, pairs []backend.KVPair) error {
	_, err := c.e.RunTxn(ctx, c.txn, func(_ context.Context, txn backend.ITxn) (interface{}, error) {
		for _, p := range pairs {
			if err := txn.Set(c.e.enc.StringKey(p.Key), p.Value); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// Strlen returns the length of the value stored at key (0 if absent).
func (c *StringCtx) Strlen(ctx context.Context, key []byte) (int64, error) {
	val, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return 0, err
	}
	return int64(len(val)), nil
}

// IncrBy adds delta to the integer value stored at key and returns the new
// value. An absent key counts as 0. Non-integer values and signed overflow
// yield ErrInvalidInteger.
func (c *StringCtx) IncrBy(ctx context.Context, key []byte, delta int64) (int64, error) {
	result, err := c.e.RunTxn(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		encoded := c.e.enc.StringKey(key)

		current := int64(0)
		val, err := txn.Get(ctx, encoded)
		if err != nil && !backend.IsKeyNotFound(err) {
			return nil, err
		}
		if err == nil {
			current, err = strconv.ParseInt(string(val), 10, 64)
			if err != nil {
				return nil, ErrInvalidInteger
			}
		}

		if (delta > 0 && current > math.MaxInt64-delta) ||
			(delta < 0 && current < math.MinInt64-delta) {
			return nil, ErrInvalidInteger
		}

		next := current + delta
		if err := txn.Set(encoded, []byte(strconv.FormatInt(next, 10))); err != nil {
			return nil, err
		}
		return next, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}
