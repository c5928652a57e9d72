package engine

import (
	"context"

	"github.com/ValentinKolb/redikv/lib/backend"
)

// --------------------------------------------------------------------------
// Hash Commands
// --------------------------------------------------------------------------

// FieldValue is one hash field with its value.
type FieldValue struct {
	Field []byte
	Value []byte
}

// HashCtx executes hash commands. A non-nil txn makes all operations run
// inside that externally managed transaction instead of their own.
type HashCtx struct {
	e   *Engine
	txn backend.ITxn
}

// Hashes creates a hash command context. txn may be nil.
func (e *Engine) Hashes(txn backend.ITxn) *HashCtx {
	return &HashCtx{e: e, txn: txn}
}

// HSet stores all field/value pairs and returns the number of fields that
// were newly created (overwritten fields do not count).
func (c *HashCtx) HSet(ctx context.Context, key []byte, pairs []FieldValue) (int64, error) {
	result, err := c.e.RunTxn(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		added := int64(0)
		for _, p := range pairs {
			fieldKey := c.e.enc.HashDataKey(key, p.Field)
			_, err := txn.Get(ctx, fieldKey)
			if err != nil {
				if !backend.IsKeyNotFound(err) {
					return nil, err
				}
				added++
			}
			if err := txn.Set(fieldKey, p.Value); err != nil {
				return nil, err
			}
		}
		if added > 0 {
			if err := c.e.bumpSize(ctx, txn, TypeHash, key, added); err != nil {
				return nil, err
			}
		}
		return added, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// HGet returns the value of one field.
func (c *HashCtx) HGet(ctx context.Context, key, field []byte) (value []byte, found bool, err error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		val, err := txn.Get(ctx, c.e.enc.HashDataKey(key, field))
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

// HMGet returns the values for all fields; absent fields yield a nil entry.
func (c *HashCtx) HMGet(ctx context.Context, key []byte, fields [][]byte) ([][]byte, error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		encoded := make([][]byte, len(fields))
		for i, f := range fields {
			encoded[i] = c.e.enc.HashDataKey(key, f)
		}
		found, err := txn.BatchGet(ctx, encoded)
		if err != nil {
			return nil, err
		}
		values := make([][]byte, len(fields))
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

// HDel removes fields and returns how many of them existed.
func (c *HashCtx) HDel(ctx context.Context, key []byte, fields [][]byte) (int64, error) {
	result, err := c.e.RunTxn(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		removed := int64(0)
		for _, f := range fields {
			fieldKey := c.e.enc.HashDataKey(key, f)
			_, err := txn.Get(ctx, fieldKey)
			if err != nil {
				if backend.IsKeyNotFound(err) {
					continue
				}
				return nil, err
			}
			if err := txn.Delete(fieldKey); err != nil {
				return nil, err
			}
			removed++
		}
		if removed > 0 {
			if err := c.e.shrinkSize(ctx, txn, TypeHash, key, removed); err != nil {
				return nil, err
			}
		}
		return removed, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// HGetAll returns all field/value pairs, ordered by field bytes.
func (c *HashCtx) HGetAll(ctx context.Context, key []byte) ([]FieldValue, error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		members, err := c.e.scanMembers(ctx, txn, TypeHash, key)
		if err != nil {
			return nil, err
		}
		pairs := make([]FieldValue, 0, len(members))
		for _, m := range members {
			pairs = append(pairs, FieldValue{Field: m.Key, Value: m.Value})
		}
		return pairs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]FieldValue), nil
}

// HKeys returns all field names.
func (c *HashCtx) HKeys(ctx context.Context, key []byte) ([][]byte, error) {
	pairs, err := c.HGetAll(ctx, key)
	if err != nil {
		return nil, err
	}
	fields := make([][]byte, len(pairs))
	for i, p := range pairs {
		fields[i] = p.Field
	}
	return fields, nil
}

// HVals returns all field values.
func (c *HashCtx) HVals(ctx context.Context, key []byte) ([][]byte, error) {
	pairs, err := c.HGetAll(ctx, key)
	if err != nil {
		return nil, err
	}
	values := make([][]byte, len(pairs))
	for i, p := range pairs {
		values[i] = p.Value
	}
	return values, nil
}

// HLen returns the number of fields (aggregated over all meta slots).
func (c *HashCtx) HLen(ctx context.Context, key []byte) (int64, error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		return c.e.readSize(ctx, txn, TypeHash, key)
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// HExists reports whether the field exists.
func (c *HashCtx) HExists(ctx context.Context, key, field []byte) (bool, error) {
	_, found, err := c.HGet(ctx, key, field)
	return found, err
}
