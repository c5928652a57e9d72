package engine

import (
	"context"

	"github.com/ValentinKolb/redikv/lib/backend"
)

// --------------------------------------------------------------------------
// Generic Key Commands
// --------------------------------------------------------------------------

// KeysCtx executes commands that operate on logical keys regardless of their
// collection type. A non-nil txn makes all operations run inside that
// externally managed transaction instead of their own.
type KeysCtx struct {
	e   *Engine
	txn backend.ITxn
}

// Keys creates a generic key command context. txn may be nil.
func (e *Engine) Keys(txn backend.ITxn) *KeysCtx {
	return &KeysCtx{e: e, txn: txn}
}

// Del removes all given logical keys (every encoded data and meta key they
// own) in one atomic unit and returns how many of them existed.
func (c *KeysCtx) Del(ctx context.Context, keys [][]byte) (int64, error) {
	result, err := c.e.RunTxn(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		deleted := int64(0)
		for _, key := range keys {
			existed, err := c.deleteKey(ctx, txn, key)
			if err != nil {
				return nil, err
			}
			if existed {
				deleted++
			}
		}
		return deleted, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// Exists returns how many of the given logical keys exist.
func (c *KeysCtx) Exists(ctx context.Context, keys [][]byte) (int64, error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		count := int64(0)
		for _, key := range keys {
			t, err := c.typeOf(ctx, txn, key)
			if err != nil {
				return nil, err
			}
			if t != "none" {
				count++
			}
		}
		return count, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// Type returns the collection type name of a logical key
// ("string", "list", "hash", "set", "zset" or "none").
func (c *KeysCtx) Type(ctx context.Context, key []byte) (string, error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		return c.typeOf(ctx, txn, key)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// typeOf probes the per-type namespaces in a fixed order.
func (c *KeysCtx) typeOf(ctx context.Context, txn backend.ITxn, key []byte) (string, error) {
	_, err := txn.Get(ctx, c.e.enc.StringKey(key))
	if err == nil {
		return "string", nil
	}
	if !backend.IsKeyNotFound(err) {
		return "", err
	}

	_, err = txn.Get(ctx, c.e.enc.ListMetaKey(key))
	if err == nil {
		return "list", nil
	}
	if !backend.IsKeyNotFound(err) {
		return "", err
	}

	for _, probe := range []struct {
		t    KeyType
		name string
	}{
		{TypeHash, "hash"},
		{TypeSet, "set"},
		{TypeZSet, "zset"},
	} {
		found, err := c.e.collectionExists(ctx, txn, probe.t, key)
		if err != nil {
			return "", err
		}
		if found {
			return probe.name, nil
		}
	}
	return "none", nil
}

// deleteKey removes every encoded key belonging to one logical key.
func (c *KeysCtx) deleteKey(ctx context.Context, txn backend.ITxn, key []byte) (bool, error) {
	existed := false

	// string value
	strKey := c.e.enc.StringKey(key)
	_, err := txn.Get(ctx, strKey)
	switch {
	case err == nil:
		if err := txn.Delete(strKey); err != nil {
			return false, err
		}
		existed = true
	case !backend.IsKeyNotFound(err):
		return false, err
	}

	// list bounds
	listMeta := c.e.enc.ListMetaKey(key)
	_, err = txn.Get(ctx, listMeta)
	switch {
	case err == nil:
		if err := txn.Delete(listMeta); err != nil {
			return false, err
		}
		existed = true
	case !backend.IsKeyNotFound(err):
		return false, err
	}

	// members of every collection type, plus their size shards
	for _, t := range []KeyType{TypeList, TypeHash, TypeSet, TypeZSet} {
		start, end := c.e.enc.DataRange(t, key)
		pairs, err := scanRange(ctx, txn, start, end)
		if err != nil {
			return false, err
		}
		for _, p := range pairs {
			if err := txn.Delete(p.Key); err != nil {
				return false, err
			}
		}
		if len(pairs) > 0 {
			existed = true
			if t != TypeList {
				if err := c.e.deleteMetaKeys(ctx, txn, t, key); err != nil {
					return false, err
				}
			}
		}
	}
	return existed, nil
}
