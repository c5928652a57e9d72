package engine

import (
	"context"

	"github.com/ValentinKolb/redikv/lib/backend"
)

// --------------------------------------------------------------------------
// Set Commands
// --------------------------------------------------------------------------

// SetCtx executes set commands. A non-nil txn makes all operations run
// inside that externally managed transaction instead of their own.
type SetCtx struct {
	e   *Engine
	txn backend.ITxn
}

// Sets creates a set command context. txn may be nil.
func (e *Engine) Sets(txn backend.ITxn) *SetCtx {
	return &SetCtx{e: e, txn: txn}
}

// SAdd adds members and returns how many were not already present.
func (c *SetCtx) SAdd(ctx context.Context, key []byte, members [][]byte) (int64, error) {
	result, err := c.e.RunTxn(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		added := int64(0)
		for _, m := range members {
			memberKey := c.e.enc.SetDataKey(key, m)
			_, err := txn.Get(ctx, memberKey)
			if err == nil {
				continue
			}
			if !backend.IsKeyNotFound(err) {
				return nil, err
			}
			if err := txn.Set(memberKey, []byte{}); err != nil {
				return nil, err
			}
			added++
		}
		if added > 0 {
			if err := c.e.bumpSize(ctx, txn, TypeSet, key, added); err != nil {
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

// SRem removes members and returns how many of them existed.
func (c *SetCtx) SRem(ctx context.Context, key []byte, members [][]byte) (int64, error) {
	result, err := c.e.RunTxn(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		removed := int64(0)
		for _, m := range members {
			memberKey := c.e.enc.SetDataKey(key, m)
			_, err := txn.Get(ctx, memberKey)
			if err != nil {
				if backend.IsKeyNotFound(err) {
					continue
				}
				return nil, err
			}
			if err := txn.Delete(memberKey); err != nil {
				return nil, err
			}
			removed++
		}
		if removed > 0 {
			if err := c.e.shrinkSize(ctx, txn, TypeSet, key, removed); err != nil {
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

// SIsMember reports whether member is in the set.
func (c *SetCtx) SIsMember(ctx context.Context, key, member []byte) (bool, error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		_, err := txn.Get(ctx, c.e.enc.SetDataKey(key, member))
		if err != nil {
			if backend.IsKeyNotFound(err) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// SMembers returns all members, ordered by member bytes.
func (c *SetCtx) SMembers(ctx context.Context, key []byte) ([][]byte, error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		pairs, err := c.e.scanMembers(ctx, txn, TypeSet, key)
		if err != nil {
			return nil, err
		}
		members := make([][]byte, len(pairs))
		for i, p := range pairs {
			members[i] = p.Key
		}
		return members, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([][]byte), nil
}

// SCard returns the set size (aggregated over all meta slots).
func (c *SetCtx) SCard(ctx context.Context, key []byte) (int64, error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		return c.e.readSize(ctx, txn, TypeSet, key)
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}
