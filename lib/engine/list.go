package engine

import (
	"context"

	"github.com/ValentinKolb/redikv/lib/backend"
)

// --------------------------------------------------------------------------
// List Commands
// --------------------------------------------------------------------------
//
// A list is stored as one meta key holding its bounds plus one data key per
// element. Elements live at the raw indices [head, tail); a fresh list
// starts at the index-space midpoint so both ends can grow. The big-endian
// index encoding keeps element keys in logical order for range scans.

// ListCtx executes list commands. A non-nil txn makes all operations run
// inside that externally managed transaction instead of their own.
type ListCtx struct {
	e   *Engine
	txn backend.ITxn
}

// Lists creates a list command context. txn may be nil.
func (e *Engine) Lists(txn backend.ITxn) *ListCtx {
	return &ListCtx{e: e, txn: txn}
}

// loadMeta reads the list bounds. A missing meta key is an empty list.
func (c *ListCtx) loadMeta(ctx context.Context, txn backend.ITxn, key []byte) (head, tail uint64, exists bool, err error) {
	val, err := txn.Get(ctx, c.e.enc.ListMetaKey(key))
	if err != nil {
		if backend.IsKeyNotFound(err) {
			return ListInitialIndex, ListInitialIndex, false, nil
		}
		return 0, 0, false, err
	}
	head, tail = DecodeListMeta(val)
	return head, tail, true, nil
}

// LPush prepends values (left to right, so the last value ends up first)
// and returns the new list length.
func (c *ListCtx) LPush(ctx context.Context, key []byte, values [][]byte) (int64, error) {
	return c.push(ctx, key, values, true)
}

// RPush appends values and returns the new list length.
func (c *ListCtx) RPush(ctx context.Context, key []byte, values [][]byte) (int64, error) {
	return c.push(ctx, key, values, false)
}

func (c *ListCtx) push(ctx context.Context, key []byte, values [][]byte, left bool) (int64, error) {
	result, err := c.e.RunTxn(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		head, tail, _, err := c.loadMeta(ctx, txn, key)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			var idx uint64
			if left {
				head--
				idx = head
			} else {
				idx = tail
				tail++
			}
			if err := txn.Set(c.e.enc.ListDataKey(key, idx), v); err != nil {
				return nil, err
			}
		}
		if err := txn.Set(c.e.enc.ListMetaKey(key), EncodeListMeta(head, tail)); err != nil {
			return nil, err
		}
		return int64(tail - head), nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// LPop removes and returns the first element.
func (c *ListCtx) LPop(ctx context.Context, key []byte) (value []byte, found bool, err error) {
	return c.pop(ctx, key, true)
}

// RPop removes and returns the last element.
func (c *ListCtx) RPop(ctx context.Context, key []byte) (value []byte, found bool, err error) {
	return c.pop(ctx, key, false)
}

func (c *ListCtx) pop(ctx context.Context, key []byte, left bool) ([]byte, bool, error) {
	result, err := c.e.RunTxn(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		head, tail, exists, err := c.loadMeta(ctx, txn, key)
		if err != nil {
			return nil, err
		}
		if !exists || head == tail {
			return nil, nil
		}

		var idx uint64
		if left {
			idx = head
			head++
		} else {
			tail--
			idx = tail
		}

		elemKey := c.e.enc.ListDataKey(key, idx)
		val, err := txn.Get(ctx, elemKey)
		if err != nil {
			return nil, err
		}
		if err := txn.Delete(elemKey); err != nil {
			return nil, err
		}

		metaKey := c.e.enc.ListMetaKey(key)
		if head == tail {
			// list became empty, remove it entirely
			if err := txn.Delete(metaKey); err != nil {
				return nil, err
			}
		} else if err := txn.Set(metaKey, EncodeListMeta(head, tail)); err != nil {
			return nil, err
		}
		return val, nil
	})
	if err != nil || result == nil {
		return nil, false, err
	}
	return result.([]byte), true, nil
}

// LLen returns the list length.
func (c *ListCtx) LLen(ctx context.Context, key []byte) (int64, error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		head, tail, _, err := c.loadMeta(ctx, txn, key)
		if err != nil {
			return nil, err
		}
		return int64(tail - head), nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// LIndex returns the element at index (negative counts from the end).
func (c *ListCtx) LIndex(ctx context.Context, key []byte, index int64) (value []byte, found bool, err error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		head, tail, exists, err := c.loadMeta(ctx, txn, key)
		if err != nil {
			return nil, err
		}
		length := int64(tail - head)
		if !exists || length == 0 {
			return nil, nil
		}
		if index < 0 {
			index += length
		}
		if index < 0 || index >= length {
			return nil, nil
		}
		val, err := txn.Get(ctx, c.e.enc.ListDataKey(key, head+uint64(index)))
		if err != nil {
			return nil, err
		}
		return val, nil
	})
	if err != nil || result == nil {
		return nil, false, err
	}
	return result.([]byte), true, nil
}

// LRange returns the elements in [start, stop] (inclusive, Redis-style
// negative indices).
func (c *ListCtx) LRange(ctx context.Context, key []byte, start, stop int64) ([][]byte, error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		head, tail, _, err := c.loadMeta(ctx, txn, key)
		if err != nil {
			return nil, err
		}
		from, to, ok := normalizeRange(start, stop, int64(tail-head))
		if !ok {
			return [][]byte{}, nil
		}

		lo := c.e.enc.ListDataKey(key, head+uint64(from))
		hi := c.e.enc.ListDataKey(key, head+uint64(to)+1)
		pairs, err := txn.Scan(ctx, lo, hi, int(to-from+1))
		if err != nil {
			return nil, err
		}
		values := make([][]byte, len(pairs))
		for i, p := range pairs {
			values[i] = p.Value
		}
		return values, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([][]byte), nil
}

// LSet overwrites the element at index. ErrNoSuchKey for missing lists,
// ErrIndexOutOfRange for indices outside the list.
func (c *ListCtx) LSet(ctx context.Context, key []byte, index int64, value []byte) error {
	_, err := c.e.RunTxn(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		head, tail, exists, err := c.loadMeta(ctx, txn, key)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrNoSuchKey
		}
		length := int64(tail - head)
		if index < 0 {
			index += length
		}
		if index < 0 || index >= length {
			return nil, ErrIndexOutOfRange
		}
		return nil, txn.Set(c.e.enc.ListDataKey(key, head+uint64(index)), value)
	})
	return err
}

// LTrim removes every element outside [start, stop]. One atomic unit: the
// element deletions and the bounds update commit together or not at all.
func (c *ListCtx) LTrim(ctx context.Context, key []byte, start, stop int64) error {
	_, err := c.e.RunTxn(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		head, tail, exists, err := c.loadMeta(ctx, txn, key)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, nil
		}

		deleteRange := func(from, to uint64) error {
			for idx := from; idx < to; idx++ {
				if err := txn.Delete(c.e.enc.ListDataKey(key, idx)); err != nil {
					return err
				}
			}
			return nil
		}

		metaKey := c.e.enc.ListMetaKey(key)
		from, to, ok := normalizeRange(start, stop, int64(tail-head))
		if !ok {
			// retained range is empty, the whole list goes away
			if err := deleteRange(head, tail); err != nil {
				return nil, err
			}
			return nil, txn.Delete(metaKey)
		}

		newHead := head + uint64(from)
		newTail := head + uint64(to) + 1
		if err := deleteRange(head, newHead); err != nil {
			return nil, err
		}
		if err := deleteRange(newTail, tail); err != nil {
			return nil, err
		}
		if newHead == head && newTail == tail {
			return nil, nil
		}
		return nil, txn.Set(metaKey, EncodeListMeta(newHead, newTail))
	})
	return err
}

// normalizeRange converts Redis-style inclusive start/stop indices (negative
// counts from the end) into absolute offsets within a list of length n.
// ok is false when the selected range is empty.
func normalizeRange(start, stop, n int64) (from, to int64, ok bool) {
	if n <= 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += n
	}
	if stop >= n {
		stop = n - 1
	}
	if start >= n || start > stop {
		return 0, 0, false
	}
	return start, stop, true
}
