package engine

import (
	"context"

	"github.com/ValentinKolb/redikv/lib/backend"
)

// maxScanLimit bounds every range scan issued by the engine.
const maxScanLimit = 1 << 16

// --------------------------------------------------------------------------
// Sharded Size Counters
// --------------------------------------------------------------------------
//
// Hash, set and sorted-set sizes are kept as signed counters sharded over
// the N meta slots. Writers bump the rotating slot returned by NextMetaSlot
// (hot-key mitigation), so a single shard may go negative; only the sum over
// all N shards is meaningful.

// readSize returns the aggregated size of a collection.
func (e *Engine) readSize(ctx context.Context, txn backend.ITxn, t KeyType, key []byte) (int64, error) {
	vals, err := txn.BatchGet(ctx, e.enc.MetaKeys(t, key))
	if err != nil {
		return 0, err
	}
	var size int64
	for _, v := range vals {
		size += DecodeInt64(v)
	}
	return size, nil
}

// bumpSize adds delta to the rotating size shard of a collection.
func (e *Engine) bumpSize(ctx context.Context, txn backend.ITxn, t KeyType, key []byte, delta int64) error {
	metaKey := e.enc.MetaKey(t, key, e.enc.NextMetaSlot())

	current := int64(0)
	val, err := txn.Get(ctx, metaKey)
	if err != nil && !backend.IsKeyNotFound(err) {
		return err
	}
	if err == nil {
		current = DecodeInt64(val)
	}
	return txn.Set(metaKey, EncodeInt64(current+delta))
}

// shrinkSize removes delta elements from a collection's size. When the
// collection becomes empty all size shards are deleted so the logical key
// fully disappears from the backend.
func (e *Engine) shrinkSize(ctx context.Context, txn backend.ITxn, t KeyType, key []byte, delta int64) error {
	size, err := e.readSize(ctx, txn, t, key)
	if err != nil {
		return err
	}
	if size-delta <= 0 {
		return e.deleteMetaKeys(ctx, txn, t, key)
	}
	return e.bumpSize(ctx, txn, t, key, -delta)
}

// deleteMetaKeys removes the existing size shards of a collection.
func (e *Engine) deleteMetaKeys(ctx context.Context, txn backend.ITxn, t KeyType, key []byte) error {
	// only delete shards that exist, blind deletes widen the write set
	vals, err := txn.BatchGet(ctx, e.enc.MetaKeys(t, key))
	if err != nil {
		return err
	}
	for k := range vals {
		if err := txn.Delete([]byte(k)); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Scan Helpers
// --------------------------------------------------------------------------

// scanRange pages through [start, end) in maxScanLimit windows, so
// collections larger than one window are still enumerated completely.
func scanRange(ctx context.Context, txn backend.ITxn, start, end []byte) ([]backend.KVPair, error) {
	var all []backend.KVPair
	from := start
	for {
		pairs, err := txn.Scan(ctx, from, end, maxScanLimit)
		if err != nil {
			return nil, err
		}
		all = append(all, pairs...)
		if len(pairs) < maxScanLimit {
			return all, nil
		}
		// resume right after the last key of the window
		last := pairs[len(pairs)-1].Key
		from = append(append([]byte(nil), last...), 0)
	}
}

// scanMembers returns all (member, value) pairs of a collection, with the
// encoding prefix stripped from the keys.
func (e *Engine) scanMembers(ctx context.Context, txn backend.ITxn, t KeyType, key []byte) ([]backend.KVPair, error) {
	start, end := e.enc.DataRange(t, key)
	pairs, err := scanRange(ctx, txn, start, end)
	if err != nil {
		return nil, err
	}
	members := make([]backend.KVPair, 0, len(pairs))
	for _, p := range pairs {
		members = append(members, backend.KVPair{
			Key:   p.Key[len(start):],
			Value: p.Value,
		})
	}
	return members, nil
}

// collectionExists reports whether any member of the collection is stored.
func (e *Engine) collectionExists(ctx context.Context, txn backend.ITxn, t KeyType, key []byte) (bool, error) {
	start, end := e.enc.DataRange(t, key)
	pairs, err := txn.Scan(ctx, start, end, 1)
	if err != nil {
		return false, err
	}
	return len(pairs) > 0, nil
}
