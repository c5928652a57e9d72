package engine

import (
	"context"

	"github.com/ValentinKolb/redikv/lib/backend"
)

// --------------------------------------------------------------------------
// Sorted Set Commands
// --------------------------------------------------------------------------
//
// A sorted set keeps two entries per member: member->score for point
// lookups, and an empty-valued (score, member) key whose byte order equals
// (score, member) order, so rank and score-range queries are plain scans.

// ScoredMember is one sorted set entry.
type ScoredMember struct {
	Member []byte
	Score  float64
}

// ZSetCtx executes sorted set commands. A non-nil txn makes all operations
// run inside that externally managed transaction instead of their own.
type ZSetCtx struct {
	e   *Engine
	txn backend.ITxn
}

// ZSets creates a sorted set command context. txn may be nil.
func (e *Engine) ZSets(txn backend.ITxn) *ZSetCtx {
	return &ZSetCtx{e: e, txn: txn}
}

// ZAdd upserts entries and returns the number of newly added members.
func (c *ZSetCtx) ZAdd(ctx context.Context, key []byte, entries []ScoredMember) (int64, error) {
	result, err := c.e.RunTxn(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		added := int64(0)
		for _, entry := range entries {
			memberKey := c.e.enc.ZSetMemberKey(key, entry.Member)

			old, err := txn.Get(ctx, memberKey)
			switch {
			case err == nil:
				oldScore := DecodeScore(old)
				if oldScore == entry.Score {
					continue
				}
				// score change: the ordered key moves
				if err := txn.Delete(c.e.enc.ZSetScoreKey(key, oldScore, entry.Member)); err != nil {
					return nil, err
				}
			case backend.IsKeyNotFound(err):
				added++
			default:
				return nil, err
			}

			if err := txn.Set(memberKey, EncodeScore(entry.Score)); err != nil {
				return nil, err
			}
			if err := txn.Set(c.e.enc.ZSetScoreKey(key, entry.Score, entry.Member), []byte{}); err != nil {
				return nil, err
			}
		}
		if added > 0 {
			if err := c.e.bumpSize(ctx, txn, TypeZSet, key, added); err != nil {
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

// ZScore returns the score of member.
func (c *ZSetCtx) ZScore(ctx context.Context, key, member []byte) (score float64, found bool, err error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		val, err := txn.Get(ctx, c.e.enc.ZSetMemberKey(key, member))
		if err != nil {
			if backend.IsKeyNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return DecodeScore(val), nil
	})
	if err != nil || result == nil {
		return 0, false, err
	}
	return result.(float64), true, nil
}

// ZRem removes members and returns how many of them existed.
func (c *ZSetCtx) ZRem(ctx context.Context, key []byte, members [][]byte) (int64, error) {
	result, err := c.e.RunTxn(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		removed := int64(0)
		for _, m := range members {
			memberKey := c.e.enc.ZSetMemberKey(key, m)
			val, err := txn.Get(ctx, memberKey)
			if err != nil {
				if backend.IsKeyNotFound(err) {
					continue
				}
				return nil, err
			}
			if err := txn.Delete(memberKey); err != nil {
				return nil, err
			}
			if err := txn.Delete(c.e.enc.ZSetScoreKey(key, DecodeScore(val), m)); err != nil {
				return nil, err
			}
			removed++
		}
		if removed > 0 {
			if err := c.e.shrinkSize(ctx, txn, TypeZSet, key, removed); err != nil {
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

// ZCard returns the sorted set size (aggregated over all meta slots).
func (c *ZSetCtx) ZCard(ctx context.Context, key []byte) (int64, error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		return c.e.readSize(ctx, txn, TypeZSet, key)
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// ZCount returns the number of members with min <= score <= max.
func (c *ZSetCtx) ZCount(ctx context.Context, key []byte, min, max float64) (int64, error) {
	if min > max {
		return 0, nil
	}
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		entries, err := c.scanOrdered(ctx, txn, key)
		if err != nil {
			return nil, err
		}
		count := int64(0)
		for _, entry := range entries {
			if entry.Score >= min && entry.Score <= max {
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

// ZRange returns the entries with rank in [start, stop] (inclusive,
// Redis-style negative indices), ordered by (score, member).
func (c *ZSetCtx) ZRange(ctx context.Context, key []byte, start, stop int64) ([]ScoredMember, error) {
	result, err := c.e.RunSnapshot(ctx, c.txn, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		entries, err := c.scanOrdered(ctx, txn, key)
		if err != nil {
			return nil, err
		}
		from, to, ok := normalizeRange(start, stop, int64(len(entries)))
		if !ok {
			return []ScoredMember{}, nil
		}
		return entries[from : to+1], nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]ScoredMember), nil
}

// scanOrdered reads all entries in (score, member) order.
func (c *ZSetCtx) scanOrdered(ctx context.Context, txn backend.ITxn, key []byte) ([]ScoredMember, error) {
	start, end := c.e.enc.ZSetScoreRange(key)
	pairs, err := scanRange(ctx, txn, start, end)
	if err != nil {
		return nil, err
	}
	entries := make([]ScoredMember, 0, len(pairs))
	for _, p := range pairs {
		sub := p.Key[len(start):]
		if len(sub) < 8 {
			continue
		}
		entries = append(entries, ScoredMember{
			Score:  DecodeScore(sub[:8]),
			Member: sub[8:],
		})
	}
	return entries, nil
}
