package server

import (
	"context"
	"math"

	"github.com/ValentinKolb/redikv/lib/backend"
	"github.com/ValentinKolb/redikv/lib/engine"
	"github.com/ValentinKolb/redikv/resp/protocol"
)

func init() {
	registerCommand("GET", 2, execGet).asRaw().keys(1, 1, 1)
	registerCommand("SET", 3, execSet).asRaw().keys(1, 1, 1)
	registerCommand("SETNX", 3, execSetNX).keys(1, 1, 1)
	registerCommand("MGET", -2, execMGet).asRaw().keys(1, -1, 1)
	registerCommand("MSET", -3, execMSet).asRaw().keys(1, -1, 2)
	registerCommand("STRLEN", 2, execStrlen).asRaw().keys(1, 1, 1)
	registerCommand("INCR", 2, execIncr).keys(1, 1, 1)
	registerCommand("INCRBY", 3, execIncrBy).keys(1, 1, 1)
	registerCommand("DECR", 2, execDecr).keys(1, 1, 1)
	registerCommand("DECRBY", 3, execDecrBy).keys(1, 1, 1)
}

func execGet(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	var (
		value []byte
		found bool
		err   error
	)
	if s.useTxn() {
		value, found, err = s.strings().Get(ctx, args[1])
	} else {
		value, found, err = s.rawKV().Get(ctx, args[1])
	}
	if err != nil {
		return nil, err
	}
	if !found {
		return protocol.MakeNullBulkReply(), nil
	}
	return protocol.MakeBulkReply(value), nil
}

func execSet(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	var err error
	if s.useTxn() {
		err = s.strings().Set(ctx, args[1], args[2])
	} else {
		err = s.rawKV().Set(ctx, args[1], args[2])
	}
	if err != nil {
		return nil, err
	}
	return protocol.OKReply, nil
}

func execSetNX(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	set, err := s.strings().SetNX(ctx, args[1], args[2])
	if err != nil {
		return nil, err
	}
	if set {
		return protocol.MakeIntReply(1), nil
	}
	return protocol.MakeIntReply(0), nil
}

func execMGet(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	var (
		values [][]byte
		err    error
	)
	if s.useTxn() {
		values, err = s.strings().MGet(ctx, args[1:])
	} else {
		values, err = s.rawKV().MGet(ctx, args[1:])
	}
	if err != nil {
		return nil, err
	}
	return protocol.MakeMultiBulkReply(values), nil
}

func execMSet(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	if (len(args)-1)%2 != 0 {
		return protocol.MakeErrorReply("ERR wrong number of arguments for 'mset' command"), nil
	}
	pairs := make([]backend.KVPair, 0, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		pairs = append(pairs, backend.KVPair{Key: args[i], Value: args[i+1]})
	}

	var err error
	if s.useTxn() {
		err = s.strings().MSet(ctx, pairs)
	} else {
		err = s.rawKV().MSet(ctx, pairs)
	}
	if err != nil {
		return nil, err
	}
	return protocol.OKReply, nil
}

func execStrlen(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	var (
		n   int64
		err error
	)
	if s.useTxn() {
		n, err = s.strings().Strlen(ctx, args[1])
	} else {
		n, err = s.rawKV().Strlen(ctx, args[1])
	}
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(n), nil
}

func execIncr(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	return incrBy(ctx, s, args[1], 1)
}

func execIncrBy(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	delta, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	return incrBy(ctx, s, args[1], delta)
}

func execDecr(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	return incrBy(ctx, s, args[1], -1)
}

func execDecrBy(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	delta, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	// -math.MinInt64 is not representable, negating would wrap around.
	if delta == math.MinInt64 {
		return nil, engine.ErrInvalidInteger
	}
	return incrBy(ctx, s, args[1], -delta)
}

func incrBy(ctx context.Context, s *session, key []byte, delta int64) (protocol.Reply, error) {
	value, err := s.strings().IncrBy(ctx, key, delta)
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(value), nil
}
