package server

import (
	"context"

	"github.com/ValentinKolb/redikv/lib/engine"
	"github.com/ValentinKolb/redikv/resp/protocol"
)

func init() {
	registerCommand("HSET", -4, execHSet).keys(1, 1, 1)
	registerCommand("HMSET", -4, execHMSet).keys(1, 1, 1)
	registerCommand("HGET", 3, execHGet).keys(1, 1, 1)
	registerCommand("HMGET", -3, execHMGet).keys(1, 1, 1)
	registerCommand("HDEL", -3, execHDel).keys(1, 1, 1)
	registerCommand("HGETALL", 2, execHGetAll).keys(1, 1, 1)
	registerCommand("HKEYS", 2, execHKeys).keys(1, 1, 1)
	registerCommand("HVALS", 2, execHVals).keys(1, 1, 1)
	registerCommand("HLEN", 2, execHLen).keys(1, 1, 1)
	registerCommand("HEXISTS", 3, execHExists).keys(1, 1, 1)
}

func hashPairs(args [][]byte) ([]engine.FieldValue, bool) {
	if len(args)%2 != 0 {
		return nil, false
	}
	pairs := make([]engine.FieldValue, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, engine.FieldValue{Field: args[i], Value: args[i+1]})
	}
	return pairs, true
}

func execHSet(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	pairs, ok := hashPairs(args[2:])
	if !ok {
		return protocol.MakeErrorReply("ERR wrong number of arguments for 'hset' command"), nil
	}
	added, err := s.hashes().HSet(ctx, args[1], pairs)
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(added), nil
}

// execHMSet is the legacy spelling of HSET with a status reply
func execHMSet(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	pairs, ok := hashPairs(args[2:])
	if !ok {
		return protocol.MakeErrorReply("ERR wrong number of arguments for 'hmset' command"), nil
	}
	if _, err := s.hashes().HSet(ctx, args[1], pairs); err != nil {
		return nil, err
	}
	return protocol.OKReply, nil
}

func execHGet(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	value, found, err := s.hashes().HGet(ctx, args[1], args[2])
	if err != nil {
		return nil, err
	}
	if !found {
		return protocol.MakeNullBulkReply(), nil
	}
	return protocol.MakeBulkReply(value), nil
}

func execHMGet(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	values, err := s.hashes().HMGet(ctx, args[1], args[2:])
	if err != nil {
		return nil, err
	}
	return protocol.MakeMultiBulkReply(values), nil
}

func execHDel(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	removed, err := s.hashes().HDel(ctx, args[1], args[2:])
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(removed), nil
}

func execHGetAll(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	pairs, err := s.hashes().HGetAll(ctx, args[1])
	if err != nil {
		return nil, err
	}
	flat := make([][]byte, 0, len(pairs)*2)
	for _, p := range pairs {
		flat = append(flat, p.Field, p.Value)
	}
	return protocol.MakeMultiBulkReply(flat), nil
}

func execHKeys(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	fields, err := s.hashes().HKeys(ctx, args[1])
	if err != nil {
		return nil, err
	}
	return protocol.MakeMultiBulkReply(fields), nil
}

func execHVals(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	values, err := s.hashes().HVals(ctx, args[1])
	if err != nil {
		return nil, err
	}
	return protocol.MakeMultiBulkReply(values), nil
}

func execHLen(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	n, err := s.hashes().HLen(ctx, args[1])
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(n), nil
}

func execHExists(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	exists, err := s.hashes().HExists(ctx, args[1], args[2])
	if err != nil {
		return nil, err
	}
	if exists {
		return protocol.MakeIntReply(1), nil
	}
	return protocol.MakeIntReply(0), nil
}
