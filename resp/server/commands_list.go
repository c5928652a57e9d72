package server

import (
	"context"

	"github.com/ValentinKolb/redikv/resp/protocol"
)

func init() {
	registerCommand("LPUSH", -3, execLPush).keys(1, 1, 1)
	registerCommand("RPUSH", -3, execRPush).keys(1, 1, 1)
	registerCommand("LPOP", 2, execLPop).keys(1, 1, 1)
	registerCommand("RPOP", 2, execRPop).keys(1, 1, 1)
	registerCommand("LLEN", 2, execLLen).keys(1, 1, 1)
	registerCommand("LINDEX", 3, execLIndex).keys(1, 1, 1)
	registerCommand("LRANGE", 4, execLRange).keys(1, 1, 1)
	registerCommand("LSET", 4, execLSet).keys(1, 1, 1)
	registerCommand("LTRIM", 4, execLTrim).keys(1, 1, 1)
}

func execLPush(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	n, err := s.lists().LPush(ctx, args[1], args[2:])
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(n), nil
}

func execRPush(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	n, err := s.lists().RPush(ctx, args[1], args[2:])
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(n), nil
}

func execLPop(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	value, found, err := s.lists().LPop(ctx, args[1])
	if err != nil {
		return nil, err
	}
	if !found {
		return protocol.MakeNullBulkReply(), nil
	}
	return protocol.MakeBulkReply(value), nil
}

func execRPop(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	value, found, err := s.lists().RPop(ctx, args[1])
	if err != nil {
		return nil, err
	}
	if !found {
		return protocol.MakeNullBulkReply(), nil
	}
	return protocol.MakeBulkReply(value), nil
}

func execLLen(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	n, err := s.lists().LLen(ctx, args[1])
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(n), nil
}

func execLIndex(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	index, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	value, found, err := s.lists().LIndex(ctx, args[1], index)
	if err != nil {
		return nil, err
	}
	if !found {
		return protocol.MakeNullBulkReply(), nil
	}
	return protocol.MakeBulkReply(value), nil
}

func execLRange(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	start, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	stop, err := parseInt(args[3])
	if err != nil {
		return nil, err
	}
	values, err := s.lists().LRange(ctx, args[1], start, stop)
	if err != nil {
		return nil, err
	}
	return protocol.MakeMultiBulkReply(values), nil
}

func execLSet(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	index, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	if err := s.lists().LSet(ctx, args[1], index, args[3]); err != nil {
		return nil, err
	}
	return protocol.OKReply, nil
}

func execLTrim(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	start, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	stop, err := parseInt(args[3])
	if err != nil {
		return nil, err
	}
	if err := s.lists().LTrim(ctx, args[1], start, stop); err != nil {
		return nil, err
	}
	return protocol.OKReply, nil
}
