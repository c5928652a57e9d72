package server

import (
	"context"

	"github.com/ValentinKolb/redikv/resp/protocol"
)

func init() {
	// On the raw path DEL and EXISTS only see plain string keys
	registerCommand("DEL", -2, execDel).asRaw().keys(1, -1, 1)
	registerCommand("EXISTS", -2, execExists).asRaw().keys(1, -1, 1)
	registerCommand("TYPE", 2, execType).keys(1, 1, 1)
}

func execDel(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	var (
		n   int64
		err error
	)
	if s.useTxn() {
		n, err = s.keys().Del(ctx, args[1:])
	} else {
		n, err = s.rawKV().Del(ctx, args[1:])
	}
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(n), nil
}

func execExists(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	var (
		n   int64
		err error
	)
	if s.useTxn() {
		n, err = s.keys().Exists(ctx, args[1:])
	} else {
		n, err = s.rawKV().Exists(ctx, args[1:])
	}
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(n), nil
}

func execType(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	t, err := s.keys().Type(ctx, args[1])
	if err != nil {
		return nil, err
	}
	return protocol.MakeSimpleReply(t), nil
}
