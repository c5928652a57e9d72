package server

import (
	"context"

	"github.com/ValentinKolb/redikv/resp/protocol"
)

func init() {
	registerCommand("SADD", -3, execSAdd).keys(1, 1, 1)
	registerCommand("SREM", -3, execSRem).keys(1, 1, 1)
	registerCommand("SISMEMBER", 3, execSIsMember).keys(1, 1, 1)
	registerCommand("SMEMBERS", 2, execSMembers).keys(1, 1, 1)
	registerCommand("SCARD", 2, execSCard).keys(1, 1, 1)
}

func execSAdd(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	added, err := s.sets().SAdd(ctx, args[1], args[2:])
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(added), nil
}

func execSRem(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	removed, err := s.sets().SRem(ctx, args[1], args[2:])
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(removed), nil
}

func execSIsMember(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	member, err := s.sets().SIsMember(ctx, args[1], args[2])
	if err != nil {
		return nil, err
	}
	if member {
		return protocol.MakeIntReply(1), nil
	}
	return protocol.MakeIntReply(0), nil
}

func execSMembers(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	members, err := s.sets().SMembers(ctx, args[1])
	if err != nil {
		return nil, err
	}
	return protocol.MakeMultiBulkReply(members), nil
}

func execSCard(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	n, err := s.sets().SCard(ctx, args[1])
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(n), nil
}
