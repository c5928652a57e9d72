package server

import (
	"context"
	"strings"

	"github.com/ValentinKolb/redikv/lib/engine"
	"github.com/ValentinKolb/redikv/resp/protocol"
)

func init() {
	registerCommand("ZADD", -4, execZAdd).keys(1, 1, 1)
	registerCommand("ZSCORE", 3, execZScore).keys(1, 1, 1)
	registerCommand("ZREM", -3, execZRem).keys(1, 1, 1)
	registerCommand("ZCARD", 2, execZCard).keys(1, 1, 1)
	registerCommand("ZCOUNT", 4, execZCount).keys(1, 1, 1)
	registerCommand("ZRANGE", -4, execZRange).keys(1, 1, 1)
}

func execZAdd(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	if (len(args)-2)%2 != 0 {
		return protocol.MakeErrorReply("ERR wrong number of arguments for 'zadd' command"), nil
	}
	entries := make([]engine.ScoredMember, 0, (len(args)-2)/2)
	for i := 2; i < len(args); i += 2 {
		score, err := parseFloat(args[i])
		if err != nil {
			return protocol.MakeErrorReply("ERR value is not a valid float"), nil
		}
		entries = append(entries, engine.ScoredMember{Member: args[i+1], Score: score})
	}

	added, err := s.zsets().ZAdd(ctx, args[1], entries)
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(added), nil
}

func execZScore(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	score, found, err := s.zsets().ZScore(ctx, args[1], args[2])
	if err != nil {
		return nil, err
	}
	if !found {
		return protocol.MakeNullBulkReply(), nil
	}
	return protocol.MakeBulkReply(formatFloat(score)), nil
}

func execZRem(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	removed, err := s.zsets().ZRem(ctx, args[1], args[2:])
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(removed), nil
}

func execZCard(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	n, err := s.zsets().ZCard(ctx, args[1])
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(n), nil
}

func execZCount(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	min, err := parseFloat(args[2])
	if err != nil {
		return protocol.MakeErrorReply("ERR min or max is not a float"), nil
	}
	max, err := parseFloat(args[3])
	if err != nil {
		return protocol.MakeErrorReply("ERR min or max is not a float"), nil
	}
	n, err := s.zsets().ZCount(ctx, args[1], min, max)
	if err != nil {
		return nil, err
	}
	return protocol.MakeIntReply(n), nil
}

func execZRange(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	withScores := false
	switch len(args) {
	case 4:
	case 5:
		if !strings.EqualFold(string(args[4]), "WITHSCORES") {
			return protocol.MakeErrorReply("ERR syntax error"), nil
		}
		withScores = true
	default:
		return protocol.MakeErrorReply("ERR wrong number of arguments for 'zrange' command"), nil
	}

	start, err := parseInt(args[2])
	if err != nil {
		return nil, err
	}
	stop, err := parseInt(args[3])
	if err != nil {
		return nil, err
	}

	entries, err := s.zsets().ZRange(ctx, args[1], start, stop)
	if err != nil {
		return nil, err
	}

	var out [][]byte
	if withScores {
		out = make([][]byte, 0, len(entries)*2)
		for _, e := range entries {
			out = append(out, e.Member, formatFloat(e.Score))
		}
	} else {
		out = make([][]byte, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.Member)
		}
	}
	return protocol.MakeMultiBulkReply(out), nil
}
