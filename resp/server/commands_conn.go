package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/ValentinKolb/redikv/lib/backend"
	"github.com/ValentinKolb/redikv/resp/protocol"
)

func init() {
	registerCommand("PING", -1, execPing).asRaw()
	registerCommand("ECHO", 2, execEcho).asRaw()
	registerCommand("COMMAND", -1, execCommand).asRaw()
	registerCommand("DEBUG", -2, execDebug).asRaw().asControl()
	registerCommand("MULTI", 1, execMulti).asControl()
	registerCommand("EXEC", 1, execExec).asControl()
	registerCommand("DISCARD", 1, execDiscard).asControl()
}

func execPing(_ context.Context, _ *session, args [][]byte) (protocol.Reply, error) {
	if len(args) > 1 {
		return protocol.MakeBulkReply(args[1]), nil
	}
	return protocol.PongReply, nil
}

func execEcho(_ context.Context, _ *session, args [][]byte) (protocol.Reply, error) {
	return protocol.MakeBulkReply(args[1]), nil
}

// execCommand returns an empty array; enough to keep redis-cli and client
// libraries that probe COMMAND/COMMAND DOCS on connect happy.
func execCommand(_ context.Context, _ *session, _ [][]byte) (protocol.Reply, error) {
	return protocol.EmptyMultiBulkReply, nil
}

func execDebug(_ context.Context, s *session, args [][]byte) (protocol.Reply, error) {
	sub := strings.ToUpper(string(args[1]))
	switch sub {
	case "PROFILER_START":
		if err := s.srv.profiler.Start(); err != nil {
			return protocol.MakeErrorReply("ERR " + err.Error()), nil
		}
		return protocol.OKReply, nil
	case "PROFILER_STOP":
		if err := s.srv.profiler.Stop(); err != nil {
			return protocol.MakeErrorReply("ERR " + err.Error()), nil
		}
		return protocol.OKReply, nil
	case "SLEEP":
		// accepted for compatibility, does nothing
		return protocol.OKReply, nil
	default:
		return protocol.MakeErrorReply(fmt.Sprintf("ERR unknown DEBUG subcommand '%s'", string(args[1]))), nil
	}
}

// --------------------------------------------------------------------------
// MULTI / EXEC / DISCARD
// --------------------------------------------------------------------------

func execMulti(_ context.Context, s *session, _ [][]byte) (protocol.Reply, error) {
	if s.inMulti {
		return protocol.MakeErrorReply("ERR MULTI calls can not be nested"), nil
	}
	s.inMulti = true
	s.dirty = false
	s.queued = nil
	return protocol.OKReply, nil
}

func execDiscard(_ context.Context, s *session, _ [][]byte) (protocol.Reply, error) {
	if !s.inMulti {
		return protocol.MakeErrorReply("ERR DISCARD without MULTI"), nil
	}
	s.resetMulti()
	return protocol.OKReply, nil
}

// execExec runs the queued commands as one backend transaction: all writes
// commit together or not at all. On a write conflict the whole batch is
// re-executed against a fresh transaction.
func execExec(ctx context.Context, s *session, _ [][]byte) (protocol.Reply, error) {
	if !s.inMulti {
		return protocol.MakeErrorReply("ERR EXEC without MULTI"), nil
	}
	if s.dirty {
		s.resetMulti()
		return protocol.MakeErrorReply("EXECABORT Transaction discarded because of previous errors."), nil
	}

	queued := s.queued
	s.resetMulti()

	if len(queued) == 0 {
		return protocol.EmptyMultiBulkReply, nil
	}

	result, err := s.srv.engine.RunTxn(ctx, nil, func(ctx context.Context, txn backend.ITxn) (interface{}, error) {
		s.txn = txn
		defer func() { s.txn = nil }()

		// Replies are rebuilt from scratch on every retry attempt
		replies := make([]protocol.Reply, 0, len(queued))
		for _, line := range queued {
			cmd := cmdTable[strings.ToUpper(string(line[0]))]
			reply, err := cmd.handler(ctx, s, line)
			if err != nil {
				if backend.IsConflict(err) {
					return nil, err
				}
				// Non-conflict command failures become per-command
				// error replies, the batch itself continues
				reply = errorReply(err)
			}
			replies = append(replies, reply)
		}
		return replies, nil
	})
	if err != nil {
		return nil, err
	}

	replies := result.([]protocol.Reply)
	out := []byte(fmt.Sprintf("*%d\r\n", len(replies)))
	for _, r := range replies {
		out = append(out, r.Bytes()...)
	}
	return &protocol.RawReply{Data: out}, nil
}

func (s *session) resetMulti() {
	s.inMulti = false
	s.dirty = false
	s.queued = nil
}
