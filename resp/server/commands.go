package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/redikv/lib/backend"
	"github.com/ValentinKolb/redikv/lib/engine"
	"github.com/ValentinKolb/redikv/lib/metrics"
	"github.com/ValentinKolb/redikv/resp/protocol"
)

// --------------------------------------------------------------------------
// Command Table
// --------------------------------------------------------------------------

// handlerFunc executes one command. It returns the client reply, or an
// engine/backend error that the dispatcher maps to an error reply (and that
// batched execution uses to decide whether the whole batch must retry).
type handlerFunc func(ctx context.Context, s *session, args [][]byte) (protocol.Reply, error)

// command describes one entry of the command table
type command struct {
	name string
	// arity counts the command name itself. Positive means exact,
	// negative means "at least -arity" (same convention as redis).
	arity int
	// key positions (redis firstkey/lastkey/keystep convention, with
	// lastKey -1 meaning the final argument). firstKey 0 means the
	// command takes no keys.
	firstKey, lastKey, keyStep int
	// raw marks commands that work without the transactional API
	raw bool
	// control commands (MULTI, EXEC, ...) are never queued inside MULTI
	control bool
	handler handlerFunc
}

var cmdTable = map[string]*command{}

// registerCommand adds a command to the global table. Called from init
// functions only, before any connection is served.
func registerCommand(name string, arity int, handler handlerFunc) *command {
	cmd := &command{
		name:    name,
		arity:   arity,
		handler: handler,
	}
	cmdTable[name] = cmd
	return cmd
}

func (c *command) asRaw() *command     { c.raw = true; return c }
func (c *command) asControl() *command { c.control = true; return c }

// keys declares which arguments are logical keys
func (c *command) keys(first, last, step int) *command {
	c.firstKey, c.lastKey, c.keyStep = first, last, step
	return c
}

// checkArity validates the argument count against the command's arity spec
func (c *command) checkArity(argCount int) bool {
	if c.arity >= 0 {
		return argCount == c.arity
	}
	return argCount >= -c.arity
}

// maxKeyLen is the largest logical key the key encoding can frame with its
// 16-bit length prefix.
const maxKeyLen = 65535

// checkKeys validates the length of every key argument
func (c *command) checkKeys(args [][]byte) bool {
	if c.firstKey == 0 {
		return true
	}
	last := c.lastKey
	if last < 0 {
		last = len(args) + last
	}
	for i := c.firstKey; i <= last && i < len(args); i += c.keyStep {
		if len(args[i]) > maxKeyLen {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Dispatch
// --------------------------------------------------------------------------

// dispatch executes one parsed command line for a session. The second return
// value requests closing the connection (QUIT).
func (s *Server) dispatch(ctx context.Context, sess *session, args [][]byte) (protocol.Reply, bool) {
	name := strings.ToUpper(string(args[0]))

	metrics.RequestCounter.Inc()
	metrics.CommandRequest(name)
	start := time.Now()
	defer metrics.CommandFinish(name, start)

	if name == "QUIT" {
		return protocol.OKReply, true
	}

	cmd, ok := cmdTable[name]
	if !ok {
		sess.dirty = sess.inMulti
		return protocol.MakeErrorReply(fmt.Sprintf("ERR unknown command '%s'", string(args[0]))), false
	}
	if !cmd.checkArity(len(args)) {
		sess.dirty = sess.inMulti
		return protocol.MakeErrorReply(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name))), false
	}
	if !cmd.checkKeys(args) {
		sess.dirty = sess.inMulti
		return protocol.MakeErrorReply(fmt.Sprintf("ERR key exceeds maximum length of %d bytes", maxKeyLen)), false
	}

	// Queue data commands between MULTI and EXEC instead of executing them
	if sess.inMulti && !cmd.control {
		sess.queued = append(sess.queued, args)
		return protocol.QueuedReply, false
	}

	if !s.config.UseTxnAPI && !cmd.raw {
		return protocol.MakeErrorReply(fmt.Sprintf("ERR command '%s' is not supported when the transactional API is disabled", strings.ToLower(name))), false
	}

	reply, err := cmd.handler(ctx, sess, args)
	if err != nil {
		return errorReply(err), false
	}
	return reply, false
}

// errorReply maps engine and backend errors to client-facing error replies
func errorReply(err error) *protocol.ErrorReply {
	switch {
	case errors.Is(err, engine.ErrInvalidInteger):
		return protocol.MakeErrorReply("ERR value is not an integer or out of range")
	case errors.Is(err, engine.ErrNoSuchKey):
		return protocol.MakeErrorReply("ERR no such key")
	case errors.Is(err, engine.ErrIndexOutOfRange):
		return protocol.MakeErrorReply("ERR index out of range")
	case errors.Is(err, engine.ErrRetriesExhausted), backend.IsConflict(err):
		return protocol.MakeErrorReply("ERR transaction conflict, please retry")
	case errors.Is(err, backend.ErrUnsupported):
		return protocol.MakeErrorReply("ERR operation not supported by the raw backend")
	case errors.Is(err, backend.ErrNotConnected):
		return protocol.MakeErrorReply("ERR backend not connected")
	default:
		return protocol.MakeErrorReply("ERR backend error: " + err.Error())
	}
}

// --------------------------------------------------------------------------
// Argument Parsing Helpers
// --------------------------------------------------------------------------

// parseInt parses an integer argument, mapping failures to the canonical
// integer error
func parseInt(arg []byte) (int64, error) {
	v, err := strconv.ParseInt(string(arg), 10, 64)
	if err != nil {
		return 0, engine.ErrInvalidInteger
	}
	return v, nil
}

var errInvalidFloat = errors.New("value is not a valid float")

// parseFloat parses a score argument
func parseFloat(arg []byte) (float64, error) {
	v, err := strconv.ParseFloat(string(arg), 64)
	if err != nil {
		return 0, errInvalidFloat
	}
	return v, nil
}

// formatFloat renders a score the way redis does (no trailing zeros)
func formatFloat(v float64) []byte {
	return []byte(strconv.FormatFloat(v, 'f', -1, 64))
}

// --------------------------------------------------------------------------
// Session Engine Accessors
// --------------------------------------------------------------------------

// The accessors bind the per-session transaction (non-nil only while an EXEC
// batch runs) to a fresh structure context.

func (s *session) strings() *engine.StringCtx { return s.srv.engine.Strings(s.txn) }
func (s *session) keys() *engine.KeysCtx      { return s.srv.engine.Keys(s.txn) }
func (s *session) hashes() *engine.HashCtx    { return s.srv.engine.Hashes(s.txn) }
func (s *session) lists() *engine.ListCtx     { return s.srv.engine.Lists(s.txn) }
func (s *session) sets() *engine.SetCtx       { return s.srv.engine.Sets(s.txn) }
func (s *session) zsets() *engine.ZSetCtx     { return s.srv.engine.ZSets(s.txn) }
func (s *session) rawKV() *engine.RawCtx      { return s.srv.engine.Raw() }

// useTxn reports whether the transactional command path is active
func (s *session) useTxn() bool { return s.srv.config.UseTxnAPI }
