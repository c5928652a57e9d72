package protocol

import (
	"bytes"
	"strconv"
)

const crlf = "\r\n"

// --------------------------------------------------------------------------
// Reply Types
// --------------------------------------------------------------------------

// Reply is one serialized server response.
type Reply interface {
	// Bytes returns the wire representation including the trailing CRLF.
	Bytes() []byte
}

// SimpleReply is a simple status string ("+OK").
type SimpleReply struct {
	Status string
}

// MakeSimpleReply creates a status reply.
func MakeSimpleReply(status string) *SimpleReply {
	return &SimpleReply{Status: status}
}

func (r *SimpleReply) Bytes() []byte {
	return []byte("+" + r.Status + crlf)
}

// ErrorReply is an error response ("-ERR ...").
type ErrorReply struct {
	Msg string
}

// MakeErrorReply creates an error reply. The conventional "ERR " prefix is
// up to the caller.
func MakeErrorReply(msg string) *ErrorReply {
	return &ErrorReply{Msg: msg}
}

func (r *ErrorReply) Bytes() []byte {
	return []byte("-" + r.Msg + crlf)
}

// Error implements the error interface so handlers can also return an
// ErrorReply through error paths.
func (r *ErrorReply) Error() string {
	return r.Msg
}

// IntReply is a signed integer response (":42").
type IntReply struct {
	Value int64
}

// MakeIntReply creates an integer reply.
func MakeIntReply(value int64) *IntReply {
	return &IntReply{Value: value}
}

func (r *IntReply) Bytes() []byte {
	return []byte(":" + strconv.FormatInt(r.Value, 10) + crlf)
}

// BulkReply is one binary-safe string. A nil Arg serializes as the null
// bulk string ("$-1"), an empty Arg as the empty string ("$0").
type BulkReply struct {
	Arg []byte
}

// MakeBulkReply creates a bulk string reply.
func MakeBulkReply(arg []byte) *BulkReply {
	return &BulkReply{Arg: arg}
}

// MakeNullBulkReply creates the null bulk string reply.
func MakeNullBulkReply() *BulkReply {
	return &BulkReply{Arg: nil}
}

func (r *BulkReply) Bytes() []byte {
	if r.Arg == nil {
		return []byte("$-1" + crlf)
	}
	var buf bytes.Buffer
	buf.WriteString("$" + strconv.Itoa(len(r.Arg)) + crlf)
	buf.Write(r.Arg)
	buf.WriteString(crlf)
	return buf.Bytes()
}

// MultiBulkReply is an array of binary-safe strings. Nil elements serialize
// as null bulk strings.
type MultiBulkReply struct {
	Args [][]byte
}

// MakeMultiBulkReply creates an array reply.
func MakeMultiBulkReply(args [][]byte) *MultiBulkReply {
	return &MultiBulkReply{Args: args}
}

func (r *MultiBulkReply) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("*" + strconv.Itoa(len(r.Args)) + crlf)
	for _, arg := range r.Args {
		if arg == nil {
			buf.WriteString("$-1" + crlf)
			continue
		}
		buf.WriteString("$" + strconv.Itoa(len(arg)) + crlf)
		buf.Write(arg)
		buf.WriteString(crlf)
	}
	return buf.Bytes()
}

// RawReply carries pre-serialized replies (used to flush queued MULTI
// results as one array).
type RawReply struct {
	Data []byte
}

func (r *RawReply) Bytes() []byte {
	return r.Data
}

// --------------------------------------------------------------------------
// Shared Constant Replies
// --------------------------------------------------------------------------

var (
	// OKReply answers successful status-only commands.
	OKReply = MakeSimpleReply("OK")
	// PongReply answers PING.
	PongReply = MakeSimpleReply("PONG")
	// QueuedReply answers commands queued inside MULTI.
	QueuedReply = MakeSimpleReply("QUEUED")
	// EmptyMultiBulkReply is the empty array.
	EmptyMultiBulkReply = MakeMultiBulkReply([][]byte{})
)
