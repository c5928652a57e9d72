// Package protocol implements the line-oriented serialization protocol the
// server speaks with its clients (RESP): request parsing on the read side
// and typed replies on the write side.
//
// The package is pure data plumbing. It knows nothing about commands or the
// engine; the server layer maps parsed requests onto command handlers and
// handler results onto replies.
package protocol
