package engine

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Engine Errors
// --------------------------------------------------------------------------

var (
	// ErrRetriesExhausted is returned when a transaction kept conflicting
	// until the retry budget ran out. The failure is transient; the client
	// may simply re-issue the command.
	ErrRetriesExhausted = errors.New("engine: transaction retries exhausted")

	// ErrInvalidInteger is returned when a counter command reads a value
	// that does not parse as a signed 64-bit integer.
	ErrInvalidInteger = errors.New("value is not an integer or out of range")

	// ErrIndexOutOfRange is returned by LSET for indices outside the list.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNoSuchKey is returned by commands that require an existing key.
	ErrNoSuchKey = errors.New("no such key")
)

// ConnectError reports a failed startup connection attempt. It is fatal:
// the process must not start accepting client traffic after seeing it.
type ConnectError struct {
	Addrs []string
	Err   error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("engine: failed to connect to backend %v: %v", e.Addrs, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
