package backend

import (
	"context"
	"time"
)

// --------------------------------------------------------------------------
// Interface Definitions
// --------------------------------------------------------------------------

// KVPair is one key-value entry returned by a range scan.
type KVPair struct {
	Key   []byte
	Value []byte
}

// ITxn is a single open optimistic transaction. A transaction is used by
// exactly one command execution at a time and is finished by either Commit
// or Rollback, never both.
type ITxn interface {
	// Get returns the value for key. If the key does not exist,
	// ErrKeyNotFound is returned.
	Get(ctx context.Context, key []byte) ([]byte, error)
	// BatchGet returns the values for all existing keys. Missing keys are
	// simply absent from the result map (keyed by string(key)).
	BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error)
	// Set buffers a write of key to value.
	Set(key, value []byte) error
	// Delete buffers a deletion of key.
	Delete(key []byte) error
	// Scan returns up to limit entries with start <= entry.Key < end,
	// ordered by byte-wise key comparison.
	Scan(ctx context.Context, start, end []byte, limit int) ([]KVPair, error)
	// Commit makes all buffered writes visible atomically. A conflicting
	// concurrent commit on an overlapping key set is reported as an error
	// for which IsConflict returns true.
	Commit(ctx context.Context) error
	// Rollback discards all buffered writes. Safe to call after a failed
	// Commit; implementations must tolerate double-finish.
	Rollback() error
}

// ITxnClient is a long-lived handle to the store able to begin transactions.
// Implementations must support concurrent Begin calls; the transactions
// themselves are independent units of work.
type ITxnClient interface {
	Begin() (ITxn, error)
	Close() error
}

// IRawClient is a long-lived handle for direct, non-transactional access.
// Raw operations are individually atomic but carry no cross-key guarantees.
type IRawClient interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(ctx context.Context, key []byte) ([]byte, error)
	// BatchGet returns the values for all existing keys (keyed by string(key)).
	BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error)
	Put(ctx context.Context, key, value []byte) error
	BatchPut(ctx context.Context, pairs []KVPair) error
	Delete(ctx context.Context, key []byte) error
	BatchDelete(ctx context.Context, keys [][]byte) error
	Close() error
}

// IDialer creates clients for a concrete store. The engine's session pool is
// written against this interface so the store implementation can be swapped
// (production TiKV vs. in-memory dev/test store) without touching the pool.
type IDialer interface {
	// DialTxn establishes one transactional client.
	DialTxn(ctx context.Context, config Config) (ITxnClient, error)
	// DialRaw establishes the raw client.
	DialRaw(ctx context.Context, config Config) (IRawClient, error)
}

// --------------------------------------------------------------------------
// Connection Configuration
// --------------------------------------------------------------------------

// Config holds all store-level connection parameters. It is resolved once
// from the process configuration before the session pool connects and is
// never changed afterwards.
type Config struct {
	// Addrs are the placement/coordination endpoints of the store.
	Addrs []string

	// TLS material. TLS is only configured if at least one path is non-empty.
	CAPath   string
	CertPath string
	KeyPath  string

	// Timeout bounds every single store call (connect, read, write, commit).
	Timeout time.Duration

	// Client tuning knobs, passed through to the store client.
	AllowBatch           bool
	MaxBatchSize         uint
	MaxBatchWaitTime     time.Duration
	MaxInflightRequests  uint
	OverloadThreshold    uint
	GrpcKeepaliveTime    time.Duration
	GrpcKeepaliveTimeout time.Duration
}

// WithTLS reports whether TLS material was configured.
func (c *Config) WithTLS() bool {
	return c.CAPath != "" || c.CertPath != "" || c.KeyPath != ""
}
