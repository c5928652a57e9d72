package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ValentinKolb/redikv/lib/backend"
	"github.com/ValentinKolb/redikv/lib/logging"
	"github.com/ValentinKolb/redikv/lib/metrics"
)

var logger = logging.GetLogger("engine")

const (
	// DefaultTxnRetries bounds the conflict-retry loop.
	DefaultTxnRetries = 3
	// DefaultRetryBackoff is the initial backoff; it doubles per attempt
	// with a small random jitter.
	DefaultRetryBackoff = 2 * time.Millisecond
)

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

// Engine executes structure-level commands against the backend. It is
// created once at startup and shared by all concurrently executing commands.
type Engine struct {
	pool       *SessionPool
	enc        *KeyEncoder
	maxRetries int
	backoff    time.Duration
}

// New creates an engine on top of a connected (or to-be-connected) session
// pool. Zero values for maxRetries/backoff select the defaults.
func New(pool *SessionPool, enc *KeyEncoder, maxRetries int, backoff time.Duration) *Engine {
	if maxRetries < 1 {
		maxRetries = DefaultTxnRetries
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	return &Engine{
		pool:       pool,
		enc:        enc,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Encoder returns the engine's key encoder.
func (e *Engine) Encoder() *KeyEncoder {
	return e.enc
}

// Pool returns the engine's session pool.
func (e *Engine) Pool() *SessionPool {
	return e.pool
}

// --------------------------------------------------------------------------
// Transactional Execution
// --------------------------------------------------------------------------

// TxnFunc is one read-modify-write unit. On a conflict the whole closure is
// re-run against a fresh transaction, so it must not reuse reads from a
// previous attempt or carry side effects outside the transaction.
type TxnFunc func(ctx context.Context, txn backend.ITxn) (interface{}, error)

// RunTxn executes fn exactly-once-committed: either all of its writes become
// visible or none do.
//
// If external is non-nil the caller owns the transaction lifecycle (used for
// batched multi-command execution); fn runs against it directly without
// commit or retry here.
//
// Otherwise a transaction is begun on a session acquired from the pool, fn
// runs, and the transaction is committed. Write conflicts re-run fn on a
// fresh transaction up to the retry budget with exponential backoff. Every
// other error aborts (best-effort rollback) and is surfaced unchanged.
func (e *Engine) RunTxn(ctx context.Context, external backend.ITxn, fn TxnFunc) (interface{}, error) {
	if external != nil {
		return fn(ctx, external)
	}

	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.TxnRetryCounter.Inc()
			if err := e.sleepBackoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		result, err := e.runOnce(ctx, fn)
		if err == nil {
			return result, nil
		}
		if !backend.IsConflict(err) {
			return nil, err
		}

		logger.Debugf("write conflict on attempt %d/%d: %v", attempt+1, e.maxRetries, err)
		lastErr = err
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, e.maxRetries, lastErr)
}

// RunSnapshot executes a read-only fn in a transaction that is always rolled
// back. Without a commit there is nothing to conflict with, so no retry loop
// is needed.
func (e *Engine) RunSnapshot(ctx context.Context, external backend.ITxn, fn TxnFunc) (interface{}, error) {
	if external != nil {
		return fn(ctx, external)
	}

	session, err := e.pool.AcquireTxnSession()
	if err != nil {
		return nil, err
	}
	txn, err := session.Begin()
	if err != nil {
		return nil, err
	}
	metrics.SnapshotCounter.Inc()

	result, err := fn(ctx, txn)
	if rbErr := txn.Rollback(); rbErr != nil {
		logger.Warnf("snapshot rollback failed: %v", rbErr)
	}
	return result, err
}

// runOnce performs a single begin/fn/commit cycle.
func (e *Engine) runOnce(ctx context.Context, fn TxnFunc) (interface{}, error) {
	session, err := e.pool.AcquireTxnSession()
	if err != nil {
		return nil, err
	}

	txn, err := session.Begin()
	if err != nil {
		return nil, err
	}
	metrics.TxnCounter.Inc()

	result, err := fn(ctx, txn)
	if err != nil {
		e.abort(txn)
		return nil, err
	}

	if err := txn.Commit(ctx); err != nil {
		e.abort(txn)
		return nil, err
	}

	metrics.TxnCommitCounter.Inc()
	return result, nil
}

// abort rolls a transaction back best-effort and emits the abort signal.
func (e *Engine) abort(txn backend.ITxn) {
	metrics.TxnAbortCounter.Inc()
	if err := txn.Rollback(); err != nil {
		logger.Warnf("rollback failed: %v", err)
	}
}

// sleepBackoff waits before retry attempt n (1-based), honoring cancellation.
func (e *Engine) sleepBackoff(ctx context.Context, attempt int) error {
	backoff := e.backoff << (attempt - 1)
	// +-10% jitter to de-synchronize colliding retriers
	jitter := time.Duration(float64(backoff) * (0.9 + 0.2*rand.Float64()))

	select {
	case <-time.After(jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
