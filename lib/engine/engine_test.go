package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ValentinKolb/redikv/lib/backend"
	"github.com/ValentinKolb/redikv/lib/backend/memkv"
)

// newTestEngine creates an engine on a fresh in-memory store
func newTestEngine(t *testing.T, metaSlots uint16) (*Engine, *memkv.Store) {
	t.Helper()

	store := memkv.NewStore()
	pool := NewSessionPool(memkv.NewDialer(store))
	if err := pool.Connect(context.Background(), backend.Config{Addrs: []string{"mem"}}, 2); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	return New(pool, NewKeyEncoder(metaSlots), 3, time.Millisecond), store
}

// TestRunTxnCommits tests that a successful closure's writes become visible
func TestRunTxnCommits(t *testing.T) {
	e, store := newTestEngine(t, 4)

	_, err := e.RunTxn(context.Background(), nil, func(_ context.Context, txn backend.ITxn) (interface{}, error) {
		return nil, txn.Set([]byte("k"), []byte("v"))
	})
	if err != nil {
		t.Fatalf("RunTxn() failed: %v", err)
	}

	if store.Len() != 1 {
		t.Errorf("Store should hold 1 key after commit, has %d", store.Len())
	}
}

// TestRunTxnRetriesOnConflict tests that write conflicts re-run the closure
func TestRunTxnRetriesOnConflict(t *testing.T) {
	e, store := newTestEngine(t, 4)
	store.ForceConflicts(2)

	calls := 0
	_, err := e.RunTxn(context.Background(), nil, func(_ context.Context, txn backend.ITxn) (interface{}, error) {
		calls++
		return nil, txn.Set([]byte("k"), []byte("v"))
	})
	if err != nil {
		t.Fatalf("RunTxn() should succeed after retries, got: %v", err)
	}

	if calls != 3 {
		t.Errorf("Closure should run 3 times (2 conflicts + 1 success), ran %d times", calls)
	}
	if store.Len() != 1 {
		t.Errorf("Store should hold 1 key after the final commit, has %d", store.Len())
	}
}

// TestRunTxnExhaustsRetries tests that persistent conflicts surface as
// ErrRetriesExhausted
func TestRunTxnExhaustsRetries(t *testing.T) {
	e, store := newTestEngine(t, 4)
	store.ForceConflicts(100)

	_, err := e.RunTxn(context.Background(), nil, func(_ context.Context, txn backend.ITxn) (interface{}, error) {
		return nil, txn.Set([]byte("k"), []byte("v"))
	})
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("Expected ErrRetriesExhausted, got: %v", err)
	}

	if store.Len() != 0 {
		t.Errorf("No writes should be visible after exhausted retries, store has %d keys", store.Len())
	}
}

// TestRunTxnNoRetryOnOtherErrors tests that non-conflict errors surface
// unchanged without re-running the closure
func TestRunTxnNoRetryOnOtherErrors(t *testing.T) {
	e, _ := newTestEngine(t, 4)

	boom := errors.New("boom")
	calls := 0
	_, err := e.RunTxn(context.Background(), nil, func(context.Context, backend.ITxn) (interface{}, error) {
		calls++
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the closure error, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("Closure should run exactly once, ran %d times", calls)
	}
}

// TestRunTxnExternal tests that an external transaction is neither committed
// nor rolled back by RunTxn
func TestRunTxnExternal(t *testing.T) {
	e, store := newTestEngine(t, 4)

	session, err := e.Pool().AcquireTxnSession()
	if err != nil {
		t.Fatalf("AcquireTxnSession() failed: %v", err)
	}
	txn, err := session.Begin()
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}

	_, err = e.RunTxn(context.Background(), txn, func(_ context.Context, txn backend.ITxn) (interface{}, error) {
		return nil, txn.Set([]byte("k"), []byte("v"))
	})
	if err != nil {
		t.Fatalf("RunTxn() failed: %v", err)
	}

	// nothing visible until the owner commits
	if store.Len() != 0 {
		t.Errorf("External transaction must not auto-commit, store has %d keys", store.Len())
	}
	if err := txn.Commit(context.Background()); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("Store should hold 1 key after the owner commit, has %d", store.Len())
	}
}

// TestRunSnapshotLeavesNoWrites tests that snapshot closures never publish
// writes
func TestRunSnapshotLeavesNoWrites(t *testing.T) {
	e, store := newTestEngine(t, 4)

	result, err := e.RunSnapshot(context.Background(), nil, func(_ context.Context, txn backend.ITxn) (interface{}, error) {
		if err := txn.Set([]byte("k"), []byte("v")); err != nil {
			return nil, err
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("RunSnapshot() failed: %v", err)
	}
	if result != "ok" {
		t.Errorf("Expected result 'ok', got %v", result)
	}

	if store.Len() != 0 {
		t.Errorf("Snapshot writes must be discarded, store has %d keys", store.Len())
	}
}
