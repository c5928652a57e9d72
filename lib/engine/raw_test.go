package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/ValentinKolb/redikv/lib/backend"
)

// TestRawSetGetDel tests the basic raw operations
func TestRawSetGetDel(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()
	raw := e.Raw()

	if err := raw.Set(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	value, found, err := raw.Get(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !found || string(value) != "v" {
		t.Errorf("Get() = (%q, %v), want (\"v\", true)", value, found)
	}

	n, err := raw.Strlen(ctx, []byte("k"))
	if err != nil || n != 1 {
		t.Errorf("Strlen() = (%d, %v), want (1, nil)", n, err)
	}

	deleted, err := raw.Del(ctx, [][]byte{[]byte("k"), []byte("missing")})
	if err != nil {
		t.Fatalf("Del() failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Del() should report 1 deleted key, got %d", deleted)
	}

	_, found, _ = raw.Get(ctx, []byte("k"))
	if found {
		t.Error("Get() should not find a deleted key")
	}
}

// TestRawBatchOps tests batched raw reads and writes
func TestRawBatchOps(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()
	raw := e.Raw()

	err := raw.MSet(ctx, []backend.KVPair{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
	})
	if err != nil {
		t.Fatalf("MSet() failed: %v", err)
	}

	values, err := raw.MGet(ctx, [][]byte{[]byte("a"), []byte("missing"), []byte("b")})
	if err != nil {
		t.Fatalf("MGet() failed: %v", err)
	}
	if string(values[0]) != "1" || values[1] != nil || string(values[2]) != "2" {
		t.Errorf("MGet() = %q, want [1 <nil> 2]", values)
	}

	n, err := raw.Exists(ctx, [][]byte{[]byte("a"), []byte("b"), []byte("missing")})
	if err != nil {
		t.Fatalf("Exists() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Exists() = %d, want 2", n)
	}
}

// TestRawRefusesTransactionalOps tests that multi-step operations are
// rejected on the raw path
func TestRawRefusesTransactionalOps(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()
	raw := e.Raw()

	if _, err := raw.IncrBy(ctx, []byte("k"), 1); !errors.Is(err, backend.ErrUnsupported) {
		t.Errorf("IncrBy() should return ErrUnsupported, got: %v", err)
	}
	if err := raw.LTrim(ctx, []byte("k"), 0, 1); !errors.Is(err, backend.ErrUnsupported) {
		t.Errorf("LTrim() should return ErrUnsupported, got: %v", err)
	}
}

// TestRawAndTxnSeeSameData tests that both paths address the same key space
// for plain strings
func TestRawAndTxnSeeSameData(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()

	if err := e.Strings(nil).Set(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	value, found, err := e.Raw().Get(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !found || string(value) != "v" {
		t.Errorf("Raw Get() should see the transactional write, got (%q, %v)", value, found)
	}
}
