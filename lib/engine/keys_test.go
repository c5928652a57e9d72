package engine

import (
	"context"
	"fmt"
	"testing"
)

// TestKeysDel tests deletion across all collection types
func TestKeysDel(t *testing.T) {
	e, store := newTestEngine(t, 4)
	ctx := context.Background()

	if err := e.Strings(nil).Set(ctx, []byte("str"), []byte("v")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, err := e.Hashes(nil).HSet(ctx, []byte("hash"), []FieldValue{{Field: []byte("f"), Value: []byte("v")}}); err != nil {
		t.Fatalf("HSet() failed: %v", err)
	}
	if _, err := e.Lists(nil).RPush(ctx, []byte("list"), [][]byte{[]byte("a"), []byte("b")}); err != nil {
		t.Fatalf("RPush() failed: %v", err)
	}
	if _, err := e.Sets(nil).SAdd(ctx, []byte("set"), [][]byte{[]byte("m")}); err != nil {
		t.Fatalf("SAdd() failed: %v", err)
	}
	if _, err := e.ZSets(nil).ZAdd(ctx, []byte("zset"), []ScoredMember{{Member: []byte("m"), Score: 1}}); err != nil {
		t.Fatalf("ZAdd() failed: %v", err)
	}

	n, err := e.Keys(nil).Del(ctx, [][]byte{
		[]byte("str"), []byte("hash"), []byte("list"), []byte("set"), []byte("zset"), []byte("missing"),
	})
	if err != nil {
		t.Fatalf("Del() failed: %v", err)
	}
	if n != 5 {
		t.Errorf("Del() should report 5 deleted keys, got %d", n)
	}

	// no data or meta keys may survive
	if store.Len() != 0 {
		t.Errorf("Store should be empty after deleting every key, has %d entries", store.Len())
	}
}

// TestKeysDelLargeCollection tests that deletion covers collections larger
// than one scan window
func TestKeysDelLargeCollection(t *testing.T) {
	if testing.Short() {
		t.Skip("large collection test")
	}

	e, store := newTestEngine(t, 4)
	ctx := context.Background()

	const fields = maxScanLimit + 100
	pairs := make([]FieldValue, fields)
	for i := range pairs {
		pairs[i] = FieldValue{Field: []byte(fmt.Sprintf("f%07d", i)), Value: []byte("v")}
	}
	if _, err := e.Hashes(nil).HSet(ctx, []byte("big"), pairs); err != nil {
		t.Fatalf("HSet() failed: %v", err)
	}

	// enumeration must also page past the window
	all, err := e.Hashes(nil).HGetAll(ctx, []byte("big"))
	if err != nil {
		t.Fatalf("HGetAll() failed: %v", err)
	}
	if len(all) != fields {
		t.Errorf("HGetAll() returned %d fields, want %d", len(all), fields)
	}

	n, err := e.Keys(nil).Del(ctx, [][]byte{[]byte("big")})
	if err != nil {
		t.Fatalf("Del() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Del() should report 1 deleted key, got %d", n)
	}
	if store.Len() != 0 {
		t.Errorf("Store should be empty after deleting the hash, has %d entries", store.Len())
	}
}

// TestKeysExists tests existence counting over mixed types
func TestKeysExists(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()

	if err := e.Strings(nil).Set(ctx, []byte("str"), []byte("v")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, err := e.Sets(nil).SAdd(ctx, []byte("set"), [][]byte{[]byte("m")}); err != nil {
		t.Fatalf("SAdd() failed: %v", err)
	}

	n, err := e.Keys(nil).Exists(ctx, [][]byte{
		[]byte("str"), []byte("set"), []byte("missing"), []byte("str"),
	})
	if err != nil {
		t.Fatalf("Exists() failed: %v", err)
	}
	// repeated keys count again
	if n != 3 {
		t.Errorf("Exists() = %d, want 3", n)
	}
}

// TestKeysType tests type probing
func TestKeysType(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()

	if err := e.Strings(nil).Set(ctx, []byte("str"), []byte("v")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, err := e.Lists(nil).RPush(ctx, []byte("list"), [][]byte{[]byte("a")}); err != nil {
		t.Fatalf("RPush() failed: %v", err)
	}
	if _, err := e.Hashes(nil).HSet(ctx, []byte("hash"), []FieldValue{{Field: []byte("f"), Value: []byte("v")}}); err != nil {
		t.Fatalf("HSet() failed: %v", err)
	}
	if _, err := e.Sets(nil).SAdd(ctx, []byte("set"), [][]byte{[]byte("m")}); err != nil {
		t.Fatalf("SAdd() failed: %v", err)
	}
	if _, err := e.ZSets(nil).ZAdd(ctx, []byte("zset"), []ScoredMember{{Member: []byte("m"), Score: 1}}); err != nil {
		t.Fatalf("ZAdd() failed: %v", err)
	}

	cases := map[string]string{
		"str":     "string",
		"list":    "list",
		"hash":    "hash",
		"set":     "set",
		"zset":    "zset",
		"missing": "none",
	}

	for key, want := range cases {
		got, err := e.Keys(nil).Type(ctx, []byte(key))
		if err != nil {
			t.Fatalf("Type(%s) failed: %v", key, err)
		}
		if got != want {
			t.Errorf("Type(%s) = %q, want %q", key, got, want)
		}
	}
}
