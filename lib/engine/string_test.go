package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/ValentinKolb/redikv/lib/backend"
)

// TestStringSetGet tests basic set and get
func TestStringSetGet(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()
	strs := e.Strings(nil)

	if err := strs.Set(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	value, found, err := strs.Get(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !found || string(value) != "v" {
		t.Errorf("Get() = (%q, %v), want (\"v\", true)", value, found)
	}

	// missing key
	_, found, err = strs.Get(ctx, []byte("missing"))
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if found {
		t.Error("Get() should not find a missing key")
	}
}

// TestStringSetNX tests set-if-not-exists semantics
func TestStringSetNX(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()
	strs := e.Strings(nil)

	set, err := strs.SetNX(ctx, []byte("k"), []byte("first"))
	if err != nil {
		t.Fatalf("SetNX() failed: %v", err)
	}
	if !set {
		t.Error("First SetNX() should set the key")
	}

	set, err = strs.SetNX(ctx, []byte("k"), []byte("second"))
	if err != nil {
		t.Fatalf("SetNX() failed: %v", err)
	}
	if set {
		t.Error("Second SetNX() must not overwrite")
	}

	value, _, _ := strs.Get(ctx, []byte("k"))
	if string(value) != "first" {
		t.Errorf("Value should still be \"first\", got %q", value)
	}
}

// TestStringMSetMGet tests batched reads and writes
func TestStringMSetMGet(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()
	strs := e.Strings(nil)

	err := strs.MSet(ctx, []backend.KVPair{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
	})
	if err != nil {
		t.Fatalf("MSet() failed: %v", err)
	}

	values, err := strs.MGet(ctx, [][]byte{[]byte("a"), []byte("missing"), []byte("b")})
	if err != nil {
		t.Fatalf("MGet() failed: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("MGet() should return 3 entries, got %d", len(values))
	}
	if string(values[0]) != "1" || values[1] != nil || string(values[2]) != "2" {
		t.Errorf("MGet() = %q, want [1 <nil> 2]", values)
	}
}

// TestStringIncrBy tests the atomic counter
func TestStringIncrBy(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()
	strs := e.Strings(nil)

	// missing key counts from zero
	n, err := strs.IncrBy(ctx, []byte("ctr"), 5)
	if err != nil {
		t.Fatalf("IncrBy() failed: %v", err)
	}
	if n != 5 {
		t.Errorf("IncrBy() on a fresh key = %d, want 5", n)
	}

	n, err = strs.IncrBy(ctx, []byte("ctr"), -7)
	if err != nil {
		t.Fatalf("IncrBy() failed: %v", err)
	}
	if n != -2 {
		t.Errorf("IncrBy() = %d, want -2", n)
	}

	// non-numeric values are rejected
	if err := strs.Set(ctx, []byte("s"), []byte("not a number")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, err := strs.IncrBy(ctx, []byte("s"), 1); !errors.Is(err, ErrInvalidInteger) {
		t.Errorf("IncrBy() on a non-numeric value should return ErrInvalidInteger, got: %v", err)
	}
}

// TestStringIncrByOverflow tests that overflow is rejected without changing
// the stored value
func TestStringIncrByOverflow(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()
	strs := e.Strings(nil)

	if err := strs.Set(ctx, []byte("ctr"), []byte("9223372036854775807")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	if _, err := strs.IncrBy(ctx, []byte("ctr"), 1); !errors.Is(err, ErrInvalidInteger) {
		t.Fatalf("Overflowing IncrBy() should return ErrInvalidInteger, got: %v", err)
	}

	value, _, _ := strs.Get(ctx, []byte("ctr"))
	if string(value) != "9223372036854775807" {
		t.Errorf("Value changed after rejected increment: %q", value)
	}
}

// TestStringStrlen tests length queries
func TestStringStrlen(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()
	strs := e.Strings(nil)

	if err := strs.Set(ctx, []byte("k"), []byte("hello")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	n, err := strs.Strlen(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("Strlen() failed: %v", err)
	}
	if n != 5 {
		t.Errorf("Strlen() = %d, want 5", n)
	}

	n, err = strs.Strlen(ctx, []byte("missing"))
	if err != nil {
		t.Fatalf("Strlen() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Strlen() of a missing key = %d, want 0", n)
	}
}
