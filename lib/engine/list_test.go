package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// pushRight fills a list with the given values
func pushRight(t *testing.T, e *Engine, key string, values ...string) {
	t.Helper()
	raw := make([][]byte, len(values))
	for i, v := range values {
		raw[i] = []byte(v)
	}
	if _, err := e.Lists(nil).RPush(context.Background(), []byte(key), raw); err != nil {
		t.Fatalf("RPush() failed: %v", err)
	}
}

// rangeStrings reads a range as strings
func rangeStrings(t *testing.T, e *Engine, key string, start, stop int64) []string {
	t.Helper()
	values, err := e.Lists(nil).LRange(context.Background(), []byte(key), start, stop)
	if err != nil {
		t.Fatalf("LRange() failed: %v", err)
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// TestListPushPop tests pushes and pops on both ends
func TestListPushPop(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()
	lists := e.Lists(nil)

	n, err := lists.RPush(ctx, []byte("l"), [][]byte{[]byte("b"), []byte("c")})
	if err != nil {
		t.Fatalf("RPush() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("RPush() should report length 2, got %d", n)
	}

	n, err = lists.LPush(ctx, []byte("l"), [][]byte{[]byte("a")})
	if err != nil {
		t.Fatalf("LPush() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("LPush() should report length 3, got %d", n)
	}

	if got := rangeStrings(t, e, "l", 0, -1); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("List content = %v, want [a b c]", got)
	}

	value, found, err := lists.LPop(ctx, []byte("l"))
	if err != nil || !found || string(value) != "a" {
		t.Errorf("LPop() = (%q, %v, %v), want (\"a\", true, nil)", value, found, err)
	}

	value, found, err = lists.RPop(ctx, []byte("l"))
	if err != nil || !found || string(value) != "c" {
		t.Errorf("RPop() = (%q, %v, %v), want (\"c\", true, nil)", value, found, err)
	}

	n, _ = lists.LLen(ctx, []byte("l"))
	if n != 1 {
		t.Errorf("LLen() = %d, want 1", n)
	}
}

// TestListPopEmpty tests pops on empty and missing lists
func TestListPopEmpty(t *testing.T) {
	e, store := newTestEngine(t, 4)
	ctx := context.Background()
	lists := e.Lists(nil)

	_, found, err := lists.LPop(ctx, []byte("missing"))
	if err != nil {
		t.Fatalf("LPop() failed: %v", err)
	}
	if found {
		t.Error("LPop() on a missing list should not find a value")
	}

	// draining a list removes its meta key
	pushRight(t, e, "l", "only")
	if _, _, err := lists.LPop(ctx, []byte("l")); err != nil {
		t.Fatalf("LPop() failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Store should be empty after draining the list, has %d keys", store.Len())
	}
}

// TestListIndexAndSet tests positional access
func TestListIndexAndSet(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()
	lists := e.Lists(nil)
	pushRight(t, e, "l", "a", "b", "c")

	value, found, err := lists.LIndex(ctx, []byte("l"), 1)
	if err != nil || !found || string(value) != "b" {
		t.Errorf("LIndex(1) = (%q, %v, %v), want (\"b\", true, nil)", value, found, err)
	}

	value, found, err = lists.LIndex(ctx, []byte("l"), -1)
	if err != nil || !found || string(value) != "c" {
		t.Errorf("LIndex(-1) = (%q, %v, %v), want (\"c\", true, nil)", value, found, err)
	}

	_, found, err = lists.LIndex(ctx, []byte("l"), 7)
	if err != nil || found {
		t.Errorf("LIndex(7) = (_, %v, %v), want (false, nil)", found, err)
	}

	if err := lists.LSet(ctx, []byte("l"), 1, []byte("B")); err != nil {
		t.Fatalf("LSet() failed: %v", err)
	}
	if got := rangeStrings(t, e, "l", 0, -1); !reflect.DeepEqual(got, []string{"a", "B", "c"}) {
		t.Errorf("List content = %v, want [a B c]", got)
	}

	if err := lists.LSet(ctx, []byte("l"), 9, []byte("x")); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("LSet(9) should return ErrIndexOutOfRange, got: %v", err)
	}
	if err := lists.LSet(ctx, []byte("missing"), 0, []byte("x")); !errors.Is(err, ErrNoSuchKey) {
		t.Errorf("LSet() on a missing list should return ErrNoSuchKey, got: %v", err)
	}
}

// TestListRange tests range reads with negative indices
func TestListRange(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	pushRight(t, e, "l", "a", "b", "c", "d", "e")

	cases := []struct {
		start, stop int64
		want        []string
	}{
		{0, -1, []string{"a", "b", "c", "d", "e"}},
		{1, 3, []string{"b", "c", "d"}},
		{-2, -1, []string{"d", "e"}},
		{3, 1, nil},
		{10, 20, nil},
	}

	for _, c := range cases {
		got := rangeStrings(t, e, "l", c.start, c.stop)
		if len(got) == 0 && len(c.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("LRange(%d, %d) = %v, want %v", c.start, c.stop, got, c.want)
		}
	}
}

// TestListTrim tests that trimming keeps exactly the requested window
func TestListTrim(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()
	lists := e.Lists(nil)
	pushRight(t, e, "l", "a", "b", "c", "d", "e")

	if err := lists.LTrim(ctx, []byte("l"), 1, 3); err != nil {
		t.Fatalf("LTrim() failed: %v", err)
	}
	if got := rangeStrings(t, e, "l", 0, -1); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Errorf("List content = %v, want [b c d]", got)
	}

	n, _ := lists.LLen(ctx, []byte("l"))
	if n != 3 {
		t.Errorf("LLen() after trim = %d, want 3", n)
	}
}

// TestListTrimToEmpty tests that trimming everything removes the list
func TestListTrimToEmpty(t *testing.T) {
	e, store := newTestEngine(t, 4)
	ctx := context.Background()
	lists := e.Lists(nil)
	pushRight(t, e, "l", "a", "b")

	// an inverted window keeps nothing
	if err := lists.LTrim(ctx, []byte("l"), 5, 1); err != nil {
		t.Fatalf("LTrim() failed: %v", err)
	}

	n, _ := lists.LLen(ctx, []byte("l"))
	if n != 0 {
		t.Errorf("LLen() after trimming all = %d, want 0", n)
	}
	if store.Len() != 0 {
		t.Errorf("Store should be empty after trimming all elements, has %d keys", store.Len())
	}
}

// TestListTrimNegativeWindow tests trimming with negative indices
func TestListTrimNegativeWindow(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	lists := e.Lists(nil)
	pushRight(t, e, "l", "a", "b", "c", "d")

	if err := lists.LTrim(context.Background(), []byte("l"), -2, -1); err != nil {
		t.Fatalf("LTrim() failed: %v", err)
	}
	if got := rangeStrings(t, e, "l", 0, -1); !reflect.DeepEqual(got, []string{"c", "d"}) {
		t.Errorf("List content = %v, want [c d]", got)
	}
}

// TestListTrimRetriesOnConflict tests that a trim survives write conflicts
// and still applies exactly once
func TestListTrimRetriesOnConflict(t *testing.T) {
	e, store := newTestEngine(t, 4)
	lists := e.Lists(nil)
	pushRight(t, e, "l", "a", "b", "c", "d", "e")

	store.ForceConflicts(2)
	if err := lists.LTrim(context.Background(), []byte("l"), 1, 3); err != nil {
		t.Fatalf("LTrim() should succeed after retries, got: %v", err)
	}

	if got := rangeStrings(t, e, "l", 0, -1); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Errorf("List content = %v, want [b c d]", got)
	}
}
