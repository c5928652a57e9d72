package engine

import (
	"context"
	"reflect"
	"testing"
)

// zaddAll populates a sorted set
func zaddAll(t *testing.T, e *Engine, key string, entries ...ScoredMember) int64 {
	t.Helper()
	added, err := e.ZSets(nil).ZAdd(context.Background(), []byte(key), entries)
	if err != nil {
		t.Fatalf("ZAdd() failed: %v", err)
	}
	return added
}

// TestZSetAddAndScore tests insertion and score lookup
func TestZSetAddAndScore(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx := context.Background()
	zsets := e.ZSets(nil)

	added := zaddAll(t, e, "z",
		ScoredMember{Member: []byte("a"), Score: 1},
		ScoredMember{Member: []byte("b"), Score: 2},
	)
	if added != 2 {
		t.Errorf("ZAdd() should report 2 new members, got %d", added)
	}

	// updating an existing member's score adds nothing
	added = zaddAll(t, e, "z", ScoredMember{Member: []byte("a"), Score: 9})
	if added != 0 {
		t.Errorf("ZAdd() score update should report 0 new members, got %d", added)
	}

	score, found, err := zsets.ZScore(ctx, []byte("z"), []byte("a"))
	if err != nil {
		t.Fatalf("ZScore() failed: %v", err)
	}
	if !found || score != 9 {
		t.Errorf("ZScore(a) = (%v, %v), want (9, true)", score, found)
	}

	_, found, _ = zsets.ZScore(ctx, []byte("z"), []byte("missing"))
	if found {
		t.Error("ZScore() should not find a missing member")
	}

	n, _ := zsets.ZCard(ctx, []byte("z"))
	if n != 2 {
		t.Errorf("ZCard() = %d, want 2", n)
	}
}

// TestZSetRange tests rank-range reads in score order
func TestZSetRange(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	zsets := e.ZSets(nil)

	zaddAll(t, e, "z",
		ScoredMember{Member: []byte("c"), Score: 3},
		ScoredMember{Member: []byte("a"), Score: 1},
		ScoredMember{Member: []byte("neg"), Score: -5},
		ScoredMember{Member: []byte("b"), Score: 2},
	)

	entries, err := zsets.ZRange(context.Background(), []byte("z"), 0, -1)
	if err != nil {
		t.Fatalf("ZRange() failed: %v", err)
	}

	got := make([]string, len(entries))
	for i, en := range entries {
		got[i] = string(en.Member)
	}
	if !reflect.DeepEqual(got, []string{"neg", "a", "b", "c"}) {
		t.Errorf("ZRange() order = %v, want [neg a b c]", got)
	}
	if entries[0].Score != -5 {
		t.Errorf("First score = %v, want -5", entries[0].Score)
	}

	// sub range with negative indices
	entries, err = zsets.ZRange(context.Background(), []byte("z"), -2, -1)
	if err != nil {
		t.Fatalf("ZRange() failed: %v", err)
	}
	if len(entries) != 2 || string(entries[0].Member) != "b" {
		t.Errorf("ZRange(-2, -1) wrong, got %d entries", len(entries))
	}
}

// TestZSetTieBreakByMember tests that equal scores order by member bytes
func TestZSetTieBreakByMember(t *testing.T) {
	e, _ := newTestEngine(t, 4)

	zaddAll(t, e, "z",
		ScoredMember{Member: []byte("bb"), Score: 1},
		ScoredMember{Member: []byte("aa"), Score: 1},
	)

	entries, err := e.ZSets(nil).ZRange(context.Background(), []byte("z"), 0, -1)
	if err != nil {
		t.Fatalf("ZRange() failed: %v", err)
	}
	if string(entries[0].Member) != "aa" || string(entries[1].Member) != "bb" {
		t.Errorf("Tie break order wrong: %q, %q", entries[0].Member, entries[1].Member)
	}
}

// TestZSetCount tests score-window counting
func TestZSetCount(t *testing.T) {
	e, _ := newTestEngine(t, 4)

	zaddAll(t, e, "z",
		ScoredMember{Member: []byte("a"), Score: 1},
		ScoredMember{Member: []byte("b"), Score: 2},
		ScoredMember{Member: []byte("c"), Score: 3},
	)

	n, err := e.ZSets(nil).ZCount(context.Background(), []byte("z"), 2, 3)
	if err != nil {
		t.Fatalf("ZCount() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("ZCount(2, 3) = %d, want 2", n)
	}
}

// TestZSetRemove tests member removal including the score index
func TestZSetRemove(t *testing.T) {
	e, store := newTestEngine(t, 4)
	ctx := context.Background()
	zsets := e.ZSets(nil)

	zaddAll(t, e, "z",
		ScoredMember{Member: []byte("a"), Score: 1},
		ScoredMember{Member: []byte("b"), Score: 2},
	)

	removed, err := zsets.ZRem(ctx, []byte("z"), [][]byte{[]byte("a"), []byte("missing")})
	if err != nil {
		t.Fatalf("ZRem() failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("ZRem() should remove 1 member, got %d", removed)
	}

	entries, _ := zsets.ZRange(ctx, []byte("z"), 0, -1)
	if len(entries) != 1 || string(entries[0].Member) != "b" {
		t.Errorf("Remaining entries wrong: %d", len(entries))
	}

	// removing the last member drops every backend key of the set
	if _, err := zsets.ZRem(ctx, []byte("z"), [][]byte{[]byte("b")}); err != nil {
		t.Fatalf("ZRem() failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Store should be empty after removing all members, has %d keys", store.Len())
	}
}
