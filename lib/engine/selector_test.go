package engine

import (
	"sync"
	"testing"
)

// TestRoundRobinSequence tests that selections cycle through all slots in
// order
func TestRoundRobinSequence(t *testing.T) {
	s := NewRoundRobinSelector()

	want := []int{0, 1, 2, 0, 1, 2}
	for i, expected := range want {
		if got := s.Next(3); got != expected {
			t.Fatalf("Call %d: expected %d, got %d", i, expected, got)
		}
	}
}

// TestRoundRobinFairness tests that concurrent selections stay evenly
// distributed
func TestRoundRobinFairness(t *testing.T) {
	const (
		slots   = 4
		workers = 8
		perWork = 1000
	)

	s := NewRoundRobinSelector()
	counts := make([]int64, slots)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, slots)
			for i := 0; i < perWork; i++ {
				local[s.Next(slots)]++
			}
			mu.Lock()
			for i, n := range local {
				counts[i] += n
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	// the atomic counter guarantees perfect fairness regardless of interleaving
	expected := int64(workers * perWork / slots)
	for slot, n := range counts {
		if n != expected {
			t.Errorf("Slot %d selected %d times, expected %d", slot, n, expected)
		}
	}
}
