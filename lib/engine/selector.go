package engine

import "sync/atomic"

// --------------------------------------------------------------------------
// Selection Policy
// --------------------------------------------------------------------------

// ISelector picks one index out of a fixed-size candidate set. Next must be
// safe for concurrent use and must never block; it is called on the hot path
// of every command.
type ISelector interface {
	// Next returns an index in [0, n). n is the current candidate count.
	Next(n int) int
}

// roundRobinSelector distributes selections evenly via an atomic counter.
type roundRobinSelector struct {
	ctr uint64
}

// NewRoundRobinSelector creates the default selection policy. It cycles
// deterministically through the candidates: 0, 1, ..., n-1, 0, 1, ...
func NewRoundRobinSelector() ISelector {
	return &roundRobinSelector{}
}

func (s *roundRobinSelector) Next(n int) int {
	if n <= 1 {
		return 0
	}
	return int((atomic.AddUint64(&s.ctr, 1) - 1) % uint64(n))
}
