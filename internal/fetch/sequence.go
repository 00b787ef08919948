package fetch

import "sync/atomic"

// Sequencer tags dispatched calls so only the most recent one may apply
// its effects. The zero value is ready to use.
type Sequencer struct {
	latest atomic.Uint64
}

// Next returns the tag for a newly dispatched call
func (s *Sequencer) Next() uint64 {
	return s.latest.Add(1)
}

// IsCurrent reports whether n is still the latest dispatched tag
func (s *Sequencer) IsCurrent(n uint64) bool {
	return s.latest.Load() == n
}

// Invalidate makes every outstanding tag stale
func (s *Sequencer) Invalidate() {
	s.latest.Add(1)
}
