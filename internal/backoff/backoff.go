// Package backoff implements the deterministic delay progression used
// between empty poll attempts.
//
// The progression starts at zero, grows by a doubling increment after each
// empty attempt, and is capped at a configured maximum. With an initial
// increment d and cap m, the delay before attempt k is
//
//	delay(0) = 0
//	delay(k) = min(m, d·(2^k − 1))   for k ≥ 1
//
// so d=10ms, m=1000ms yields 0, 10, 30, 70, 150, 310, 630, 1000, 1000, …
//
// Backoff holds no clock and performs no waiting; the caller owns the
// timer. It is not safe for concurrent use.
package backoff

import "time"

// Backoff tracks the current inter-attempt delay.
type Backoff struct {
	initial   time.Duration
	max       time.Duration
	current   time.Duration
	increment time.Duration
}

// New returns a Backoff in its reset state. Both the initial increment and
// the cap are assumed already validated (at least one millisecond).
func New(initialIncrement, max time.Duration) *Backoff {
	b := &Backoff{initial: initialIncrement, max: max}
	b.Reset()
	return b
}

// Current returns the delay to wait before the next attempt. It never
// mutates state.
func (b *Backoff) Current() time.Duration {
	return b.current
}

// Advance records an empty attempt: the delay grows by the increment, and
// the increment doubles until the delay reaches the cap, after which both
// stop growing.
func (b *Backoff) Advance() {
	next := b.current + b.increment
	if next >= b.max {
		b.current = b.max
		return
	}
	b.current = next
	b.increment *= 2
}

// Reset returns the progression to its starting state: zero delay, initial
// increment.
func (b *Backoff) Reset() {
	b.current = 0
	b.increment = b.initial
}
