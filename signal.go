package pollwait

import "sync"

// gate is a manual-reset binary condition: set() signals it, clear() resets
// it. Waiters select on done(). A gate starts signaled, matching the
// "not running" resting state of a poller's stop condition.
type gate struct {
	mu sync.Mutex
	ch chan struct{}
}

func newGate() *gate {
	g := &gate{ch: make(chan struct{})}
	close(g.ch)
	return g
}

// set signals the gate. Idempotent.
func (g *gate) set() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
	default:
		close(g.ch)
	}
}

// clear resets the gate to unsignaled. Idempotent.
func (g *gate) clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
		g.ch = make(chan struct{})
	default:
	}
}

// done returns the channel that is closed while the gate is signaled.
// The channel is replaced on clear, so callers must re-fetch it per wait.
func (g *gate) done() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ch
}

// isSet reports whether the gate is currently signaled. It never blocks.
func (g *gate) isSet() bool {
	select {
	case <-g.done():
		return true
	default:
		return false
	}
}
