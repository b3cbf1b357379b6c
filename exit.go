package pollwait

import "sync"

// ExitSignal is a process-wide shutdown condition shared by every [Poller]
// in the process.
//
// An ExitSignal is constructed once per process with [NewExitSignal] and
// injected into each poller via [WithExitSignal]. It is triggered at most
// once, by the process lifecycle owner, and never resets. Every poller
// observing the signal treats it exactly like its own Stop request: the
// next wait boundary aborts the run.
//
// Typical wiring at process startup:
//
//	exit := pollwait.NewExitSignal()
//	go func() {
//	    <-shutdownCtx.Done()
//	    exit.Trigger()
//	}()
//
// All methods are safe for concurrent use. A nil *ExitSignal behaves as a
// signal that never triggers, so pollers constructed without
// [WithExitSignal] work normally.
type ExitSignal struct {
	once sync.Once
	ch   chan struct{}
}

// NewExitSignal creates an untriggered [ExitSignal].
func NewExitSignal() *ExitSignal {
	return &ExitSignal{ch: make(chan struct{})}
}

// Trigger marks the process as exiting. Trigger is idempotent; calls after
// the first are no-ops.
func (s *ExitSignal) Trigger() {
	s.once.Do(func() { close(s.ch) })
}

// Done returns a channel that is closed once the signal has been triggered.
// On a nil receiver it returns nil, which blocks forever in a select.
func (s *ExitSignal) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.ch
}

// Triggered reports whether the signal has been triggered. It never blocks.
func (s *ExitSignal) Triggered() bool {
	if s == nil {
		return false
	}
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
