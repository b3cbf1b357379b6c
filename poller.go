package pollwait

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpalmerr/pollwait/internal/backoff"
)

const (
	defaultMaxPollDelay   = 30 * time.Second
	defaultRetryIncrement = 100 * time.Millisecond

	// minDelaySetting is the floor for both delay settings. Sub-millisecond
	// values degenerate into a busy loop, which is what the backoff exists
	// to prevent.
	minDelaySetting = time.Millisecond
)

// Poller converts a non-blocking probe into either a synchronous wait for
// a payload or an asynchronous notification stream.
//
// Poller is created with [New] and a probe (via [WithProbe], or a full
// [Handler] via [WithHandler]). Between empty probe results it waits with
// a progressively growing delay, capped by [WithMaxPollDelay] and seeded
// by [WithInitialRetryIncrement]; the progression resets whenever a probe
// succeeds or a new run starts.
//
// The typical blocking lifecycle is:
//
//	p, err := pollwait.New(pollwait.WithProbe(probe))
//	if err != nil {
//	    slog.Error("failed to create poller", "error", err)
//	    os.Exit(1)
//	}
//
//	payload, found, err := p.WaitForPayload(ctx) // blocks until found or aborted
//
// For the asynchronous variant, configure a callback and use
// [Poller.Start]. At most one run — blocking or notification — may be
// active per instance at a time; a second start fails with
// [ErrAlreadyRunning]. Distinct instances are independent and may run
// concurrently, optionally sharing one [ExitSignal].
//
// All methods are safe for concurrent use.
type Poller[T any] struct {
	handler    Handler[T]
	notifiable bool
	maxDelay   time.Duration
	increment  time.Duration
	exit       *ExitSignal
	dispatcher Dispatcher
	logger     *slog.Logger
	observer   func(error)

	stop *gate

	mu      sync.Mutex
	running bool
	fault   error

	emptyPolls   atomic.Int64
	successPolls atomic.Int64
}

// New creates a new [Poller] with the given options.
//
// A probe is required, supplied either as a function via [WithProbe] or as
// part of a [Handler] via [WithHandler]. Other options have sensible
// defaults:
//   - Max poll delay: 30 seconds
//   - Initial retry increment: 100 milliseconds
//   - Dispatcher: direct invocation on the notification worker
//
// Returns an error wrapping [ErrInvalidConfig] if no probe is configured
// or any option is invalid.
//
// Example:
//
//	p, err := pollwait.New(
//	    pollwait.WithProbe(probe),
//	    pollwait.WithMaxPollDelay(5*time.Second),
//	    pollwait.WithInitialRetryIncrement(50*time.Millisecond),
//	)
func New[T any](opts ...Option[T]) (*Poller[T], error) {
	cfg := &pollerConfig[T]{
		maxDelay:  defaultMaxPollDelay,
		increment: defaultRetryIncrement,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	handler, notifiable, err := cfg.resolveHandler()
	if err != nil {
		return nil, err
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	dispatcher := cfg.dispatcher
	if dispatcher == nil {
		dispatcher = directDispatcher{}
	}

	p := &Poller[T]{
		handler:    handler,
		notifiable: notifiable,
		maxDelay:   cfg.maxDelay,
		increment:  cfg.increment,
		exit:       cfg.exit,
		dispatcher: dispatcher,
		logger:     logger,
		observer:   cfg.observer,
		stop:       newGate(),
	}

	if cfg.autoStart {
		if err := p.Start(context.Background()); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// WaitForPayload blocks on the calling goroutine until the probe produces
// a payload or the run is aborted.
//
// On success it returns the payload exactly as the probe returned it, with
// found=true. If [Poller.Stop], the shared [ExitSignal], or ctx aborts the
// run, it returns the zero value with found=false and a nil error; aborts
// are observed only at a wait boundary, never mid-probe. A non-nil error
// is returned only when the instance is already running
// ([ErrAlreadyRunning]).
//
// Each call is a fresh run: the stop request from any previous run is
// cleared, the poll counters reset, and the backoff starts again from a
// zero delay. The instance returns to idle on every exit path, including a
// panicking probe (the panic propagates to the caller).
//
// A nil ctx is treated as context.Background().
func (p *Poller[T]) WaitForPayload(ctx context.Context) (payload T, found bool, err error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.beginRun(); err != nil {
		return zero, false, err
	}
	defer p.endRun()

	payload, found = p.runLoop(ctx)
	if !found {
		return zero, false, nil
	}
	return payload, true, nil
}

// Stop requests that the active run end at its next wait boundary.
//
// Stop never preempts a probe or callback already executing; it only
// prevents the next wait/probe cycle from starting. It is idempotent and
// safe to call at any time, including when no run is active.
func (p *Poller[T]) Stop() {
	p.stop.set()
}

// IsStopped reports whether a stop condition is currently signaled: a
// pending or resting stop request, or the shared exit signal. It is true
// whenever no run is active, and never blocks.
func (p *Poller[T]) IsStopped() bool {
	return p.stop.isSet() || p.exit.Triggered()
}

// IsRunning reports whether a run (blocking or notification) is currently
// active on this instance.
func (p *Poller[T]) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// EmptyPollCount returns the number of probe invocations in the current or
// most recent run that came back empty. The count resets when a new run
// starts and persists unchanged after a run completes.
func (p *Poller[T]) EmptyPollCount() int64 {
	return p.emptyPolls.Load()
}

// SuccessPollCount returns the number of probe invocations in the current
// or most recent run that produced a payload. The count resets when a new
// run starts and persists unchanged after a run completes.
func (p *Poller[T]) SuccessPollCount() int64 {
	return p.successPolls.Load()
}

// LastFault returns the fault that ended the most recent notification run,
// or nil. Faults are recorded when a probe or callback panics during a
// background loop; see also [WithFaultObserver]. The fault resets when a
// new run starts.
func (p *Poller[T]) LastFault() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fault
}

// beginRun transitions the instance from idle to running: exactly one run
// may be active at a time. It clears the stop request and resets the
// per-run counters and fault.
func (p *Poller[T]) beginRun() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrAlreadyRunning
	}
	p.running = true
	p.fault = nil
	p.emptyPolls.Store(0)
	p.successPolls.Store(0)
	p.stop.clear()
	return nil
}

// endRun returns the instance to idle. The stop gate is re-signaled so the
// resting state reads as stopped.
func (p *Poller[T]) endRun() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	p.stop.set()
}

// runLoop is the poll engine: it alternates between a bounded multi-signal
// wait and a single probe invocation until the probe succeeds or an abort
// condition fires. Probe invocations are strictly sequential.
func (p *Poller[T]) runLoop(ctx context.Context) (T, bool) {
	var zero T
	bo := backoff.New(p.increment, p.maxDelay)
	timer := time.NewTimer(0)
	stopAndDrainTimer(timer)
	defer stopAndDrainTimer(timer)

	for {
		if delay := bo.Current(); delay > 0 {
			timer.Reset(delay)
			select {
			case <-p.stop.done():
				return zero, false
			case <-p.exit.Done():
				return zero, false
			case <-ctx.Done():
				return zero, false
			case <-timer.C:
			}
		} else if p.IsStopped() || ctx.Err() != nil {
			// zero-timeout wait: a non-blocking check of the same conditions
			return zero, false
		}

		payload, found := p.handler.Probe(ctx)
		if found {
			p.successPolls.Add(1)
			return payload, true
		}
		p.emptyPolls.Add(1)
		bo.Advance()
	}
}

// stopAndDrainTimer stops the timer and clears any value already in its
// channel, so the next Reset cannot observe a stale expiry.
func stopAndDrainTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
