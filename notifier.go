package pollwait

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
)

// Start begins the notification loop on an independent worker goroutine
// and returns immediately.
//
// The loop drives the probe with the same backoff as
// [Poller.WaitForPayload]; each time the probe produces a payload, the
// configured callback (see [WithCallback] or [Handler.Process]) is
// delivered through the [Dispatcher], then the loop re-enters polling with
// a fresh backoff. The loop runs indefinitely until one of:
//
//   - [Poller.Stop], the shared [ExitSignal], or ctx fires, observed at
//     the next wait boundary
//   - the callback returns false
//   - a probe or callback panic is recovered and recorded as a fault
//
// at which point the worker exits and the instance returns to idle.
//
// Start fails with [ErrAlreadyRunning] if a run is already active; this is
// the single policy, there is no silent no-op variant. It fails with a
// configuration error if no callback is configured.
//
// A nil ctx is treated as context.Background().
func (p *Poller[T]) Start(ctx context.Context) error {
	if !p.notifiable {
		return fmt.Errorf("a callback is required for the notification loop: supply WithCallback or WithHandler: %w", ErrInvalidConfig)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.beginRun(); err != nil {
		return err
	}

	go p.notifyLoop(ctx)
	return nil
}

// notifyLoop alternates between the poll engine and callback dispatch
// until an abort, a stop-requesting callback, or a fault.
func (p *Poller[T]) notifyLoop(ctx context.Context) {
	defer p.endRun()

	for {
		payload, found, ok := p.pollRecovered(ctx)
		if !ok || !found {
			return
		}

		cont, ok := p.dispatchPayload(payload)
		if !ok || !cont {
			return
		}
	}
}

// pollRecovered runs the poll engine with panic recovery. ok is false when
// a probe panic was recovered and recorded.
func (p *Poller[T]) pollRecovered(ctx context.Context) (payload T, found bool, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.recordFault("probe", r, debug.Stack())
			found = false
			ok = false
		}
	}()
	payload, found = p.runLoop(ctx)
	return payload, found, true
}

// dispatchOutcome carries a callback's result back from the dispatcher.
type dispatchOutcome struct {
	cont     bool
	panicked bool
	value    any
	stack    []byte
}

// dispatchPayload delivers one payload through the dispatcher and waits
// for the callback to finish, so its continue/stop decision is always
// observed before the loop proceeds. ok is false when a callback panic was
// recovered and recorded.
func (p *Poller[T]) dispatchPayload(payload T) (cont bool, ok bool) {
	outcome := make(chan dispatchOutcome, 1)
	p.dispatcher.Dispatch(func() {
		defer func() {
			if r := recover(); r != nil {
				outcome <- dispatchOutcome{panicked: true, value: r, stack: debug.Stack()}
			}
		}()
		outcome <- dispatchOutcome{cont: p.handler.Process(payload)}
	})

	res := <-outcome
	if res.panicked {
		p.recordFault("callback", res.value, res.stack)
		return false, false
	}
	return res.cont, true
}

// recordFault logs a recovered panic with a correlation ID and full stack,
// stores a user-facing error as the run's last fault, and notifies the
// fault observer. The loop's failure is never silently lost.
func (p *Poller[T]) recordFault(stage string, r any, stack []byte) {
	correlationID := uuid.NewString()

	// log full context for debugging; the returned error carries only the ID
	p.logger.Error("poll loop panic",
		"stage", stage,
		"correlation_id", correlationID,
		"panic", fmt.Sprintf("%v", r),
		"stack", string(stack),
	)

	err := fmt.Errorf("%s panic (correlation_id: %s)", stage, correlationID)

	p.mu.Lock()
	p.fault = err
	p.mu.Unlock()

	if p.observer != nil {
		p.observer(err)
	}
}
