// Package pollwait converts a non-blocking "check once, may come back
// empty" probe into either a synchronous blocking wait for a result, or an
// asynchronous notification stream that invokes a callback whenever the
// probe succeeds.
//
// Polling-based integration faces a standard tension: a tight loop wastes
// CPU and cost, while a fixed interval adds unnecessary latency. pollwait
// resolves it with an adaptive backoff — the wait between empty probes
// starts at zero and grows by a doubling increment up to a configured cap,
// resetting whenever a probe succeeds.
//
// # Quick Start
//
// Block until a probe produces a payload:
//
//	p, _ := pollwait.New(
//	    pollwait.WithProbe(func(ctx context.Context) (string, bool) {
//	        return queue.TryDequeue()
//	    }),
//	)
//
//	payload, found, err := p.WaitForPayload(ctx)
//
// Or receive every payload through a callback on a background worker:
//
//	p, _ := pollwait.New(
//	    pollwait.WithProbe(probe),
//	    pollwait.WithCallback(func(msg string) bool {
//	        handle(msg)
//	        return true // keep polling
//	    }),
//	)
//
//	_ = p.Start(ctx)
//	// ... later
//	p.Stop()
//
// # Configuration
//
// pollwait uses the functional options pattern for configuration:
//
//	p, err := pollwait.New(
//	    pollwait.WithProbe(probe),
//	    pollwait.WithMaxPollDelay(5*time.Second),
//	    pollwait.WithInitialRetryIncrement(50*time.Millisecond),
//	    pollwait.WithExitSignal(exit),
//	)
//
// # Cancellation
//
// Cancellation is cooperative and observed only at wait boundaries, never
// mid-probe. Three equivalent abort conditions end a run: the instance's
// own [Poller.Stop], the context passed to the run, and a process-wide
// [ExitSignal] shared by every poller that was constructed with it.
//
// # Architecture
//
// The public API lives in this package; the deterministic delay
// progression lives in internal/backoff. A standalone CLI under
// cmd/pollwait waits for files or TCP endpoints using YAML configuration
// from the config package. The internal packages are not part of the
// public API and may change without notice.
package pollwait
