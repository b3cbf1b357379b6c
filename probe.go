package pollwait

import "context"

// ProbeFunc is a caller-supplied non-blocking check for availability of a
// result.
//
// A probe must check exactly once and return immediately: found reports
// whether a payload was available, and payload carries the value when it
// was. A found payload may legitimately be the zero value of T; the found
// flag is authoritative. The poll loop never invokes a probe concurrently
// with itself.
//
// The context is the one supplied to the run that invoked the probe.
// Cancellation is cooperative: a probe already executing is never
// interrupted, but it may observe ctx and bail out early on its own.
type ProbeFunc[T any] func(ctx context.Context) (payload T, found bool)

// Callback processes a payload delivered by the notification loop.
//
// The returned value controls loop continuation: true re-enters the poll
// loop to await the next payload, false ends the run and returns the
// poller to idle.
type Callback[T any] func(payload T) (continuePolling bool)

// SentinelProbe adapts a value-or-absence probe onto the explicit
// (payload, found) contract.
//
// The wrapped function signals absence by returning the zero value of T;
// any other value counts as found and is passed through unchanged. Use it
// when the payload type can never legitimately be its own zero value,
// which keeps caller code to a single return:
//
//	probe := pollwait.SentinelProbe(func(ctx context.Context) string {
//	    return queue.TryDequeue() // "" means nothing available
//	})
func SentinelProbe[T comparable](fn func(ctx context.Context) T) ProbeFunc[T] {
	return func(ctx context.Context) (T, bool) {
		var sentinel T
		v := fn(ctx)
		return v, v != sentinel
	}
}
