package pollwait

import "context"

// Handler bundles the two capabilities a [Poller] drives: probing for a
// payload and processing one once found.
//
// Most callers configure plain functions via [WithProbe] and
// [WithCallback], which are wrapped in [HandlerFuncs] internally. Implement
// Handler directly when the two behaviours share state, for example a
// queue consumer that tracks its own cursor.
//
// Probe must follow the [ProbeFunc] contract. Process follows the
// [Callback] contract; it is only ever invoked by the notification loop,
// never by [Poller.WaitForPayload].
type Handler[T any] interface {
	Probe(ctx context.Context) (payload T, found bool)
	Process(payload T) (continuePolling bool)
}

// HandlerFuncs is the default [Handler] implementation wrapping plain
// function values. ProbeFunc is required; a nil ProcessFunc makes Process
// report continue, which suits blocking-only use.
type HandlerFuncs[T any] struct {
	ProbeFunc   ProbeFunc[T]
	ProcessFunc Callback[T]
}

// Probe invokes the wrapped probe function.
func (h HandlerFuncs[T]) Probe(ctx context.Context) (T, bool) {
	return h.ProbeFunc(ctx)
}

// Process invokes the wrapped callback, or reports continue if none is set.
func (h HandlerFuncs[T]) Process(payload T) bool {
	if h.ProcessFunc == nil {
		return true
	}
	return h.ProcessFunc(payload)
}
