package pollwait

// Dispatcher controls where notification callbacks execute.
//
// Each time the notification loop finds a payload it hands the processing
// step to the dispatcher as a closure. The default dispatcher invokes the
// closure directly on the loop's worker goroutine. Supply a custom
// dispatcher via [WithDispatcher] to marshal callbacks onto a
// context-sensitive executor, such as an event loop or a UI thread.
//
// A Dispatcher must execute the closure exactly once. The loop blocks until
// the closure has run, so delivery is strictly sequential and the
// callback's continue/stop decision is always observed, regardless of
// where the closure executes. A dispatcher that drops the closure
// deadlocks the loop.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a plain function to the [Dispatcher] interface,
// for example to enqueue onto a caller-owned executor:
//
//	pollwait.WithDispatcher[Job](pollwait.DispatcherFunc(loop.Submit))
type DispatcherFunc func(fn func())

// Dispatch calls d(fn).
func (d DispatcherFunc) Dispatch(fn func()) {
	d(fn)
}

// directDispatcher runs callbacks inline on the notification worker.
type directDispatcher struct{}

func (directDispatcher) Dispatch(fn func()) {
	fn()
}
