package pollwait

import (
	"fmt"
	"log/slog"
	"time"
)

// pollerConfig holds mutable state during Poller construction.
type pollerConfig[T any] struct {
	handler    Handler[T]
	probe      ProbeFunc[T]
	callback   Callback[T]
	maxDelay   time.Duration
	increment  time.Duration
	exit       *ExitSignal
	dispatcher Dispatcher
	logger     *slog.Logger
	observer   func(error)
	autoStart  bool
}

// resolveHandler reduces the probe/callback/handler options to a single
// [Handler] and reports whether the poller can drive a notification loop.
func (cfg *pollerConfig[T]) resolveHandler() (Handler[T], bool, error) {
	if cfg.handler != nil {
		if cfg.probe != nil || cfg.callback != nil {
			return nil, false, fmt.Errorf("WithHandler cannot be combined with WithProbe or WithCallback: %w", ErrInvalidConfig)
		}
		return cfg.handler, true, nil
	}
	if cfg.probe == nil {
		return nil, false, fmt.Errorf("a probe is required: supply WithProbe or WithHandler: %w", ErrInvalidConfig)
	}
	return HandlerFuncs[T]{ProbeFunc: cfg.probe, ProcessFunc: cfg.callback}, cfg.callback != nil, nil
}

// Option is a function that configures a [Poller] instance during
// construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithProbe], [WithCallback], [WithHandler],
// [WithMaxPollDelay], [WithInitialRetryIncrement], [WithExitSignal],
// [WithDispatcher], [WithLogger], [WithFaultObserver], [WithAutoStart].
type Option[T any] func(*pollerConfig[T]) error

// WithProbe sets the probe function invoked on each poll attempt.
//
// Required unless a full [Handler] is supplied via [WithHandler]. See
// [ProbeFunc] for the contract, and [SentinelProbe] for adapting
// value-or-absence probes.
//
// Returns an error if the probe is nil.
func WithProbe[T any](probe ProbeFunc[T]) Option[T] {
	return func(cfg *pollerConfig[T]) error {
		if probe == nil {
			return fmt.Errorf("probe cannot be nil: %w", ErrInvalidConfig)
		}
		cfg.probe = probe
		return nil
	}
}

// WithCallback registers the function the notification loop invokes for
// each payload the probe produces.
//
// The callback's return value is honored: true continues the loop, false
// ends the run. Callbacks execute via the configured [Dispatcher], one at
// a time, in payload order. A callback is required for [Poller.Start] and
// [WithAutoStart]; [Poller.WaitForPayload] never invokes it.
//
// Returns an error if the callback is nil.
func WithCallback[T any](cb Callback[T]) Option[T] {
	return func(cfg *pollerConfig[T]) error {
		if cb == nil {
			return fmt.Errorf("callback cannot be nil: %w", ErrInvalidConfig)
		}
		cfg.callback = cb
		return nil
	}
}

// WithHandler supplies probe and processing behaviour as a single
// [Handler] implementation, as an alternative to [WithProbe] plus
// [WithCallback]. The two styles cannot be combined.
//
// Returns an error if the handler is nil.
func WithHandler[T any](h Handler[T]) Option[T] {
	return func(cfg *pollerConfig[T]) error {
		if h == nil {
			return fmt.Errorf("handler cannot be nil: %w", ErrInvalidConfig)
		}
		cfg.handler = h
		return nil
	}
}

// WithMaxPollDelay sets the upper bound on the wait between empty probe
// attempts. Defaults to 30 seconds if not specified.
//
// Returns an error if the duration is below one millisecond.
func WithMaxPollDelay[T any](d time.Duration) Option[T] {
	return func(cfg *pollerConfig[T]) error {
		if d < minDelaySetting {
			return fmt.Errorf("max poll delay must be at least %s, got %s: %w", minDelaySetting, d, ErrInvalidConfig)
		}
		cfg.maxDelay = d
		return nil
	}
}

// WithInitialRetryIncrement sets the wait after the first empty probe,
// which also seeds the doubling progression of subsequent waits. Defaults
// to 100 milliseconds if not specified.
//
// Returns an error if the duration is below one millisecond.
func WithInitialRetryIncrement[T any](d time.Duration) Option[T] {
	return func(cfg *pollerConfig[T]) error {
		if d < minDelaySetting {
			return fmt.Errorf("initial retry increment must be at least %s, got %s: %w", minDelaySetting, d, ErrInvalidConfig)
		}
		cfg.increment = d
		return nil
	}
}

// WithExitSignal attaches the process-wide [ExitSignal] to this instance.
// Once the signal triggers, any active or future run aborts at its next
// wait boundary, exactly as if [Poller.Stop] had been called.
//
// Returns an error if the signal is nil.
func WithExitSignal[T any](exit *ExitSignal) Option[T] {
	return func(cfg *pollerConfig[T]) error {
		if exit == nil {
			return fmt.Errorf("exit signal cannot be nil: %w", ErrInvalidConfig)
		}
		cfg.exit = exit
		return nil
	}
}

// WithDispatcher sets the [Dispatcher] used to deliver notification
// callbacks. Defaults to direct invocation on the loop's worker goroutine.
//
// Returns an error if the dispatcher is nil.
func WithDispatcher[T any](d Dispatcher) Option[T] {
	return func(cfg *pollerConfig[T]) error {
		if d == nil {
			return fmt.Errorf("dispatcher cannot be nil: %w", ErrInvalidConfig)
		}
		cfg.dispatcher = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the poller instance.
//
// This allows consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(cfg *pollerConfig[T]) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil: %w", ErrInvalidConfig)
		}
		cfg.logger = logger
		return nil
	}
}

// WithFaultObserver registers a function invoked when a probe or callback
// panic ends a notification run. The observer receives the same error that
// [Poller.LastFault] reports, after it has been recorded and logged.
//
// Nil observers are silently ignored.
func WithFaultObserver[T any](fn func(error)) Option[T] {
	return func(cfg *pollerConfig[T]) error {
		if fn == nil {
			return nil // no-op for nil observer (safe to call)
		}
		cfg.observer = fn
		return nil
	}
}

// WithAutoStart begins the notification loop immediately at construction,
// equivalent to a successful [New] followed by [Poller.Start] with a
// background context. Construction fails if no callback is configured.
func WithAutoStart[T any]() Option[T] {
	return func(cfg *pollerConfig[T]) error {
		cfg.autoStart = true
		return nil
	}
}
