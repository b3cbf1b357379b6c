package pollwait

import "errors"

// ErrAlreadyRunning is returned when a run is started on a [Poller] whose
// loop is already active. The running loop is unaffected; the caller must
// wait for it to finish or use a different instance.
var ErrAlreadyRunning = errors.New("pollwait: poll loop already running")

// ErrInvalidConfig is the sentinel wrapped by all configuration errors,
// such as an out-of-range delay or a missing probe. Use [errors.Is] to
// classify:
//
//	if errors.Is(err, pollwait.ErrInvalidConfig) { ... }
var ErrInvalidConfig = errors.New("pollwait: invalid configuration")
