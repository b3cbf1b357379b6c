package pollwait

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastDelays keeps abort tests responsive: the loop wakes at most every 10ms.
func fastDelays[T any]() []Option[T] {
	return []Option[T]{
		WithMaxPollDelay[T](10 * time.Millisecond),
		WithInitialRetryIncrement[T](time.Millisecond),
	}
}

// neverFound is a probe that always comes back empty.
func neverFound(ctx context.Context) (string, bool) {
	return "", false
}

// waitUntilIdle blocks until the poller's run has ended, failing the test
// on timeout.
func waitUntilIdle[T any](t *testing.T, p *Poller[T]) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !p.IsRunning() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timeout waiting for poller to return to idle")
}

func TestNew_RequiresProbe(t *testing.T) {
	_, err := New[string]()
	if err == nil {
		t.Fatal("New() expected error for missing probe, got nil")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New() error = %v, want ErrInvalidConfig", err)
	}
}

func TestNew_InvalidDelays(t *testing.T) {
	probe := func(ctx context.Context) (string, bool) { return "", false }

	tests := []struct {
		name string
		opt  Option[string]
	}{
		{"zero max delay", WithMaxPollDelay[string](0)},
		{"negative max delay", WithMaxPollDelay[string](-time.Second)},
		{"sub-millisecond max delay", WithMaxPollDelay[string](500 * time.Microsecond)},
		{"zero increment", WithInitialRetryIncrement[string](0)},
		{"negative increment", WithInitialRetryIncrement[string](-time.Millisecond)},
		{"sub-millisecond increment", WithInitialRetryIncrement[string](999 * time.Microsecond)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithProbe(probe), tt.opt)
			if err == nil {
				t.Fatal("New() expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNew_HandlerAndProbeConflict(t *testing.T) {
	h := HandlerFuncs[string]{ProbeFunc: neverFound}

	_, err := New(WithHandler[string](h), WithProbe(neverFound))
	if err == nil {
		t.Fatal("New() expected error for handler+probe combination, got nil")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New() error = %v, want ErrInvalidConfig", err)
	}
}

// TestWaitForPayload_Passthrough verifies that the successful payload is
// returned exactly as the probe produced it, with no transformation.
func TestWaitForPayload_Passthrough(t *testing.T) {
	want := "payload-42"
	probe := func(ctx context.Context) (string, bool) { return want, true }

	p, err := New(WithProbe(probe), WithLogger[string](testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	payload, found, err := p.WaitForPayload(context.Background())
	if err != nil {
		t.Fatalf("WaitForPayload() error = %v", err)
	}
	if !found {
		t.Fatal("WaitForPayload() found = false, want true")
	}
	if payload != want {
		t.Errorf("WaitForPayload() payload = %q, want %q", payload, want)
	}

	if got := p.SuccessPollCount(); got != 1 {
		t.Errorf("SuccessPollCount() = %d, want 1", got)
	}
	if got := p.EmptyPollCount(); got != 0 {
		t.Errorf("EmptyPollCount() = %d, want 0", got)
	}
}

// TestWaitForPayload_CountsEmptyPolls verifies one empty-count increment
// per empty probe and one success-count increment per found probe.
func TestWaitForPayload_CountsEmptyPolls(t *testing.T) {
	var calls atomic.Int64
	probe := func(ctx context.Context) (int, bool) {
		if calls.Add(1) < 4 {
			return 0, false
		}
		return 99, true
	}

	opts := append(fastDelays[int](), WithProbe(probe), WithLogger[int](testLogger()))
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	payload, found, err := p.WaitForPayload(context.Background())
	if err != nil {
		t.Fatalf("WaitForPayload() error = %v", err)
	}
	if !found || payload != 99 {
		t.Fatalf("WaitForPayload() = (%d, %v), want (99, true)", payload, found)
	}

	if got := p.EmptyPollCount(); got != 3 {
		t.Errorf("EmptyPollCount() = %d, want 3", got)
	}
	if got := p.SuccessPollCount(); got != 1 {
		t.Errorf("SuccessPollCount() = %d, want 1", got)
	}
}

// TestWaitForPayload_StopAborts verifies that Stop ends the wait at the
// next wait boundary with found=false and no error.
func TestWaitForPayload_StopAborts(t *testing.T) {
	opts := append(fastDelays[string](), WithProbe(neverFound), WithLogger[string](testLogger()))
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		p.Stop()
	}()

	payload, found, err := p.WaitForPayload(context.Background())
	if err != nil {
		t.Fatalf("WaitForPayload() error = %v", err)
	}
	if found {
		t.Error("WaitForPayload() found = true, want false after Stop")
	}
	if payload != "" {
		t.Errorf("WaitForPayload() payload = %q, want zero value", payload)
	}
	if !p.IsStopped() {
		t.Error("IsStopped() = false after aborted run, want true")
	}
}

// TestWaitForPayload_ContextCancelAborts verifies that cancelling the run's
// context is an abort condition equivalent to Stop.
func TestWaitForPayload_ContextCancelAborts(t *testing.T) {
	opts := append(fastDelays[string](), WithProbe(neverFound), WithLogger[string](testLogger()))
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, found, err := p.WaitForPayload(ctx)
	if err != nil {
		t.Fatalf("WaitForPayload() error = %v", err)
	}
	if found {
		t.Error("WaitForPayload() found = true, want false after context cancel")
	}
}

// TestWaitForPayload_SharedExitSignal verifies that one exit signal aborts
// every poller constructed with it.
func TestWaitForPayload_SharedExitSignal(t *testing.T) {
	exit := NewExitSignal()

	newPoller := func() *Poller[string] {
		opts := append(fastDelays[string](),
			WithProbe(neverFound),
			WithExitSignal[string](exit),
			WithLogger[string](testLogger()),
		)
		p, err := New(opts...)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		return p
	}

	a, b := newPoller(), newPoller()

	results := make(chan bool, 2)
	for _, p := range []*Poller[string]{a, b} {
		p := p
		go func() {
			_, found, _ := p.WaitForPayload(context.Background())
			results <- found
		}()
	}

	time.Sleep(20 * time.Millisecond)
	exit.Trigger()

	for i := 0; i < 2; i++ {
		select {
		case found := <-results:
			if found {
				t.Error("WaitForPayload() found = true, want false after exit signal")
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for poller to abort on exit signal")
		}
	}

	if !a.IsStopped() || !b.IsStopped() {
		t.Error("IsStopped() = false after exit signal, want true on both instances")
	}
}

// TestWaitForPayload_AlreadyRunning verifies that a second run on a busy
// instance fails with ErrAlreadyRunning and does not disturb the first.
func TestWaitForPayload_AlreadyRunning(t *testing.T) {
	release := make(chan struct{})
	probe := func(ctx context.Context) (string, bool) {
		<-release
		return "done", true
	}

	p, err := New(WithProbe(probe), WithLogger[string](testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	type result struct {
		payload string
		found   bool
		err     error
	}
	first := make(chan result, 1)
	go func() {
		payload, found, err := p.WaitForPayload(context.Background())
		first <- result{payload, found, err}
	}()

	// wait for the first run to actually be active
	deadline := time.Now().Add(5 * time.Second)
	for !p.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for first run to start")
		}
		time.Sleep(time.Millisecond)
	}

	_, _, err = p.WaitForPayload(context.Background())
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second WaitForPayload() error = %v, want ErrAlreadyRunning", err)
	}

	close(release)

	select {
	case res := <-first:
		if res.err != nil || !res.found || res.payload != "done" {
			t.Errorf("first WaitForPayload() = (%q, %v, %v), want (done, true, nil)", res.payload, res.found, res.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for first run to complete")
	}
}

// TestWaitForPayload_ReusableAfterRun verifies that a completed instance
// returns to idle, that counters persist until the next run, and that the
// next run resets them and starts its backoff from zero again.
func TestWaitForPayload_ReusableAfterRun(t *testing.T) {
	var calls atomic.Int64
	probe := func(ctx context.Context) (string, bool) {
		// first run: empty twice, then found; second run: found immediately
		if calls.Add(1) < 3 {
			return "", false
		}
		return "ready", true
	}

	opts := append(fastDelays[string](), WithProbe(probe), WithLogger[string](testLogger()))
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, found, err := p.WaitForPayload(context.Background()); err != nil || !found {
		t.Fatalf("first WaitForPayload() = (_, %v, %v), want (_, true, nil)", found, err)
	}
	if got := p.EmptyPollCount(); got != 2 {
		t.Errorf("EmptyPollCount() after first run = %d, want 2", got)
	}
	if got := p.SuccessPollCount(); got != 1 {
		t.Errorf("SuccessPollCount() after first run = %d, want 1", got)
	}
	if p.IsRunning() {
		t.Error("IsRunning() = true after completed run, want false")
	}

	// counters persist unchanged between runs
	time.Sleep(10 * time.Millisecond)
	if got := p.EmptyPollCount(); got != 2 {
		t.Errorf("EmptyPollCount() persisted = %d, want 2", got)
	}

	if _, found, err := p.WaitForPayload(context.Background()); err != nil || !found {
		t.Fatalf("second WaitForPayload() = (_, %v, %v), want (_, true, nil)", found, err)
	}
	if got := p.EmptyPollCount(); got != 0 {
		t.Errorf("EmptyPollCount() after second run = %d, want 0 (reset)", got)
	}
	if got := p.SuccessPollCount(); got != 1 {
		t.Errorf("SuccessPollCount() after second run = %d, want 1", got)
	}
}

// TestStop_Idempotent verifies that repeated Stop calls, including while
// already stopped, have no additional effect and never error.
func TestStop_Idempotent(t *testing.T) {
	p, err := New(WithProbe(neverFound), WithLogger[string](testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	p.Stop()
	p.Stop()
	p.Stop()

	if !p.IsStopped() {
		t.Error("IsStopped() = false, want true")
	}

	// a fresh run still starts normally after stops while idle
	found := func(ctx context.Context) (string, bool) { return "ok", true }
	p2, err := New(WithProbe(found), WithLogger[string](testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	p2.Stop()
	if _, got, err := p2.WaitForPayload(context.Background()); err != nil || !got {
		t.Errorf("WaitForPayload() after idle Stop = (_, %v, %v), want (_, true, nil)", got, err)
	}
}

// TestIsStopped_TracksRunState verifies the resting state reads as stopped
// and an active run does not.
func TestIsStopped_TracksRunState(t *testing.T) {
	release := make(chan struct{})
	probe := func(ctx context.Context) (string, bool) {
		<-release
		return "done", true
	}

	p, err := New(WithProbe(probe), WithLogger[string](testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if !p.IsStopped() {
		t.Error("IsStopped() = false before any run, want true")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = p.WaitForPayload(context.Background())
	}()

	deadline := time.Now().Add(5 * time.Second)
	for !p.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for run to start")
		}
		time.Sleep(time.Millisecond)
	}
	if p.IsStopped() {
		t.Error("IsStopped() = true during active run with no stop request, want false")
	}

	close(release)
	<-done

	if !p.IsStopped() {
		t.Error("IsStopped() = false after run completed, want true")
	}
}

// TestWaitForPayload_NilContext verifies that a nil context is accepted.
func TestWaitForPayload_NilContext(t *testing.T) {
	probe := func(ctx context.Context) (string, bool) { return "ok", true }

	p, err := New(WithProbe(probe), WithLogger[string](testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	payload, found, err := p.WaitForPayload(nil)
	if err != nil || !found || payload != "ok" {
		t.Errorf("WaitForPayload(nil) = (%q, %v, %v), want (ok, true, nil)", payload, found, err)
	}
}
