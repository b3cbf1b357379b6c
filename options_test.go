package pollwait

import (
	"errors"
	"testing"
	"time"
)

func TestOptions_NilValuesRejected(t *testing.T) {
	tests := []struct {
		name string
		opt  Option[string]
	}{
		{"nil probe", WithProbe[string](nil)},
		{"nil callback", WithCallback[string](nil)},
		{"nil handler", WithHandler[string](nil)},
		{"nil exit signal", WithExitSignal[string](nil)},
		{"nil dispatcher", WithDispatcher[string](nil)},
		{"nil logger", WithLogger[string](nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithProbe(neverFound), tt.opt)
			if err == nil {
				t.Fatal("New() expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

// TestOptions_NilFaultObserverIgnored verifies the nil-observer no-op,
// matching the nil-callback tolerance of the other observer-style options.
func TestOptions_NilFaultObserverIgnored(t *testing.T) {
	p, err := New(WithProbe(neverFound), WithFaultObserver[string](nil))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.observer != nil {
		t.Error("observer set from nil WithFaultObserver, want nil")
	}
}

func TestOptions_Defaults(t *testing.T) {
	p, err := New(WithProbe(neverFound))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if p.maxDelay != defaultMaxPollDelay {
		t.Errorf("maxDelay = %v, want default %v", p.maxDelay, defaultMaxPollDelay)
	}
	if p.increment != defaultRetryIncrement {
		t.Errorf("increment = %v, want default %v", p.increment, defaultRetryIncrement)
	}
	if p.logger == nil {
		t.Error("logger = nil, want slog.Default()")
	}
	if _, ok := p.dispatcher.(directDispatcher); !ok {
		t.Errorf("dispatcher = %T, want directDispatcher", p.dispatcher)
	}
	if p.exit != nil {
		t.Errorf("exit = %v, want nil (no shared signal)", p.exit)
	}
}

func TestOptions_ValuesApplied(t *testing.T) {
	exit := NewExitSignal()
	dispatcher := DispatcherFunc(func(fn func()) { fn() })

	p, err := New(
		WithProbe(neverFound),
		WithMaxPollDelay[string](2*time.Second),
		WithInitialRetryIncrement[string](5*time.Millisecond),
		WithExitSignal[string](exit),
		WithDispatcher[string](dispatcher),
		WithLogger[string](testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if p.maxDelay != 2*time.Second {
		t.Errorf("maxDelay = %v, want 2s", p.maxDelay)
	}
	if p.increment != 5*time.Millisecond {
		t.Errorf("increment = %v, want 5ms", p.increment)
	}
	if p.exit != exit {
		t.Error("exit signal not applied")
	}
}

// TestOptions_HandlerEnablesNotification verifies a full Handler makes the
// instance notifiable without a separate callback.
func TestOptions_HandlerEnablesNotification(t *testing.T) {
	h := HandlerFuncs[string]{ProbeFunc: neverFound}

	p, err := New(WithHandler[string](h), WithLogger[string](testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !p.notifiable {
		t.Error("notifiable = false with WithHandler, want true")
	}
}
