package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MrWong99/broodcaster/pkg/conversation"
	convmock "github.com/MrWong99/broodcaster/pkg/conversation/mock"
)

// script returns fn results in order, repeating the last one.
func script(errs ...error) (func(context.Context) (string, error), *int) {
	calls := 0
	return func(context.Context) (string, error) {
		i := min(calls, len(errs)-1)
		calls++
		if errs[i] != nil {
			return "", errs[i]
		}
		return "ok", nil
	}, &calls
}

func TestRetry(t *testing.T) {
	t.Parallel()
	errNet := errors.New("connection reset")
	invalid := fmt.Errorf("backend: %w: bad id", conversation.ErrInvalidRequest)
	unexpected := fmt.Errorf("backend: %w", conversation.ErrUnexpectedResponse)

	tests := []struct {
		name         string
		maxRetries   int
		errs         []error
		wantOutcome  Outcome
		wantAttempts int
		wantErr      error
	}{
		{name: "first try", maxRetries: 2, errs: []error{nil}, wantOutcome: OutcomeSuccess, wantAttempts: 1},
		{name: "recovers on retry", maxRetries: 2, errs: []error{errNet, nil}, wantOutcome: OutcomeSuccess, wantAttempts: 2},
		{name: "exhausted", maxRetries: 2, errs: []error{errNet}, wantOutcome: OutcomeExhausted, wantAttempts: 3, wantErr: errNet},
		{name: "no retries", maxRetries: 0, errs: []error{errNet}, wantOutcome: OutcomeExhausted, wantAttempts: 1, wantErr: errNet},
		{name: "invalid request is terminal", maxRetries: 2, errs: []error{invalid}, wantOutcome: OutcomeTerminal, wantAttempts: 1, wantErr: conversation.ErrInvalidRequest},
		{name: "unexpected response is terminal", maxRetries: 2, errs: []error{errNet, unexpected}, wantOutcome: OutcomeTerminal, wantAttempts: 2, wantErr: conversation.ErrUnexpectedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fn, calls := script(tt.errs...)
			r := NewRetrier(WithMaxRetries(tt.maxRetries), WithBackoff(0, 0))

			v, rep := Retry(context.Background(), r, fn)
			if rep.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %v, want %v", rep.Outcome, tt.wantOutcome)
			}
			if rep.Attempts != tt.wantAttempts || *calls != tt.wantAttempts {
				t.Errorf("Attempts = %d, calls = %d, want %d", rep.Attempts, *calls, tt.wantAttempts)
			}
			if tt.wantErr == nil {
				if rep.Err != nil || v != "ok" {
					t.Errorf("got (%q, %v), want (ok, nil)", v, rep.Err)
				}
			} else if !errors.Is(rep.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", rep.Err, tt.wantErr)
			}
		})
	}
}

func TestRetry_RefreshesBetweenAttempts(t *testing.T) {
	t.Parallel()
	backend := &convmock.Backend{}
	fn, _ := script(errors.New("401"), errors.New("401"), nil)
	r := NewRetrier(WithBackoff(0, 0), WithRefresher(backend))

	_, rep := Retry(context.Background(), r, fn)
	if rep.Outcome != OutcomeSuccess {
		t.Fatalf("Outcome = %v", rep.Outcome)
	}
	if got := backend.Refreshes(); got != 2 {
		t.Errorf("refreshes = %d, want 2", got)
	}
}

func TestRetry_RefreshFailureKeepsRetrying(t *testing.T) {
	t.Parallel()
	backend := &convmock.Backend{RefreshErr: errors.New("key file missing")}
	fn, calls := script(errors.New("401"), nil)
	r := NewRetrier(WithBackoff(0, 0), WithRefresher(backend))

	if _, rep := Retry(context.Background(), r, fn); rep.Outcome != OutcomeSuccess {
		t.Fatalf("Outcome = %v", rep.Outcome)
	}
	if *calls != 2 {
		t.Errorf("calls = %d, want 2", *calls)
	}
}

func TestRetry_NoRefreshOnTerminal(t *testing.T) {
	t.Parallel()
	backend := &convmock.Backend{}
	fn, _ := script(conversation.ErrInvalidRequest)
	r := NewRetrier(WithBackoff(0, 0), WithRefresher(backend))

	_, _ = Retry(context.Background(), r, fn)
	if backend.Refreshes() != 0 {
		t.Errorf("refreshes = %d, want 0", backend.Refreshes())
	}
}

func TestRetry_OnRetryHook(t *testing.T) {
	t.Parallel()
	var attempts []int
	fn, _ := script(errors.New("503"))
	r := NewRetrier(WithMaxRetries(2), WithBackoff(0, 0), WithOnRetry(func(n int, _ error) {
		attempts = append(attempts, n)
	}))

	_, _ = Retry(context.Background(), r, fn)
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("hook attempts = %v, want [1 2]", attempts)
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	fn, calls := script(errors.New("timeout"))
	r := NewRetrier(WithBackoff(time.Hour, time.Hour))

	start := time.Now()
	_, rep := Retry(ctx, r, fn)
	if rep.Outcome != OutcomeExhausted {
		t.Errorf("Outcome = %v, want exhausted", rep.Outcome)
	}
	if *calls != 1 {
		t.Errorf("calls = %d, want 1", *calls)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("backoff ignored context")
	}
}

func TestRetry_OpenBreakerCountsAsTransient(t *testing.T) {
	t.Parallel()
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", MaxFailures: 1, ResetTimeout: time.Hour})
	_ = cb.Execute(fail)

	fn, calls := script(nil)
	r := NewRetrier(WithBackoff(0, 0), WithBreaker(cb))
	_, rep := Retry(context.Background(), r, fn)

	if rep.Outcome != OutcomeExhausted || !errors.Is(rep.Err, ErrCircuitOpen) {
		t.Errorf("report = %+v, want exhausted by open breaker", rep)
	}
	if *calls != 0 {
		t.Errorf("calls = %d, an open breaker must not reach the backend", *calls)
	}
}

func TestRetry_InvalidRequestDoesNotTripBreaker(t *testing.T) {
	t.Parallel()
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", MaxFailures: 1, IsFailure: IsBackendFailure})
	fn, _ := script(conversation.ErrInvalidRequest)
	r := NewRetrier(WithBackoff(0, 0), WithBreaker(cb))

	_, _ = Retry(context.Background(), r, fn)
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestRetrier_Delay(t *testing.T) {
	t.Parallel()
	r := NewRetrier(WithBackoff(100*time.Millisecond, 300*time.Millisecond))
	tests := []struct {
		n        int
		min, max time.Duration
	}{
		{1, 50 * time.Millisecond, 100 * time.Millisecond},
		{2, 100 * time.Millisecond, 200 * time.Millisecond},
		{3, 150 * time.Millisecond, 300 * time.Millisecond},
		{10, 150 * time.Millisecond, 300 * time.Millisecond},
	}
	for _, tt := range tests {
		for range 50 {
			if d := r.delay(tt.n); d < tt.min || d > tt.max {
				t.Fatalf("delay(%d) = %v, want within [%v, %v]", tt.n, d, tt.min, tt.max)
			}
		}
	}
}

func TestOutcome_String(t *testing.T) {
	t.Parallel()
	for o, want := range map[Outcome]string{
		OutcomeSuccess:   "success",
		OutcomeExhausted: "exhausted",
		OutcomeTerminal:  "terminal",
		Outcome(7):       "unknown",
	} {
		if got := o.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", o, got, want)
		}
	}
}

func TestNewRetrier_Defaults(t *testing.T) {
	t.Parallel()
	r := NewRetrier(WithMaxRetries(-1))
	if r.MaxAttempts() != DefaultMaxRetries+1 {
		t.Errorf("MaxAttempts = %d, want %d", r.MaxAttempts(), DefaultMaxRetries+1)
	}
}
