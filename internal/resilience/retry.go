package resilience

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/MrWong99/broodcaster/pkg/conversation"
)

// DefaultMaxRetries is the number of retries after the first attempt.
const DefaultMaxRetries = 2

const (
	defaultBaseDelay = 250 * time.Millisecond
	defaultMaxDelay  = 2 * time.Second
)

// Outcome classifies how a retried call ended.
type Outcome int

const (
	// OutcomeSuccess means an attempt returned without error.
	OutcomeSuccess Outcome = iota

	// OutcomeExhausted means every attempt failed with a retryable error, or
	// the context ended while retrying. Callers treat it as nothing to say.
	OutcomeExhausted

	// OutcomeTerminal means an attempt failed with an error that retrying
	// cannot fix. The error must be surfaced.
	OutcomeTerminal
)

// String returns the outcome name used in logs and metric attributes.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Report describes a finished [Retry].
type Report struct {
	Outcome Outcome

	// Attempts is the number of attempts made, including ones rejected by an
	// open breaker.
	Attempts int

	// Err is the last error. It is nil on success.
	Err error
}

// IsTerminal reports whether err is a failure that must not be retried.
func IsTerminal(err error) bool {
	return errors.Is(err, conversation.ErrInvalidRequest) ||
		errors.Is(err, conversation.ErrUnexpectedResponse)
}

// IsBackendFailure reports whether err should count against the backend's
// circuit breaker. Rejected requests are the caller's fault.
func IsBackendFailure(err error) bool {
	return err != nil && !errors.Is(err, conversation.ErrInvalidRequest)
}

// RetryOption configures a [Retrier].
type RetryOption func(*Retrier)

// WithMaxRetries sets how many times a failed attempt is repeated. Zero
// disables retries. Negative values are ignored.
func WithMaxRetries(n int) RetryOption {
	return func(r *Retrier) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithBackoff sets the delay before the first retry and the cap for later
// ones. The delay doubles per retry and is jittered into [d/2, d]. A zero base
// retries immediately.
func WithBackoff(base, limit time.Duration) RetryOption {
	return func(r *Retrier) {
		r.baseDelay = max(base, 0)
		r.maxDelay = max(limit, r.baseDelay)
	}
}

// WithRefresher renews the backend session before every retry.
func WithRefresher(rf conversation.Refresher) RetryOption {
	return func(r *Retrier) {
		r.refresher = rf
	}
}

// WithBreaker routes every attempt through cb. An open breaker fails the
// attempt with [ErrCircuitOpen], which is retryable.
func WithBreaker(cb *CircuitBreaker) RetryOption {
	return func(r *Retrier) {
		r.breaker = cb
	}
}

// WithOnRetry registers a hook called after each failed attempt that will be
// retried. attempt is 1-based.
func WithOnRetry(fn func(attempt int, err error)) RetryOption {
	return func(r *Retrier) {
		r.onRetry = fn
	}
}

// Retrier holds the retry policy. It is immutable after construction.
type Retrier struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	refresher  conversation.Refresher
	breaker    *CircuitBreaker
	onRetry    func(int, error)
}

// NewRetrier builds a Retrier with [DefaultMaxRetries] and a short exponential
// backoff unless overridden.
func NewRetrier(opts ...RetryOption) *Retrier {
	r := &Retrier{
		maxRetries: DefaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// MaxAttempts returns the total number of attempts a call may take.
func (r *Retrier) MaxAttempts() int {
	return r.maxRetries + 1
}

// Retry runs fn until it succeeds, fails terminally, runs out of attempts or
// ctx ends. The prompt is built once by the caller; only the exchange
// is repeated.
func Retry[T any](ctx context.Context, r *Retrier, fn func(context.Context) (T, error)) (T, Report) {
	var zero T
	var lastErr error
	for n := 1; n <= r.MaxAttempts(); n++ {
		v, err := attempt(ctx, r.breaker, fn)
		if err == nil {
			return v, Report{Outcome: OutcomeSuccess, Attempts: n}
		}
		lastErr = err
		if IsTerminal(err) {
			return zero, Report{Outcome: OutcomeTerminal, Attempts: n, Err: err}
		}
		if ctx.Err() != nil || n == r.MaxAttempts() {
			return zero, Report{Outcome: OutcomeExhausted, Attempts: n, Err: err}
		}

		slog.Warn("resilience: attempt failed, retrying",
			"attempt", n, "max_attempts", r.MaxAttempts(), "err", err)
		if r.onRetry != nil {
			r.onRetry(n, err)
		}
		if err := sleep(ctx, r.delay(n)); err != nil {
			return zero, Report{Outcome: OutcomeExhausted, Attempts: n, Err: lastErr}
		}
		if r.refresher != nil {
			if err := r.refresher.Refresh(ctx); err != nil {
				slog.Warn("resilience: refresh failed", "err", err)
			}
		}
	}
	return zero, Report{Outcome: OutcomeExhausted, Attempts: r.MaxAttempts(), Err: lastErr}
}

// attempt runs fn once, through cb when one is set.
func attempt[T any](ctx context.Context, cb *CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	if cb == nil {
		return fn(ctx)
	}
	var v T
	err := cb.Execute(func() error {
		var err error
		v, err = fn(ctx)
		return err
	})
	return v, err
}

// delay returns the jittered backoff before retry number n (1-based).
func (r *Retrier) delay(n int) time.Duration {
	if r.baseDelay <= 0 {
		return 0
	}
	d := r.baseDelay << (n - 1)
	if d <= 0 || d > r.maxDelay {
		d = r.maxDelay
	}
	half := d / 2
	return half + rand.N(d-half+1)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
