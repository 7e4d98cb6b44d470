package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry of a [FallbackGroup] failed or was
// skipped by its open breaker.
var ErrAllFailed = errors.New("resilience: all backends failed")

type fallbackEntry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup holds a primary backend and ordered fallbacks of the same
// type, each behind its own [CircuitBreaker].
type FallbackGroup[T any] struct {
	entries []fallbackEntry[T]
	breaker CircuitBreakerConfig
}

// NewFallbackGroup creates a group with primary as its first entry. Every
// entry gets a breaker built from cfg with the entry's name.
func NewFallbackGroup[T any](primaryName string, primary T, cfg CircuitBreakerConfig) *FallbackGroup[T] {
	g := &FallbackGroup[T]{breaker: cfg}
	g.Add(primaryName, primary)
	return g
}

// Add appends a fallback. Entries are tried in the order they were added.
// Add must not be called concurrently with [Execute].
func (g *FallbackGroup[T]) Add(name string, v T) {
	cfg := g.breaker
	cfg.Name = name
	g.entries = append(g.entries, fallbackEntry[T]{name: name, value: v, breaker: NewCircuitBreaker(cfg)})
}

// Len returns the number of entries.
func (g *FallbackGroup[T]) Len() int {
	return len(g.entries)
}

// Execute calls fn on each entry in order until one succeeds. It is a
// function rather than a method because methods cannot declare type
// parameters.
func Execute[T, R any](g *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var zero R
	var errs []error
	for i := range g.entries {
		e := &g.entries[i]
		var result R
		err := e.breaker.Execute(func() error {
			var err error
			result, err = fn(e.value)
			return err
		})
		if err == nil {
			return result, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("resilience: skipping backend, circuit open", "backend", e.name)
			continue
		}
		if i < len(g.entries)-1 {
			slog.Warn("resilience: backend failed, trying next", "backend", e.name, "err", err)
		}
	}
	return zero, fmt.Errorf("%w: %w", ErrAllFailed, errors.Join(errs...))
}
