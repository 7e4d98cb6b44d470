// Package mock provides a test double for the stats.Source interface.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrWong99/broodcaster/pkg/stats"
)

// Compile-time interface assertion.
var _ stats.Source = (*Source)(nil)

// Source is a mock implementation of stats.Source backed by a fixed table.
type Source struct {
	mu sync.Mutex

	// Records maps bot names to their record. Missing bots yield
	// stats.ErrNotFound.
	Records map[string]stats.Record

	// Err, if non-nil, is returned by every Lookup.
	Err error

	// Calls records the bot name of every Lookup in order.
	Calls []string
}

// Lookup implements stats.Source.
func (s *Source) Lookup(_ context.Context, bot string) (stats.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, bot)
	if s.Err != nil {
		return stats.Record{}, s.Err
	}
	r, ok := s.Records[bot]
	if !ok {
		return stats.Record{}, fmt.Errorf("mock: %q: %w", bot, stats.ErrNotFound)
	}
	return r, nil
}

// CallCount returns the number of Lookup calls so far.
func (s *Source) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
