// Package stats defines the Source interface for tournament win/loss records
// and helpers shared by its implementations.
//
// A Source is optional data: callers treat any error, including [ErrNotFound],
// as "no data" rather than a failure.
package stats

import (
	"context"
	"errors"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when the source has no record for a bot.
var ErrNotFound = errors.New("stats: bot not found")

// Record is a bot's tournament record.
type Record struct {
	Bot    string
	Wins   int
	Losses int
}

// Games returns the number of decided games.
func (r Record) Games() int {
	return r.Wins + r.Losses
}

// WinRate returns the rounded win percentage, or 0 when no games were played.
func (r Record) WinRate() int {
	g := r.Games()
	if g == 0 {
		return 0
	}
	return int(math.Round(float64(r.Wins) / float64(g) * 100))
}

// Source looks up tournament records.
//
// Implementations must be safe for concurrent use.
type Source interface {
	// Lookup returns the record for bot. It returns [ErrNotFound] when the bot
	// is unknown.
	Lookup(ctx context.Context, bot string) (Record, error)
}

// LookupPair fetches both bots concurrently. It fails if either lookup fails.
func LookupPair(ctx context.Context, src Source, bot1, bot2 string) (Record, Record, error) {
	var r1, r2 Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		r1, err = src.Lookup(gctx, bot1)
		return err
	})
	g.Go(func() error {
		var err error
		r2, err = src.Lookup(gctx, bot2)
		return err
	})
	if err := g.Wait(); err != nil {
		return Record{}, Record{}, err
	}
	return r1, r2, nil
}

// Compile-time interface assertion.
var _ Source = (*Cached)(nil)

// Cached wraps a Source with a size-bounded TTL cache. Only successful lookups
// are cached.
type Cached struct {
	src   Source
	cache *lru.LRU[string, Record]
}

// NewCached caches up to size records from src for ttl each.
func NewCached(src Source, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = 64
	}
	return &Cached{
		src:   src,
		cache: lru.NewLRU[string, Record](size, nil, ttl),
	}
}

// Lookup implements [Source].
func (c *Cached) Lookup(ctx context.Context, bot string) (Record, error) {
	if r, ok := c.cache.Get(bot); ok {
		return r, nil
	}
	r, err := c.src.Lookup(ctx, bot)
	if err != nil {
		return Record{}, err
	}
	c.cache.Add(bot, r)
	return r, nil
}
