// Package session keeps per-game commentary state.
//
// A [Game] holds what one broadcast needs between turns: the two players,
// the name replacements derived from them, the continuation of the
// conversation and the catchphrase counter. The [Store] creates a game on
// first access and hands it out under an exclusive per-game lock, so turns of
// the same game run one at a time while different games proceed
// independently.
//
// Games expire after a period without turns, or when the store is full and the
// game is the least recently used. A game whose lock is held or awaited is
// never lost this way: the next [Store.Acquire] revives it with its state.
// [Store.End] drops a game explicitly.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/MrWong99/broodcaster/internal/names"
	"github.com/MrWong99/broodcaster/pkg/conversation"
)

const (
	// DefaultTTL is how long an idle game is kept.
	DefaultTTL = 2 * time.Hour

	// DefaultMaxGames bounds the number of concurrently tracked games.
	DefaultMaxGames = 1024
)

// Game is the state of one broadcast.
type Game struct {
	ID string

	// Bot1 and Bot2 are nil until the player's announcement is seen.
	Bot1 *names.Player
	Bot2 *names.Player

	// Replacements is recomputed whenever a player is first identified.
	Replacements []names.Rule

	// Continuation is nil until the first successful exchange.
	Continuation *conversation.Continuation

	// CatchphraseCount counts replies that contained the catchphrase.
	CatchphraseCount int
}

// Clone returns a deep copy of g.
func (g *Game) Clone() Game {
	c := *g
	c.Replacements = slices.Clone(g.Replacements)
	if g.Bot1 != nil {
		p := *g.Bot1
		c.Bot1 = &p
	}
	if g.Bot2 != nil {
		p := *g.Bot2
		c.Bot2 = &p
	}
	if g.Continuation != nil {
		cont := *g.Continuation
		c.Continuation = &cont
	}
	return c
}

// entry guards one game. lock is a one-slot semaphore so waiting for it can be
// abandoned with a context. users counts holders and waiters; it is guarded by
// Store.mu.
type entry struct {
	lock  chan struct{}
	users int
	game  Game
}

// Option configures a [Store].
type Option func(*Store)

// WithTTL sets how long a game without turns is kept.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithMaxGames bounds the number of tracked games.
func WithMaxGames(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxGames = n
		}
	}
}

// WithOnEvict registers a callback run when a game expires, is pushed out or
// ended. It must not call back into the store.
func WithOnEvict(fn func(gameID string)) Option {
	return func(s *Store) {
		s.onEvict = fn
	}
}

// WithOnCreate registers a callback run after a game is created by
// [Store.Acquire].
func WithOnCreate(fn func(gameID string)) Option {
	return func(s *Store) {
		s.onCreate = fn
	}
}

// Store maps game ids to state. It is safe for concurrent use.
type Store struct {
	ttl      time.Duration
	maxGames int
	onEvict  func(string)
	onCreate func(string)

	mu    sync.Mutex
	games *lru.LRU[string, *entry]
	// inUse holds every entry with users > 0, whether or not the LRU still
	// tracks it.
	inUse map[string]*entry
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{ttl: DefaultTTL, maxGames: DefaultMaxGames, inUse: make(map[string]*entry)}
	for _, o := range opts {
		o(s)
	}
	var cb lru.EvictCallback[string, *entry]
	if s.onEvict != nil {
		cb = func(id string, _ *entry) { s.onEvict(id) }
	}
	s.games = lru.NewLRU[string, *entry](s.maxGames, cb, s.ttl)
	return s
}

// Acquire returns the game for id, creating it if needed, and holds its lock
// until release is called. The caller may modify the game until then. Waiting
// for the lock ends with ctx.
func (s *Store) Acquire(ctx context.Context, id string) (g *Game, release func(), err error) {
	if id == "" {
		return nil, nil, errors.New("session: acquire: empty game id")
	}

	s.mu.Lock()
	e, ok := s.games.Get(id)
	if !ok {
		// Evicted while a turn still used it.
		e = s.inUse[id]
	}
	if e == nil {
		e = &entry{lock: make(chan struct{}, 1), game: Game{ID: id}}
	}
	// Re-adding renews the expiry.
	s.games.Add(id, e)
	e.users++
	s.inUse[id] = e
	s.mu.Unlock()
	if !ok && s.onCreate != nil {
		s.onCreate(id)
	}

	select {
	case e.lock <- struct{}{}:
	case <-ctx.Done():
		s.leave(id, e)
		return nil, nil, ctx.Err()
	}
	var once sync.Once
	return &e.game, func() {
		once.Do(func() {
			<-e.lock
			s.leave(id, e)
		})
	}, nil
}

func (s *Store) leave(id string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.users--
	if e.users == 0 && s.inUse[id] == e {
		delete(s.inUse, id)
	}
}

// Snapshot waits for the game's lock and returns a copy of its state. It
// neither creates the game nor renews its expiry.
func (s *Store) Snapshot(ctx context.Context, id string) (Game, bool, error) {
	s.mu.Lock()
	e, ok := s.games.Peek(id)
	if !ok {
		e, ok = s.inUse[id]
	}
	s.mu.Unlock()
	if !ok {
		return Game{}, false, nil
	}
	select {
	case e.lock <- struct{}{}:
	case <-ctx.Done():
		return Game{}, false, ctx.Err()
	}
	defer func() { <-e.lock }()
	return e.game.Clone(), true, nil
}

// End forgets the game for id. A turn holding it finishes against the
// detached state.
func (s *Store) End(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inUse, id)
	return s.games.Remove(id)
}

// Len returns the number of tracked games.
func (s *Store) Len() int {
	return s.games.Len()
}
