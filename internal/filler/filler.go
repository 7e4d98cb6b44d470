// Package filler picks idle-time commentary prompts under per-template
// cooldowns.
//
// When a turn carries no game events the commentator asks the [Scheduler] for a
// filler. Selection is uniform among templates whose cooldown has elapsed, and
// the chosen template's cooldown is committed in the same critical section as
// the eligibility check, so two concurrent turns can never both win the same
// template. Producing the text happens outside the lock because it may call
// remote services.
package filler

import (
	"context"
	"maps"
	"math/rand/v2"
	"sync"
	"time"
)

// Game carries the per-session facts a template may need to produce its text.
// Either name may be empty when the player has not been introduced yet.
type Game struct {
	Bot1 string
	Bot2 string
}

// ProduceFunc returns the filler text, or false when the template has nothing
// to contribute this turn.
type ProduceFunc func(ctx context.Context, g Game) (string, bool)

// Template is one kind of filler.
type Template struct {
	// ID uniquely identifies the template in the cooldown table.
	ID string

	// Cooldown is how long the template stays ineligible after selection.
	Cooldown time.Duration

	// AppendSituation allows the real situation text to follow the filler when
	// a turn has some events but fewer than the configured minimum.
	AppendSituation bool

	// Produce builds the prompt text.
	Produce ProduceFunc
}

// Static returns a ProduceFunc that always yields text.
func Static(text string) ProduceFunc {
	return func(context.Context, Game) (string, bool) {
		return text, true
	}
}

// Rand is the random source used for selection.
type Rand interface {
	// IntN returns a uniform value in [0, n).
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Option configures a [Scheduler].
type Option func(*Scheduler)

// WithRand replaces the random source. Tests use it to make selection
// deterministic.
func WithRand(r Rand) Option {
	return func(s *Scheduler) {
		s.rand = r
	}
}

// WithClock replaces time.Now for [Scheduler.Next].
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// Scheduler selects fillers. The cooldown table is process-wide state shared by
// all sessions. It is safe for concurrent use.
type Scheduler struct {
	templates []Template
	rand      Rand
	now       func() time.Time

	mu            sync.Mutex
	cooldownUntil map[string]time.Time
}

// NewScheduler returns a Scheduler over templates. The slice order is the
// order random indices refer to.
func NewScheduler(templates []Template, opts ...Option) *Scheduler {
	s := &Scheduler{
		templates:     templates,
		rand:          globalRand{},
		now:           time.Now,
		cooldownUntil: make(map[string]time.Time, len(templates)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Templates returns the configured templates.
func (s *Scheduler) Templates() []Template {
	return s.templates
}

// Pick selects a template whose cooldown has elapsed at now and puts it on
// cooldown until now+Cooldown. A cooldown never moves earlier. The second
// return value is false when every template is cooling down.
func (s *Scheduler) Pick(now time.Time) (Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eligible := make([]int, 0, len(s.templates))
	for i, t := range s.templates {
		until, cooling := s.cooldownUntil[t.ID]
		if !cooling || !now.Before(until) {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return Template{}, false
	}

	t := s.templates[eligible[s.rand.IntN(len(eligible))]]
	next := now.Add(t.Cooldown)
	if cur, ok := s.cooldownUntil[t.ID]; !ok || next.After(cur) {
		s.cooldownUntil[t.ID] = next
	}
	return t, true
}

// Result is a produced filler.
type Result struct {
	Template Template
	Text     string
}

// Next picks a template at the scheduler's clock and produces its text. It
// returns false when nothing is eligible or the chosen template has nothing to
// say; another template is not tried in that case.
func (s *Scheduler) Next(ctx context.Context, g Game) (Result, bool) {
	t, ok := s.Pick(s.now())
	if !ok {
		return Result{}, false
	}
	if t.Produce == nil {
		return Result{Template: t}, false
	}
	text, ok := t.Produce(ctx, g)
	if !ok || text == "" {
		return Result{Template: t}, false
	}
	return Result{Template: t, Text: text}, true
}

// Snapshot returns a copy of the cooldown table.
func (s *Scheduler) Snapshot() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.cooldownUntil)
}
