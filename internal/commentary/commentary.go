// Package commentary runs commentary turns: it turns one batch of game events
// for a game into a sanitised line of commentary, or decides there is nothing
// to say.
//
// A turn holds the game's session for its whole duration, so turns of one game
// are strictly ordered while different games run concurrently:
//
//	acquire session → identify players → rewrite names → situation or filler
//	  → opening or continuation prompt → exchange with retries
//	  → sanitise → store continuation → (optional) synthesise speech
//
// State is stored only after a successful exchange. Transient backend failures
// that outlast the retries, and turns cut off by the request timeout, end as
// "nothing to say" instead of an error.
package commentary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/MrWong99/broodcaster/internal/filler"
	"github.com/MrWong99/broodcaster/internal/names"
	"github.com/MrWong99/broodcaster/internal/observe"
	"github.com/MrWong99/broodcaster/internal/prompt"
	"github.com/MrWong99/broodcaster/internal/readability"
	"github.com/MrWong99/broodcaster/internal/resilience"
	"github.com/MrWong99/broodcaster/internal/sanitize"
	"github.com/MrWong99/broodcaster/internal/session"
	"github.com/MrWong99/broodcaster/pkg/conversation"
	"github.com/MrWong99/broodcaster/pkg/provider/tts"
)

// Turn sources recorded in metrics.
const (
	sourceSituation = "situation"
	sourceFiller    = "filler"
	sourceNone      = "none"
)

// Result is the outcome of one turn. Spoken is false when there is nothing to
// say; that is not an error.
type Result struct {
	Text   string
	Spoken bool

	// Filler is the id of the filler template used, if any.
	Filler string

	// ConversationID and MessageID identify the exchange that produced Text.
	ConversationID string
	MessageID      string

	// Audio is the synthesised WAV when a synthesiser is configured and
	// synthesis succeeded.
	Audio []byte
}

// Option configures a [Commentator].
type Option func(*Commentator)

// WithNormalizer replaces the name normalizer. The default scores names with
// the built-in dictionary.
func WithNormalizer(n *names.Normalizer) Option {
	return func(c *Commentator) { c.normalizer = n }
}

// WithFillers replaces the filler scheduler. The default uses
// [filler.DefaultTemplates] without a statistics source.
func WithFillers(s *filler.Scheduler) Option {
	return func(c *Commentator) { c.fillers = s }
}

// WithFormatter replaces the prompt formatter.
func WithFormatter(f *prompt.Formatter) Option {
	return func(c *Commentator) { c.prompts = f }
}

// WithSanitizer replaces the output sanitizer.
func WithSanitizer(s *sanitize.Sanitizer) Option {
	return func(c *Commentator) { c.sanitizer.Store(s) }
}

// WithRetrier replaces the retry policy around the backend.
func WithRetrier(r *resilience.Retrier) Option {
	return func(c *Commentator) { c.retrier = r }
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Commentator) { c.metrics = m }
}

// WithBackendName labels backend metrics and logs.
func WithBackendName(name string) Option {
	return func(c *Commentator) { c.backendName = name }
}

// WithMinEvents sets the smallest event batch spoken without a filler.
// Default 1, so only empty batches ask for a filler.
func WithMinEvents(n int) Option {
	return func(c *Commentator) {
		if n > 0 {
			c.minEvents = n
		}
	}
}

// WithRequestTimeout bounds a whole turn, including waiting for the session
// and all retries.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Commentator) { c.timeout = d }
}

// WithSynthesizer makes turns also synthesise their text with voice.
func WithSynthesizer(s tts.Synthesizer, voice tts.Voice) Option {
	return func(c *Commentator) {
		c.speech = s
		c.voice = voice
	}
}

// Commentator runs turns. It is safe for concurrent use.
type Commentator struct {
	backend     conversation.Backend
	backendName string
	sessions    *session.Store
	normalizer  *names.Normalizer
	fillers     *filler.Scheduler
	prompts     *prompt.Formatter
	retrier     *resilience.Retrier
	metrics     *observe.Metrics
	minEvents   int
	timeout     time.Duration
	speech      tts.Synthesizer
	voice       tts.Voice

	sanitizer atomic.Pointer[sanitize.Sanitizer]
}

// New creates a Commentator talking to backend and keeping game state in
// sessions.
func New(backend conversation.Backend, sessions *session.Store, opts ...Option) (*Commentator, error) {
	if backend == nil {
		return nil, errors.New("commentary: backend must not be nil")
	}
	if sessions == nil {
		return nil, errors.New("commentary: session store must not be nil")
	}
	c := &Commentator{
		backend:     backend,
		backendName: "default",
		sessions:    sessions,
		minEvents:   1,
	}
	for _, o := range opts {
		o(c)
	}
	if c.normalizer == nil {
		c.normalizer = names.New(readability.New())
	}
	if c.fillers == nil {
		c.fillers = filler.NewScheduler(filler.DefaultTemplates(nil))
	}
	if c.prompts == nil {
		c.prompts = prompt.New()
	}
	if c.retrier == nil {
		c.retrier = resilience.NewRetrier()
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	if c.sanitizer.Load() == nil {
		c.sanitizer.Store(sanitize.New())
	}
	return c, nil
}

// SetSanitizer swaps the sanitizer for subsequent turns. Per-game catchphrase
// counters are kept.
func (c *Commentator) SetSanitizer(s *sanitize.Sanitizer) {
	if s != nil {
		c.sanitizer.Store(s)
	}
}

// EndGame forgets the state of gameID: its players, name rules, conversation
// and catchphrase count. A later turn for the same id starts a new game. It
// reports whether the game was known.
func (c *Commentator) EndGame(gameID string) bool {
	return c.sessions.End(gameID)
}

// Comment runs one turn for req. It returns an error only for invalid input
// and for failures retrying cannot fix; every other miss is a Result with
// Spoken == false.
func (c *Commentator) Comment(ctx context.Context, req Request) (res Result, err error) {
	if req.GameID == "" {
		c.metrics.RecordTurn(ctx, observe.TurnInvalid, sourceNone)
		return Result{}, fmt.Errorf("%w: gameId is required", ErrInvalidInput)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span, log := observe.StartTurn(ctx, req.GameID, len(req.Situation))
	defer func() { observe.EndSpan(span, err) }()

	g, release, err := c.sessions.Acquire(ctx, req.GameID)
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("commentary: gave up waiting for the game session", "err", err)
			c.metrics.RecordTurn(ctx, observe.TurnSilent, sourceNone)
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("commentary: comment: %w", err)
	}
	defer release()

	c.identify(g, req.Situation)
	events := names.ApplyAll(g.Replacements, req.Situation)

	text, fillerID, ok := c.compose(ctx, g, events)
	source := sourceSituation
	if fillerID != "" {
		source = sourceFiller
	}
	if !ok {
		log.Debug("commentary: nothing to say",
			"events", len(events), "cooldowns", c.fillers.Snapshot())
		c.metrics.RecordTurn(ctx, observe.TurnSilent, sourceNone)
		return Result{Filler: fillerID}, nil
	}

	var cont *conversation.Continuation
	msg := text
	if g.Continuation == nil {
		msg = c.prompts.Opening(text)
	} else {
		cc := *g.Continuation
		cont = &cc
	}
	log.Debug("commentary: sending turn",
		"source", source, "filler", fillerID, "continues", cont != nil)

	reply, report := resilience.Retry(ctx, c.retrier, func(ctx context.Context) (*conversation.Reply, error) {
		start := time.Now()
		r, err := c.backend.Send(ctx, msg, cont)
		if err == nil {
			err = conversation.Validate(r)
		}
		c.metrics.RecordExchange(ctx, c.backendName, time.Since(start), err)
		return r, err
	})
	for range report.Attempts - 1 {
		c.metrics.RecordRetry(ctx, c.backendName)
	}
	span.SetAttributes(
		observe.AttrOutcome.String(report.Outcome.String()),
		observe.AttrAttempts.Int(report.Attempts),
	)

	switch report.Outcome {
	case resilience.OutcomeTerminal:
		c.metrics.RecordBackendError(ctx, c.backendName, "terminal")
		c.metrics.RecordTurn(ctx, observe.TurnFailed, source)
		return Result{}, fmt.Errorf("commentary: comment %s: %w", req.GameID, report.Err)
	case resilience.OutcomeExhausted:
		log.Warn("commentary: backend unavailable, nothing to say",
			"attempts", report.Attempts, "err", report.Err)
		c.metrics.RecordBackendError(ctx, c.backendName, "exhausted")
		c.metrics.RecordTurn(ctx, observe.TurnSilent, source)
		return Result{Filler: fillerID}, nil
	}
	if ctx.Err() != nil {
		log.Warn("commentary: reply arrived after the turn timed out, dropping it")
		c.metrics.RecordTurn(ctx, observe.TurnSilent, source)
		return Result{Filler: fillerID}, nil
	}

	san := c.sanitizer.Load().Sanitize(reply.Text, g.CatchphraseCount)
	g.CatchphraseCount = san.Count
	g.Continuation = reply.Continuation()
	if san.Suppressed {
		c.metrics.RecordSuppressed(ctx)
	}

	res = Result{
		Text:           san.Text,
		Spoken:         san.Text != "",
		Filler:         fillerID,
		ConversationID: reply.ConversationID,
		MessageID:      reply.MessageID,
	}
	if res.Spoken && c.speech != nil {
		res.Audio = c.synthesize(ctx, log, res.Text)
	}
	outcome := observe.TurnSpoken
	if !res.Spoken {
		outcome = observe.TurnSilent
	}
	c.metrics.RecordTurn(ctx, outcome, source)
	log.Info("commentary: turn done",
		"source", source,
		"conversation_id", res.ConversationID,
		"message_id", res.MessageID,
		"attempts", report.Attempts,
		"catchphrase_count", g.CatchphraseCount,
	)
	return res, nil
}

// identify records players announced for the first time and re-derives the
// name rules when one was found.
func (c *Commentator) identify(g *session.Game, events []string) {
	found := false
	if g.Bot1 == nil {
		if p, ok := names.ExtractPlayer(events, 1); ok {
			g.Bot1, found = p, true
		}
	}
	if g.Bot2 == nil {
		if p, ok := names.ExtractPlayer(events, 2); ok {
			g.Bot2, found = p, true
		}
	}
	if found {
		g.Replacements = c.normalizer.Rules(g.Bot1, g.Bot2)
	}
}

// compose returns the text of this turn and the filler id it came from. It
// returns false when there is nothing to say.
func (c *Commentator) compose(ctx context.Context, g *session.Game, events []string) (string, string, bool) {
	if len(events) >= c.minEvents {
		return c.prompts.Situation(events), "", true
	}

	fg := filler.Game{}
	if g.Bot1 != nil {
		fg.Bot1 = g.Bot1.Name
	}
	if g.Bot2 != nil {
		fg.Bot2 = g.Bot2.Name
	}
	fr, ok := c.fillers.Next(ctx, fg)
	if !ok {
		// A short batch still carries real events.
		if len(events) > 0 {
			return c.prompts.Situation(events), "", true
		}
		return "", fr.Template.ID, false
	}
	c.metrics.RecordFiller(ctx, fr.Template.ID)

	text := names.Apply(g.Replacements, fr.Text)
	if len(events) > 0 && fr.Template.AppendSituation {
		text += "\n" + c.prompts.Situation(events)
	}
	return text, fr.Template.ID, true
}

func (c *Commentator) synthesize(ctx context.Context, log *slog.Logger, text string) []byte {
	start := time.Now()
	wav, err := c.speech.Synthesize(ctx, text, c.voice)
	c.metrics.RecordSynthesis(ctx, time.Since(start), err)
	if err != nil {
		log.Warn("commentary: speech synthesis failed", "err", err)
		return nil
	}
	return wav
}
