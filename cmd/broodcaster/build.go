package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/MrWong99/broodcaster/internal/config"
	"github.com/MrWong99/broodcaster/internal/filler"
	"github.com/MrWong99/broodcaster/internal/names"
	"github.com/MrWong99/broodcaster/internal/observe"
	"github.com/MrWong99/broodcaster/internal/prompt"
	"github.com/MrWong99/broodcaster/internal/readability"
	"github.com/MrWong99/broodcaster/internal/resilience"
	"github.com/MrWong99/broodcaster/internal/sanitize"
	"github.com/MrWong99/broodcaster/internal/session"
	"github.com/MrWong99/broodcaster/pkg/conversation"
	"github.com/MrWong99/broodcaster/pkg/stats"
)

// newScorer builds the readability scorer, loading a custom word list when
// one is configured.
func newScorer(cfg config.ReadabilityConfig) (*readability.Scorer, error) {
	opts := []readability.Option{readability.WithThreshold(cfg.Threshold)}
	if cfg.DictionaryPath != "" {
		f, err := os.Open(cfg.DictionaryPath)
		if err != nil {
			return nil, fmt.Errorf("open dictionary: %w", err)
		}
		defer f.Close()
		words, err := readability.LoadDictionary(f)
		if err != nil {
			return nil, err
		}
		opts = append(opts, readability.WithDictionary(words))
	}
	return readability.New(opts...), nil
}

func newNormalizer(cfg config.ReadabilityConfig, scorer *readability.Scorer) *names.Normalizer {
	var opts []names.Option
	if cfg.PhoneticCollisions != nil {
		opts = append(opts, names.WithPhoneticCollisions(*cfg.PhoneticCollisions))
	}
	return names.New(scorer, opts...)
}

// newFillers builds the scheduler from the default templates, minus the
// disabled ones and with configured cooldown overrides.
func newFillers(cfg config.FillerConfig, src stats.Source) *filler.Scheduler {
	var ts []filler.Template
	for _, t := range filler.DefaultTemplates(src) {
		if slices.Contains(cfg.Disabled, t.ID) {
			continue
		}
		if cd, ok := cfg.Cooldowns[t.ID]; ok {
			t.Cooldown = cd
		}
		ts = append(ts, t)
	}
	return filler.NewScheduler(ts)
}

func newFormatter(cfg config.PromptConfig) *prompt.Formatter {
	var opts []prompt.Option
	if len(cfg.Casters) > 0 {
		opts = append(opts, prompt.WithCasters(cfg.Casters...))
	}
	if cfg.MaxWords > 0 {
		opts = append(opts, prompt.WithMaxWords(cfg.MaxWords))
	}
	return prompt.New(opts...)
}

func newSanitizer(cfg config.SanitizerConfig) *sanitize.Sanitizer {
	opts := []sanitize.Option{sanitize.WithSubstitutions(cfg.Substitutions...)}
	switch {
	case cfg.DisableCatchphrase:
		opts = append(opts, sanitize.WithCatchphrase("", 0))
	case cfg.Catchphrase != "" || cfg.CatchphraseLimit > 0:
		phrase, limit := cfg.Catchphrase, cfg.CatchphraseLimit
		if phrase == "" {
			phrase = sanitize.DefaultCatchphrase
		}
		if limit <= 0 {
			limit = sanitize.DefaultCatchphraseLimit
		}
		opts = append(opts, sanitize.WithCatchphrase(phrase, limit))
	}
	return sanitize.New(opts...)
}

// newBreaker returns nil when the breaker is disabled.
func newBreaker(cfg config.CircuitBreakerConfig, name string) *resilience.CircuitBreaker {
	if cfg.Disabled {
		return nil
	}
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:         name,
		MaxFailures:  cfg.MaxFailures,
		ResetTimeout: cfg.ResetTimeout,
		HalfOpenMax:  cfg.HalfOpenMax,
		IsFailure:    resilience.IsBackendFailure,
	})
}

// newRetrier wires the retry policy around backend. The backend's credentials
// are re-read between attempts when it supports it and the config asks for it.
func newRetrier(cfg config.ConversationConfig, backend conversation.Backend, cb *resilience.CircuitBreaker, name string) *resilience.Retrier {
	opts := []resilience.RetryOption{
		resilience.WithOnRetry(func(attempt int, err error) {
			slog.Debug("broodcaster: retrying exchange", "backend", name, "attempt", attempt, "err", err)
		}),
	}
	if cfg.BackoffBase > 0 || cfg.BackoffMax > 0 {
		opts = append(opts, resilience.WithBackoff(cfg.BackoffBase, cfg.BackoffMax))
	}
	if cfg.MaxRetries != nil {
		opts = append(opts, resilience.WithMaxRetries(*cfg.MaxRetries))
	}
	if cb != nil {
		opts = append(opts, resilience.WithBreaker(cb))
	}
	if rf, ok := backend.(conversation.Refresher); ok && cfg.RefreshBetweenAttempts {
		opts = append(opts, resilience.WithRefresher(rf))
	}
	return resilience.NewRetrier(opts...)
}

// newSessions builds the game store and keeps the active-session gauge in
// step with it.
func newSessions(cfg config.SessionsConfig, m *observe.Metrics) *session.Store {
	ctx := context.Background()
	return session.NewStore(
		session.WithTTL(cfg.TTL),
		session.WithMaxGames(cfg.MaxGames),
		session.WithOnCreate(func(id string) {
			m.SessionOpened(ctx)
			slog.Debug("broodcaster: game opened", "game_id", id)
		}),
		session.WithOnEvict(func(id string) {
			m.SessionClosed(ctx)
			slog.Debug("broodcaster: game closed", "game_id", id)
		}),
	)
}
