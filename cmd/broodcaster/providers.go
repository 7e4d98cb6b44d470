package main

import (
	"errors"
	"fmt"
	"log/slog"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/broodcaster/internal/commentary"
	"github.com/MrWong99/broodcaster/internal/config"
	"github.com/MrWong99/broodcaster/internal/observe"
	"github.com/MrWong99/broodcaster/internal/resilience"
	"github.com/MrWong99/broodcaster/pkg/conversation"
	"github.com/MrWong99/broodcaster/pkg/conversation/chat"
	"github.com/MrWong99/broodcaster/pkg/conversation/responses"
	"github.com/MrWong99/broodcaster/pkg/provider/llm"
	"github.com/MrWong99/broodcaster/pkg/provider/llm/anyllm"
	oaillm "github.com/MrWong99/broodcaster/pkg/provider/llm/openai"
	"github.com/MrWong99/broodcaster/pkg/provider/tts"
	"github.com/MrWong99/broodcaster/pkg/provider/tts/coqui"
	"github.com/MrWong99/broodcaster/pkg/provider/tts/elevenlabs"
	"github.com/MrWong99/broodcaster/pkg/stats"
	"github.com/MrWong99/broodcaster/pkg/stats/sscait"
)

// defaultAPIKeyEnv is read by the responses backend when no key is configured.
const defaultAPIKeyEnv = "OPENAI_API_KEY"

// registerBuiltinProviders wires all built-in provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	for _, name := range anyllm.Backends {
		reg.RegisterLLM(name, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			// ollama is a local server addressed by BaseURL only.
			if entry.APIKey != "" && name != "ollama" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(name, entry.Model, opts...)
		})
	}

	// openai-compatible talks to any server implementing the Chat Completions
	// API through the official SDK.
	reg.RegisterLLM("openai-compatible", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []oaillm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaillm.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, oaillm.WithOrganization(org))
		}
		return oaillm.New(entry.APIKey, entry.Model, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────
	reg.RegisterTTS("coqui", func(entry config.TTSEntry) (tts.Synthesizer, error) {
		var opts []coqui.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, coqui.WithLanguage(lang))
		}
		if mode := optString(entry.Options, "api_mode"); mode != "" {
			opts = append(opts, coqui.WithAPIMode(coqui.APIMode(mode)))
		}
		return coqui.New(entry.BaseURL, opts...)
	})

	reg.RegisterTTS("elevenlabs", func(entry config.TTSEntry) (tts.Synthesizer, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		if outputFmt := optString(entry.Options, "output_format"); outputFmt != "" {
			opts = append(opts, elevenlabs.WithOutputFormat(outputFmt))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	// ── Stats ─────────────────────────────────────────────────────────────────
	reg.RegisterStats("sscait", func(cfg config.StatsConfig) (stats.Source, error) {
		var opts []sscait.Option
		if cfg.BaseURL != "" {
			opts = append(opts, sscait.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, sscait.WithTimeout(cfg.Timeout))
		}
		if cfg.RateLimit > 0 {
			opts = append(opts, sscait.WithRateLimit(cfg.RateLimit, cfg.Burst))
		}
		return sscait.New(opts...), nil
	})

	for _, kind := range []string{"llm", "tts", "stats"} {
		for _, name := range reg.Names(kind) {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// buildBackend creates the conversation backend named by cfg.Backend.
func buildBackend(cfg config.ConversationConfig, reg *config.Registry) (conversation.Backend, error) {
	switch cfg.Backend {
	case config.BackendChat:
		p, err := reg.CreateLLM(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("create llm provider %q: %w", cfg.LLM.Name, err)
		}
		return chat.New(p,
			chat.WithMaxTurns(cfg.HistoryTurns),
			chat.WithSampling(cfg.Temperature, cfg.MaxOutputTokens),
			chat.WithSystemPrompt(cfg.Instructions),
		)
	default:
		opts := []responses.Option{
			responses.WithTemperature(cfg.Temperature),
			responses.WithMaxOutputTokens(cfg.MaxOutputTokens),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, responses.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Instructions != "" {
			opts = append(opts, responses.WithInstructions(cfg.Instructions))
		}
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return responses.New(model, keySource(cfg), opts...)
	}
}

func keySource(cfg config.ConversationConfig) responses.KeySource {
	switch {
	case cfg.APIKey != "":
		return responses.StaticKey(cfg.APIKey)
	case cfg.APIKeyFile != "":
		return responses.FileKey(cfg.APIKeyFile)
	case cfg.APIKeyEnv != "":
		return responses.EnvKey(cfg.APIKeyEnv)
	default:
		return responses.EnvKey(defaultAPIKeyEnv)
	}
}

// buildSynthesizer creates the configured speech synthesisers. The first entry
// is primary; later ones take over while it is failing. It returns a nil
// synthesizer when speech is not configured.
func buildSynthesizer(cfg config.TTSConfig, reg *config.Registry) (tts.Synthesizer, tts.Voice, error) {
	var fb *resilience.SynthesizerFallback
	var voice tts.Voice
	for _, entry := range cfg.Providers {
		s, err := reg.CreateTTS(entry)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Warn("provider not registered, skipping", "kind", "tts", "name", entry.Name)
			continue
		}
		if err != nil {
			return nil, tts.Voice{}, fmt.Errorf("create tts provider %q: %w", entry.Name, err)
		}
		primary := fb == nil
		if primary {
			fb = resilience.NewSynthesizerFallback(entry.Name, s, resilience.CircuitBreakerConfig{})
			voice = tts.Voice{ID: entry.Voice, Provider: entry.Name}
		} else {
			fb.Add(entry.Name, s)
		}
		slog.Info("provider created", "kind", "tts", "name", entry.Name, "primary", primary)
	}
	if fb == nil {
		return nil, tts.Voice{}, nil
	}
	return fb, voice, nil
}

// buildStats creates the cached, metered statistics source. It returns nil
// when no provider is configured.
func buildStats(cfg config.StatsConfig, reg *config.Registry, m *observe.Metrics) (stats.Source, error) {
	if cfg.Provider == "" {
		return nil, nil
	}
	src, err := reg.CreateStats(cfg)
	if err != nil {
		return nil, fmt.Errorf("create stats provider %q: %w", cfg.Provider, err)
	}
	slog.Info("provider created", "kind", "stats", "name", cfg.Provider)
	return stats.NewCached(commentary.ObserveStats(src, m), cfg.CacheSize, cfg.CacheTTL), nil
}

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}
