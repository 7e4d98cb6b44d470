package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/broodcaster/internal/filler"
)

// KnownProviders lists built-in provider names per kind. [Validate] warns
// about names outside these lists; a custom factory may still be registered.
var KnownProviders = map[string][]string{
	"llm":   {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile", "openai-compatible"},
	"tts":   {"elevenlabs", "coqui"},
	"stats": {"sscait"},
}

// Load reads and validates the YAML configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates it. Unknown keys
// are rejected. An empty document yields the zero Config.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cfg and returns every failure found, joined.
func Validate(cfg *Config) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	nonNegative := func(field string, v int64) {
		if v < 0 {
			add("%s must not be negative", field)
		}
	}

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		add("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel)
	}

	// Conversation
	c := cfg.Conversation
	if c.Backend != "" && !c.Backend.IsValid() {
		add("conversation.backend %q is invalid; valid values: responses, chat", c.Backend)
	}
	switch c.Backend {
	case BackendChat:
		if c.LLM.Name == "" {
			add("conversation.llm.name is required for the chat backend")
		}
		if c.LLM.Model == "" {
			add("conversation.llm.model is required for the chat backend")
		}
		warnUnknownProvider("llm", c.LLM.Name)
	case BackendResponses, "":
		if c.LLM.Name != "" {
			slog.Warn("config: conversation.llm is ignored by the responses backend", "llm", c.LLM.Name)
		}
	}
	if c.APIKey != "" && c.APIKeyFile != "" {
		add("conversation.api_key and conversation.api_key_file are mutually exclusive")
	}
	if c.MaxRetries != nil {
		nonNegative("conversation.max_retries", int64(*c.MaxRetries))
	}
	nonNegative("conversation.history_turns", int64(c.HistoryTurns))
	nonNegative("conversation.max_output_tokens", int64(c.MaxOutputTokens))
	nonNegative("conversation.backoff_base", int64(c.BackoffBase))
	nonNegative("conversation.backoff_max", int64(c.BackoffMax))
	nonNegative("conversation.request_timeout", int64(c.RequestTimeout))
	if c.BackoffBase > 0 && c.BackoffMax > 0 && c.BackoffMax < c.BackoffBase {
		add("conversation.backoff_max %s is below backoff_base %s", c.BackoffMax, c.BackoffBase)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		add("conversation.temperature %.2f is out of range [0, 2]", c.Temperature)
	}
	nonNegative("conversation.circuit_breaker.max_failures", int64(c.CircuitBreaker.MaxFailures))
	nonNegative("conversation.circuit_breaker.reset_timeout", int64(c.CircuitBreaker.ResetTimeout))
	nonNegative("conversation.circuit_breaker.half_open_max", int64(c.CircuitBreaker.HalfOpenMax))

	// TTS
	for i, e := range cfg.TTS.Providers {
		prefix := fmt.Sprintf("tts.providers[%d]", i)
		if e.Name == "" {
			add("%s.name is required", prefix)
			continue
		}
		warnUnknownProvider("tts", e.Name)
	}

	// Stats
	if cfg.Stats.Provider != "" {
		warnUnknownProvider("stats", cfg.Stats.Provider)
	}
	nonNegative("stats.timeout", int64(cfg.Stats.Timeout))
	nonNegative("stats.cache_size", int64(cfg.Stats.CacheSize))
	nonNegative("stats.cache_ttl", int64(cfg.Stats.CacheTTL))
	nonNegative("stats.burst", int64(cfg.Stats.Burst))
	if cfg.Stats.RateLimit < 0 {
		add("stats.rate_limit must not be negative")
	}

	if cfg.Readability.Threshold < 0 {
		add("readability.threshold must not be negative")
	}

	// Filler
	nonNegative("filler.min_events", int64(cfg.Filler.MinEvents))
	known := fillerIDs()
	for _, id := range cfg.Filler.Disabled {
		if !slices.Contains(known, id) {
			add("filler.disabled: unknown template %q; valid values: %v", id, known)
		}
	}
	for id, d := range cfg.Filler.Cooldowns {
		if !slices.Contains(known, id) {
			add("filler.cooldowns: unknown template %q; valid values: %v", id, known)
		}
		if d <= 0 {
			add("filler.cooldowns[%s] must be positive", id)
		}
	}

	nonNegative("prompt.max_words", int64(cfg.Prompt.MaxWords))

	for i, s := range cfg.Sanitizer.Substitutions {
		if s.From == "" {
			add("sanitizer.substitutions[%d].from is required", i)
		}
	}
	nonNegative("sanitizer.catchphrase_limit", int64(cfg.Sanitizer.CatchphraseLimit))

	nonNegative("sessions.ttl", int64(cfg.Sessions.TTL))
	nonNegative("sessions.max_games", int64(cfg.Sessions.MaxGames))

	return errors.Join(errs...)
}

func fillerIDs() []string {
	return []string{
		filler.IDSummary, filler.IDCasualties, filler.IDCliche, filler.IDPatreon,
		filler.IDTwitchYoutube, filler.IDAnecdote, filler.IDPlayerStats,
	}
}

func warnUnknownProvider(kind, name string) {
	if name == "" || slices.Contains(KnownProviders[kind], name) {
		return
	}
	slog.Warn("config: unknown provider name, may be a typo or a custom registration",
		"kind", kind, "name", name, "known", KnownProviders[kind])
}
