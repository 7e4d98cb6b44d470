// Package config provides the configuration schema, loader, hot-reload watcher
// and provider registry for the broodcaster commentary service.
package config

import (
	"log/slog"
	"time"

	"github.com/MrWong99/broodcaster/internal/sanitize"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l to a slog level. Unknown and empty levels map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Backend selects the conversational backend implementation.
type Backend string

const (
	// BackendResponses uses the OpenAI Responses API with server-side state.
	BackendResponses Backend = "responses"

	// BackendChat replays locally kept history through a chat-completion
	// provider from the [Registry].
	BackendChat Backend = "chat"
)

// IsValid reports whether b is a recognised backend.
func (b Backend) IsValid() bool {
	return b == BackendResponses || b == BackendChat
}

// Config is the root configuration, usually loaded with [Load].
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Conversation ConversationConfig `yaml:"conversation"`
	TTS          TTSConfig          `yaml:"tts"`
	Stats        StatsConfig        `yaml:"stats"`
	Readability  ReadabilityConfig  `yaml:"readability"`
	Filler       FillerConfig       `yaml:"filler"`
	Prompt       PromptConfig       `yaml:"prompt"`
	Sanitizer    SanitizerConfig    `yaml:"sanitizer"`
	Sessions     SessionsConfig     `yaml:"sessions"`
}

// ServerConfig holds process-level settings.
type ServerConfig struct {
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the listen address of the /metrics, /healthz and
	// /readyz endpoints (e.g. ":9090"). Empty disables the listener.
	MetricsAddr string `yaml:"metrics_addr"`
}

// ProviderEntry is the configuration block shared by registry-built providers.
// Name selects the factory in the [Registry].
type ProviderEntry struct {
	Name    string `yaml:"name"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`

	// Options holds provider-specific values not covered above.
	Options map[string]any `yaml:"options"`
}

// ConversationConfig configures the conversational backend and the retry
// policy around it.
type ConversationConfig struct {
	// Backend defaults to "responses".
	Backend Backend `yaml:"backend"`

	// Model, BaseURL and the key fields configure the responses backend. The
	// key is read from APIKey, then APIKeyFile, then the APIKeyEnv variable
	// (default OPENAI_API_KEY).
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"`
	APIKeyEnv  string `yaml:"api_key_env"`

	// LLM selects the chat-completion provider of the chat backend.
	LLM ProviderEntry `yaml:"llm"`

	// Instructions is an optional system instruction sent with every turn,
	// e.g. a language or tone requirement. The caster persona lives in the
	// opening prompt and does not belong here.
	Instructions string `yaml:"instructions"`

	// HistoryTurns caps how many earlier turns the chat backend replays.
	HistoryTurns int `yaml:"history_turns"`

	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`

	// MaxRetries is the number of retries after the first attempt. Nil keeps
	// the default of 2; zero disables retrying.
	MaxRetries *int `yaml:"max_retries"`

	BackoffBase time.Duration `yaml:"backoff_base"`
	BackoffMax  time.Duration `yaml:"backoff_max"`

	// RefreshBetweenAttempts renews the backend session between failed
	// attempts when the backend supports it.
	RefreshBetweenAttempts bool `yaml:"refresh_between_attempts"`

	// RequestTimeout bounds a whole turn including retries. Zero means no
	// limit.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig tunes the breaker in front of the backend. Zero values
// keep the defaults.
type CircuitBreakerConfig struct {
	Disabled     bool          `yaml:"disabled"`
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
	HalfOpenMax  int           `yaml:"half_open_max"`
}

// TTSEntry is one speech synthesiser with the voice it speaks with.
type TTSEntry struct {
	ProviderEntry `yaml:",inline"`

	// Voice is the provider-specific voice or speaker id.
	Voice string `yaml:"voice"`
}

// TTSConfig lists speech synthesisers. The first entry is primary; the rest
// are tried in order when it fails. An empty list disables synthesis.
type TTSConfig struct {
	Providers []TTSEntry `yaml:"providers"`
}

// StatsConfig configures the tournament statistics source used by the
// player-stats filler. An empty Provider disables it.
type StatsConfig struct {
	Provider  string        `yaml:"provider"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`

	// RateLimit caps requests per second; Burst defaults to 1.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// ReadabilityConfig configures the name scorer.
type ReadabilityConfig struct {
	// Threshold overrides the default readability threshold when positive.
	Threshold float64 `yaml:"threshold"`

	// DictionaryPath names a newline-separated word list replacing the
	// built-in dictionary.
	DictionaryPath string `yaml:"dictionary_path"`

	// PhoneticCollisions also treats labels that sound alike as coinciding.
	// Unset means disabled.
	PhoneticCollisions *bool `yaml:"phonetic_collisions"`
}

// FillerConfig configures idle-time commentary.
type FillerConfig struct {
	// MinEvents is the smallest batch spoken without a filler. Default 1.
	MinEvents int `yaml:"min_events"`

	// Disabled lists template ids that are never picked.
	Disabled []string `yaml:"disabled"`

	// Cooldowns overrides per-template cooldowns by id.
	Cooldowns map[string]time.Duration `yaml:"cooldowns"`
}

// PromptConfig configures the opening preamble.
type PromptConfig struct {
	Casters  []string `yaml:"casters"`
	MaxWords int      `yaml:"max_words"`
}

// SanitizerConfig configures output rewriting. Substitutions extend the
// built-in table.
type SanitizerConfig struct {
	Substitutions []sanitize.Substitution `yaml:"substitutions"`

	// Catchphrase overrides the limited phrase; CatchphraseLimit how many
	// responses per game may contain it.
	Catchphrase        string `yaml:"catchphrase"`
	CatchphraseLimit   int    `yaml:"catchphrase_limit"`
	DisableCatchphrase bool   `yaml:"disable_catchphrase"`
}

// SessionsConfig bounds the per-game state store.
type SessionsConfig struct {
	TTL      time.Duration `yaml:"ttl"`
	MaxGames int           `yaml:"max_games"`
}
