package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/broodcaster/internal/config"
	"github.com/MrWong99/broodcaster/pkg/provider/llm"
	llmmock "github.com/MrWong99/broodcaster/pkg/provider/llm/mock"
	"github.com/MrWong99/broodcaster/pkg/provider/tts"
	ttsmock "github.com/MrWong99/broodcaster/pkg/provider/tts/mock"
	"github.com/MrWong99/broodcaster/pkg/stats"
	statsmock "github.com/MrWong99/broodcaster/pkg/stats/mock"
)

const sampleYAML = `
server:
  log_level: debug
  metrics_addr: ":9090"

conversation:
  backend: chat
  llm:
    name: anthropic
    model: claude-3-5-haiku-latest
    api_key: sk-ant-test
  history_turns: 12
  max_retries: 0
  backoff_base: 100ms
  backoff_max: 1s
  refresh_between_attempts: true
  request_timeout: 30s
  circuit_breaker:
    max_failures: 3
    reset_timeout: 10s

tts:
  providers:
    - name: elevenlabs
      api_key: el-test
      voice: caster-voice
      options:
        output_format: pcm_16000
    - name: coqui
      base_url: http://localhost:5002
      voice: p225

stats:
  provider: sscait
  cache_ttl: 10m
  rate_limit: 2

readability:
  threshold: 2.5
  phonetic_collisions: true

filler:
  min_events: 2
  disabled: [patreon]
  cooldowns:
    anecdote: 30m

prompt:
  casters: [Tasteless, Artosis]
  max_words: 40

sanitizer:
  substitutions:
    - from: Zergling
      to: Zerg-ling
  catchphrase_limit: 3

sessions:
  ttl: 1h
  max_games: 64
`

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.LogLevel != config.LogDebug || cfg.Server.MetricsAddr != ":9090" {
		t.Errorf("server = %+v", cfg.Server)
	}
	c := cfg.Conversation
	if c.Backend != config.BackendChat || c.LLM.Name != "anthropic" || c.HistoryTurns != 12 {
		t.Errorf("conversation = %+v", c)
	}
	if c.MaxRetries == nil || *c.MaxRetries != 0 {
		t.Errorf("max_retries = %v, want explicit 0", c.MaxRetries)
	}
	if c.BackoffBase != 100*time.Millisecond || c.RequestTimeout != 30*time.Second {
		t.Errorf("durations = %s / %s", c.BackoffBase, c.RequestTimeout)
	}
	if c.CircuitBreaker.MaxFailures != 3 || c.CircuitBreaker.ResetTimeout != 10*time.Second {
		t.Errorf("circuit_breaker = %+v", c.CircuitBreaker)
	}
	if len(cfg.TTS.Providers) != 2 {
		t.Fatalf("tts.providers = %d, want 2", len(cfg.TTS.Providers))
	}
	if p := cfg.TTS.Providers[0]; p.Name != "elevenlabs" || p.Voice != "caster-voice" || p.Options["output_format"] != "pcm_16000" {
		t.Errorf("tts.providers[0] = %+v", p)
	}
	if cfg.Stats.CacheTTL != 10*time.Minute || cfg.Stats.RateLimit != 2 {
		t.Errorf("stats = %+v", cfg.Stats)
	}
	if cfg.Filler.Cooldowns["anecdote"] != 30*time.Minute || cfg.Filler.Disabled[0] != "patreon" {
		t.Errorf("filler = %+v", cfg.Filler)
	}
	if cfg.Sanitizer.Substitutions[0].To != "Zerg-ling" || cfg.Sanitizer.CatchphraseLimit != 3 {
		t.Errorf("sanitizer = %+v", cfg.Sanitizer)
	}
	if cfg.Sessions.TTL != time.Hour || cfg.Sessions.MaxGames != 64 {
		t.Errorf("sessions = %+v", cfg.Sessions)
	}
}

func TestLoadFromReader_EmptyIsValid(t *testing.T) {
	for _, doc := range []string{"", "{}"} {
		cfg, err := config.LoadFromReader(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("LoadFromReader(%q): %v", doc, err)
		}
		if cfg.Conversation.MaxRetries != nil {
			t.Errorf("max_retries = %v, want nil", *cfg.Conversation.MaxRetries)
		}
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("server:\n  listen: \":80\"\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr []string
	}{
		{
			name:    "bad log level",
			yaml:    "server:\n  log_level: loud\n",
			wantErr: []string{"server.log_level"},
		},
		{
			name:    "bad backend",
			yaml:    "conversation:\n  backend: telepathy\n",
			wantErr: []string{"conversation.backend"},
		},
		{
			name:    "chat without provider",
			yaml:    "conversation:\n  backend: chat\n",
			wantErr: []string{"conversation.llm.name", "conversation.llm.model"},
		},
		{
			name:    "negative retries",
			yaml:    "conversation:\n  max_retries: -1\n",
			wantErr: []string{"conversation.max_retries"},
		},
		{
			name:    "backoff max below base",
			yaml:    "conversation:\n  backoff_base: 2s\n  backoff_max: 1s\n",
			wantErr: []string{"backoff_max"},
		},
		{
			name:    "key and key file",
			yaml:    "conversation:\n  api_key: a\n  api_key_file: /k\n",
			wantErr: []string{"mutually exclusive"},
		},
		{
			name:    "tts without name",
			yaml:    "tts:\n  providers:\n    - voice: x\n",
			wantErr: []string{"tts.providers[0].name"},
		},
		{
			name:    "unknown filler",
			yaml:    "filler:\n  disabled: [jokes]\n  cooldowns:\n    summary: 0s\n",
			wantErr: []string{`unknown template "jokes"`, "filler.cooldowns[summary]"},
		},
		{
			name:    "empty substitution",
			yaml:    "sanitizer:\n  substitutions:\n    - to: x\n",
			wantErr: []string{"sanitizer.substitutions[0].from"},
		},
		{
			name:    "negative sessions",
			yaml:    "sessions:\n  ttl: -1s\n  max_games: -2\n",
			wantErr: []string{"sessions.ttl", "sessions.max_games"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.LoadFromReader(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			for _, want := range tc.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broodcaster.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) = %v, want ErrNotExist", err)
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level config.LogLevel
		valid bool
		slog  slog.Level
	}{
		{config.LogDebug, true, slog.LevelDebug},
		{config.LogInfo, true, slog.LevelInfo},
		{config.LogWarn, true, slog.LevelWarn},
		{config.LogError, true, slog.LevelError},
		{"", false, slog.LevelInfo},
		{"trace", false, slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := tc.level.IsValid(); got != tc.valid {
			t.Errorf("%q.IsValid() = %v, want %v", tc.level, got, tc.valid)
		}
		if got := tc.level.Level(); got != tc.slog {
			t.Errorf("%q.Level() = %v, want %v", tc.level, got, tc.slog)
		}
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()

	reg.RegisterLLM("fake", func(e config.ProviderEntry) (llm.Provider, error) {
		if e.Model == "" {
			return nil, errors.New("model required")
		}
		return &llmmock.Provider{}, nil
	})
	reg.RegisterTTS("fake", func(e config.TTSEntry) (tts.Synthesizer, error) {
		return &ttsmock.Synthesizer{}, nil
	})
	reg.RegisterStats("fake", func(config.StatsConfig) (stats.Source, error) {
		return &statsmock.Source{}, nil
	})

	if _, err := reg.CreateLLM(config.ProviderEntry{Name: "fake", Model: "m"}); err != nil {
		t.Errorf("CreateLLM: %v", err)
	}
	if _, err := reg.CreateLLM(config.ProviderEntry{Name: "fake"}); err == nil {
		t.Error("factory error was not returned")
	}
	if _, err := reg.CreateTTS(config.TTSEntry{ProviderEntry: config.ProviderEntry{Name: "fake"}}); err != nil {
		t.Errorf("CreateTTS: %v", err)
	}
	if _, err := reg.CreateStats(config.StatsConfig{Provider: "fake"}); err != nil {
		t.Errorf("CreateStats: %v", err)
	}

	_, err := reg.CreateLLM(config.ProviderEntry{Name: "nope"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("CreateLLM(nope) = %v, want ErrProviderNotRegistered", err)
	}
	_, err = reg.CreateTTS(config.TTSEntry{})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("CreateTTS(empty) = %v, want ErrProviderNotRegistered", err)
	}

	if got := reg.Names("llm"); len(got) != 1 || got[0] != "fake" {
		t.Errorf("Names(llm) = %v", got)
	}
	if got := reg.Names("audio"); got != nil {
		t.Errorf("Names(audio) = %v, want nil", got)
	}
}
