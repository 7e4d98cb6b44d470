package config_test

import (
	"slices"
	"testing"
	"time"

	"github.com/MrWong99/broodcaster/internal/config"
	"github.com/MrWong99/broodcaster/internal/sanitize"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server:       config.ServerConfig{LogLevel: config.LogInfo, MetricsAddr: ":9090"},
		Conversation: config.ConversationConfig{Model: "gpt-4o-mini"},
		Filler:       config.FillerConfig{Cooldowns: map[string]time.Duration{"summary": time.Minute}},
		Sanitizer: config.SanitizerConfig{
			Substitutions: []sanitize.Substitution{{From: "Zerg", To: "Zurg"}},
		},
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		mutate      func(c *config.Config)
		wantLog     bool
		wantSan     bool
		wantRestart []string
	}{
		{
			name:   "identical",
			mutate: func(*config.Config) {},
		},
		{
			name:    "log level",
			mutate:  func(c *config.Config) { c.Server.LogLevel = config.LogDebug },
			wantLog: true,
		},
		{
			name: "substitution",
			mutate: func(c *config.Config) {
				c.Sanitizer.Substitutions = append(c.Sanitizer.Substitutions, sanitize.Substitution{From: "a", To: "b"})
			},
			wantSan: true,
		},
		{
			name:    "catchphrase limit",
			mutate:  func(c *config.Config) { c.Sanitizer.CatchphraseLimit = 5 },
			wantSan: true,
		},
		{
			name: "startup-only sections",
			mutate: func(c *config.Config) {
				c.Server.MetricsAddr = ":9191"
				c.Conversation.Model = "gpt-4o"
				c.Filler.Cooldowns["summary"] = 2 * time.Minute
				c.Sessions.MaxGames = 8
			},
			wantRestart: []string{"server", "conversation", "filler", "sessions"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			old, next := baseConfig(), baseConfig()
			tc.mutate(next)

			d := config.Diff(old, next)
			if d.LogLevelChanged != tc.wantLog {
				t.Errorf("LogLevelChanged = %v, want %v", d.LogLevelChanged, tc.wantLog)
			}
			if tc.wantLog && d.NewLogLevel != next.Server.LogLevel {
				t.Errorf("NewLogLevel = %q", d.NewLogLevel)
			}
			if d.SanitizerChanged != tc.wantSan {
				t.Errorf("SanitizerChanged = %v, want %v", d.SanitizerChanged, tc.wantSan)
			}
			if !slices.Equal(d.RestartRequired, tc.wantRestart) {
				t.Errorf("RestartRequired = %v, want %v", d.RestartRequired, tc.wantRestart)
			}
			want := tc.wantLog || tc.wantSan || len(tc.wantRestart) > 0
			if d.Changed() != want {
				t.Errorf("Changed() = %v, want %v", d.Changed(), want)
			}
		})
	}
}
