package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/broodcaster/internal/config"
	"github.com/MrWong99/broodcaster/internal/resilience"
	"github.com/MrWong99/broodcaster/pkg/provider/tts"
	ttsmock "github.com/MrWong99/broodcaster/pkg/provider/tts/mock"
)

func voiceRegistry(s *ttsmock.Synthesizer) *config.Registry {
	reg := config.NewRegistry()
	reg.RegisterTTS("coqui", func(config.TTSEntry) (tts.Synthesizer, error) { return s, nil })
	reg.RegisterTTS("broken", func(config.TTSEntry) (tts.Synthesizer, error) {
		return nil, errors.New("no server")
	})
	return reg
}

func TestListVoices(t *testing.T) {
	t.Parallel()
	s := &ttsmock.Synthesizer{Voices: []tts.Voice{
		{ID: "p225", Name: "p225"},
		{ID: "p226", Name: "p226"},
	}}
	var out bytes.Buffer
	err := listVoices(context.Background(), &out, config.TTSConfig{Providers: []config.TTSEntry{
		{ProviderEntry: config.ProviderEntry{Name: "coqui"}, Voice: "p226"},
		{ProviderEntry: config.ProviderEntry{Name: "broken"}},
	}}, voiceRegistry(s))
	if err != nil {
		t.Fatalf("listVoices: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("output:\n%s", out.String())
	}
	tests := []struct {
		line   int
		fields []string
	}{
		{1, []string{"coqui", "p225", "p225", "false"}},
		{2, []string{"coqui", "p226", "p226", "true"}},
	}
	for _, tc := range tests {
		if got := strings.Fields(lines[tc.line]); strings.Join(got, " ") != strings.Join(tc.fields, " ") {
			t.Errorf("line %d = %q, want %v", tc.line, lines[tc.line], tc.fields)
		}
	}
	if !strings.Contains(lines[3], "broken") || !strings.Contains(lines[3], "no server") {
		t.Errorf("error row = %q", lines[3])
	}
}

func TestListVoices_NoProviders(t *testing.T) {
	t.Parallel()
	if err := listVoices(context.Background(), &bytes.Buffer{}, config.TTSConfig{}, config.NewRegistry()); err == nil {
		t.Fatal("listVoices without providers succeeded")
	}
}

func TestCheckVoice(t *testing.T) {
	t.Parallel()
	s := &ttsmock.Synthesizer{Voices: []tts.Voice{{ID: "p225"}}}
	fb := resilience.NewSynthesizerFallback("coqui", s, resilience.CircuitBreakerConfig{})
	ctx := context.Background()

	if err := checkVoice(ctx, fb, tts.Voice{ID: "p225"}); err != nil {
		t.Errorf("offered voice: %v", err)
	}
	if err := checkVoice(ctx, fb, tts.Voice{ID: "p999"}); !errors.Is(err, errUnknownVoice) {
		t.Errorf("unknown voice err = %v, want errUnknownVoice", err)
	}
	before := s.ListVoicesCalls
	if err := checkVoice(ctx, fb, tts.Voice{}); err != nil {
		t.Errorf("default voice: %v", err)
	}
	if s.ListVoicesCalls != before {
		t.Error("default voice queried the server")
	}

	down := &ttsmock.Synthesizer{ListVoicesErr: errors.New("connection refused")}
	if err := checkVoice(ctx, down, tts.Voice{ID: "p225"}); err == nil || errors.Is(err, errUnknownVoice) {
		t.Errorf("unreachable server err = %v", err)
	}
}
