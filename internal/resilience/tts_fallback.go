package resilience

import (
	"context"

	"github.com/MrWong99/broodcaster/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Synthesizer = (*SynthesizerFallback)(nil)

// SynthesizerFallback implements [tts.Synthesizer] with failover across
// several speech servers.
type SynthesizerFallback struct {
	group *FallbackGroup[tts.Synthesizer]
}

// NewSynthesizerFallback creates a fallback with primary as the preferred
// server.
func NewSynthesizerFallback(primaryName string, primary tts.Synthesizer, cfg CircuitBreakerConfig) *SynthesizerFallback {
	return &SynthesizerFallback{group: NewFallbackGroup(primaryName, primary, cfg)}
}

// Add registers another server behind the ones already added.
func (f *SynthesizerFallback) Add(name string, s tts.Synthesizer) {
	f.group.Add(name, s)
}

// Synthesize renders text on the first healthy server.
func (f *SynthesizerFallback) Synthesize(ctx context.Context, text string, voice tts.Voice) ([]byte, error) {
	return Execute(f.group, func(s tts.Synthesizer) ([]byte, error) {
		return s.Synthesize(ctx, text, voice)
	})
}

// ListVoices returns the voices of the first healthy server.
func (f *SynthesizerFallback) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	return Execute(f.group, func(s tts.Synthesizer) ([]tts.Voice, error) {
		return s.ListVoices(ctx)
	})
}
