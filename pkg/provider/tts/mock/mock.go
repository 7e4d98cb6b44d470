// Package mock provides a test double for the tts.Synthesizer interface.
//
//	s := &mock.Synthesizer{WAV: tts.EncodeWAV(pcm, 22050, 1)}
package mock

import (
	"context"
	"slices"
	"sync"

	"github.com/MrWong99/broodcaster/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Synthesizer = (*Synthesizer)(nil)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	Ctx   context.Context
	Text  string
	Voice tts.Voice
}

// Synthesizer is a mock implementation of tts.Synthesizer.
type Synthesizer struct {
	mu sync.Mutex

	// WAV is returned by Synthesize. When nil, an empty 16 kHz WAV is returned.
	WAV []byte

	// SynthesizeErr, if non-nil, is returned by Synthesize.
	SynthesizeErr error

	// Voices is returned by ListVoices.
	Voices []tts.Voice

	// ListVoicesErr, if non-nil, is returned by ListVoices.
	ListVoicesErr error

	// SynthesizeCalls records every call to Synthesize in order.
	SynthesizeCalls []SynthesizeCall

	// ListVoicesCalls counts calls to ListVoices.
	ListVoicesCalls int
}

// Synthesize records the call and returns the configured WAV or error.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, voice tts.Voice) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SynthesizeCalls = append(s.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text, Voice: voice})
	if s.SynthesizeErr != nil {
		return nil, s.SynthesizeErr
	}
	if s.WAV == nil {
		return tts.EncodeWAV(nil, 16000, 1), nil
	}
	return slices.Clone(s.WAV), nil
}

// ListVoices records the call and returns the configured voices or error.
func (s *Synthesizer) ListVoices(context.Context) ([]tts.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListVoicesCalls++
	if s.ListVoicesErr != nil {
		return nil, s.ListVoicesErr
	}
	return slices.Clone(s.Voices), nil
}

// Calls returns a copy of the recorded Synthesize calls.
func (s *Synthesizer) Calls() []SynthesizeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.SynthesizeCalls)
}
