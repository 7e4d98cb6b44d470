// Package tts defines the Synthesizer interface for text-to-speech backends.
//
// A Synthesizer turns one finished commentary line into a complete RIFF/WAVE
// file. Commentary is produced a whole reply at a time, so there is no
// streaming variant; callers write the returned bytes out or hand them to a
// player as-is.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Voice describes a synthesizer voice.
type Voice struct {
	// ID is the provider-specific voice identifier. Some providers accept an
	// empty ID and use their default speaker.
	ID string

	// Name is the human-readable voice name.
	Name string

	// Provider identifies which backend this voice belongs to.
	Provider string

	// Metadata holds provider-specific voice attributes.
	Metadata map[string]string
}

// Synthesizer is the abstraction over any TTS backend.
type Synthesizer interface {
	// Synthesize renders text with voice and returns a WAV file. Empty text is
	// an error.
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)

	// ListVoices returns the voices the backend currently offers.
	ListVoices(ctx context.Context) ([]Voice, error)
}
