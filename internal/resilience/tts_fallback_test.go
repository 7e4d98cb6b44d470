package resilience

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/broodcaster/pkg/provider/tts"
	ttsmock "github.com/MrWong99/broodcaster/pkg/provider/tts/mock"
)

func TestSynthesizerFallback_PrimarySuccess(t *testing.T) {
	t.Parallel()
	primary := &ttsmock.Synthesizer{WAV: tts.EncodeWAV([]byte{1, 0}, 16000, 1)}
	secondary := &ttsmock.Synthesizer{}

	f := NewSynthesizerFallback("primary", primary, CircuitBreakerConfig{MaxFailures: 3})
	f.Add("secondary", secondary)

	wav, err := f.Synthesize(context.Background(), "hello", tts.Voice{ID: "v1"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(wav, primary.WAV) {
		t.Error("wav not from primary")
	}
	if len(primary.Calls()) != 1 || len(secondary.Calls()) != 0 {
		t.Errorf("calls = %d/%d, want 1/0", len(primary.Calls()), len(secondary.Calls()))
	}
	if got := primary.Calls()[0]; got.Text != "hello" || got.Voice.ID != "v1" {
		t.Errorf("call = %+v", got)
	}
}

func TestSynthesizerFallback_Failover(t *testing.T) {
	t.Parallel()
	primary := &ttsmock.Synthesizer{SynthesizeErr: errors.New("primary down")}
	secondary := &ttsmock.Synthesizer{WAV: tts.EncodeWAV([]byte{9, 0}, 22050, 1)}

	f := NewSynthesizerFallback("primary", primary, CircuitBreakerConfig{MaxFailures: 3})
	f.Add("secondary", secondary)

	wav, err := f.Synthesize(context.Background(), "hello", tts.Voice{})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(wav, secondary.WAV) {
		t.Error("wav not from secondary")
	}
}

func TestSynthesizerFallback_AllFail(t *testing.T) {
	t.Parallel()
	f := NewSynthesizerFallback("a", &ttsmock.Synthesizer{SynthesizeErr: errTest}, CircuitBreakerConfig{})
	f.Add("b", &ttsmock.Synthesizer{SynthesizeErr: errTest})

	if _, err := f.Synthesize(context.Background(), "hello", tts.Voice{}); !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestSynthesizerFallback_ListVoices(t *testing.T) {
	t.Parallel()
	primary := &ttsmock.Synthesizer{ListVoicesErr: errTest}
	secondary := &ttsmock.Synthesizer{Voices: []tts.Voice{{ID: "p225", Name: "p225"}}}

	f := NewSynthesizerFallback("primary", primary, CircuitBreakerConfig{})
	f.Add("secondary", secondary)

	voices, err := f.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 1 || voices[0].ID != "p225" {
		t.Errorf("voices = %+v", voices)
	}
}
