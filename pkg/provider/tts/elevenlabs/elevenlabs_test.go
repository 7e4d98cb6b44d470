package elevenlabs

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MrWong99/broodcaster/pkg/provider/tts"
)

// fakeStream accepts the stream-input socket, records the text messages and
// answers with the configured audio chunks.
type fakeStream struct {
	mu     sync.Mutex
	path   string
	query  string
	sent   []textMessage
	chunks [][]byte
	errMsg string
}

func (f *fakeStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/v1/voices" {
		if r.Header.Get("xi-api-key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"voices":[{"voice_id":"abc123","name":"Rachel","category":"premade","labels":{"gender":"female"}}]}`))
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()
	ctx := r.Context()

	f.mu.Lock()
	f.path, f.query = r.URL.Path, r.URL.RawQuery
	f.mu.Unlock()

	for {
		var m textMessage
		if err := wsjson.Read(ctx, conn, &m); err != nil {
			return
		}
		f.mu.Lock()
		f.sent = append(f.sent, m)
		f.mu.Unlock()
		if m.Text == "" {
			break
		}
	}

	if f.errMsg != "" {
		_ = wsjson.Write(ctx, conn, audioMessage{Error: "quota_exceeded", Message: f.errMsg})
		return
	}
	for _, c := range f.chunks {
		_ = wsjson.Write(ctx, conn, audioMessage{Audio: base64.StdEncoding.EncodeToString(c)})
	}
	_ = wsjson.Write(ctx, conn, audioMessage{IsFinal: true})
	conn.Close(websocket.StatusNormalClosure, "")
}

func newTestSynth(t *testing.T, f *fakeStream, opts ...Option) *Synthesizer {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	s, err := New("key", append([]Option{WithBaseURL(srv.URL)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSynthesize(t *testing.T) {
	t.Parallel()
	f := &fakeStream{chunks: [][]byte{{1, 0, 2, 0}, {3, 0}}}
	s := newTestSynth(t, f, WithOutputFormat("pcm_24000"))

	wav, err := s.Synthesize(context.Background(), "Flash takes the map.", tts.Voice{ID: "abc123"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	info, err := tts.ParseWAV(wav)
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if info.SampleRate != 24000 || info.Channels != 1 {
		t.Errorf("format = %+v", info)
	}
	if got := wav[info.DataOffset:]; !bytes.Equal(got, []byte{1, 0, 2, 0, 3, 0}) {
		t.Errorf("pcm = %v", got)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.path != "/v1/text-to-speech/abc123/stream-input" {
		t.Errorf("path = %q", f.path)
	}
	if !strings.Contains(f.query, "output_format=pcm_24000") || !strings.Contains(f.query, "model_id="+defaultModel) {
		t.Errorf("query = %q", f.query)
	}
	if len(f.sent) != 3 {
		t.Fatalf("sent %d messages, want 3", len(f.sent))
	}
	if f.sent[0].Text != " " || f.sent[0].XiAPIKey != "key" || f.sent[0].VoiceSettings == nil {
		t.Errorf("first message = %+v", f.sent[0])
	}
	if f.sent[1].Text != "Flash takes the map. " {
		t.Errorf("text message = %+v", f.sent[1])
	}
}

func TestSynthesize_ServerError(t *testing.T) {
	t.Parallel()
	s := newTestSynth(t, &fakeStream{errMsg: "out of characters"})
	if _, err := s.Synthesize(context.Background(), "hello", tts.Voice{ID: "v"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSynthesize_NoAudio(t *testing.T) {
	t.Parallel()
	s := newTestSynth(t, &fakeStream{})
	if _, err := s.Synthesize(context.Background(), "hello", tts.Voice{ID: "v"}); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestSynthesize_Validation(t *testing.T) {
	t.Parallel()
	s, _ := New("key")
	if _, err := s.Synthesize(context.Background(), "hello", tts.Voice{}); err == nil {
		t.Error("expected error for empty voice id")
	}
	if _, err := s.Synthesize(context.Background(), " ", tts.Voice{ID: "v"}); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestListVoices(t *testing.T) {
	t.Parallel()
	s := newTestSynth(t, &fakeStream{})
	voices, err := s.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 1 {
		t.Fatalf("voices = %+v", voices)
	}
	v := voices[0]
	if v.ID != "abc123" || v.Name != "Rachel" || v.Provider != "elevenlabs" {
		t.Errorf("voice = %+v", v)
	}
	if v.Metadata["gender"] != "female" || v.Metadata["category"] != "premade" {
		t.Errorf("metadata = %v", v.Metadata)
	}
}

func TestStreamURL(t *testing.T) {
	t.Parallel()
	s, _ := New("key", WithModel("eleven_multilingual_v2"))
	u := s.streamURL("voice-abc123")
	if !strings.HasPrefix(u, "wss://api.elevenlabs.io/v1/text-to-speech/voice-abc123/stream-input?") {
		t.Errorf("url = %q", u)
	}
	if !strings.Contains(u, "model_id=eleven_multilingual_v2") {
		t.Errorf("url = %q, want model id", u)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		key     string
		opts    []Option
		wantErr bool
	}{
		{name: "defaults", key: "key"},
		{name: "empty key", key: "", wantErr: true},
		{name: "mp3 format", key: "key", opts: []Option{WithOutputFormat("mp3_44100_128")}, wantErr: true},
		{name: "bad rate", key: "key", opts: []Option{WithOutputFormat("pcm_fast")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.key, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s.sampleRate != 16000 {
				t.Errorf("sampleRate = %d, want 16000", s.sampleRate)
			}
		})
	}
}
