package tts

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

func TestEncodeParseWAV(t *testing.T) {
	t.Parallel()
	pcm := make([]byte, 32000) // one second of 16 kHz mono
	wav := EncodeWAV(pcm, 16000, 1)

	info, err := ParseWAV(wav)
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if info.DataOffset != 44 {
		t.Errorf("DataOffset = %d, want 44", info.DataOffset)
	}
	if info.SampleRate != 16000 || info.Channels != 1 || info.BitsPerSample != 16 {
		t.Errorf("format = %+v", info)
	}
	if got := info.Duration(); got != time.Second {
		t.Errorf("Duration = %v, want 1s", got)
	}
	if !bytes.Equal(wav[info.DataOffset:], pcm) {
		t.Error("sample data changed")
	}
}

func TestParseWAV_ExtraChunk(t *testing.T) {
	t.Parallel()
	wav := EncodeWAV([]byte{1, 2, 3, 4}, 22050, 1)
	// Insert an odd-sized LIST chunk between fmt and data.
	list := []byte("LIST\x03\x00\x00\x00abc\x00")
	withList := append(append(append([]byte{}, wav[:36]...), list...), wav[36:]...)
	binary.LittleEndian.PutUint32(withList[4:8], uint32(len(withList)-8))

	info, err := ParseWAV(withList)
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if got := withList[info.DataOffset:]; !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("data = %v", got)
	}
}

func TestParseWAV_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   []byte
	}{
		{"short", []byte("RIFF")},
		{"not riff", []byte("RIFX\x00\x00\x00\x00WAVE")},
		{"not wave", []byte("RIFF\x00\x00\x00\x00AVI ")},
		{"no data", EncodeWAV(nil, 16000, 1)[:36]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseWAV(tt.in); err == nil {
				t.Error("expected error")
			}
		})
	}
}
