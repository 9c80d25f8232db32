package audio

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// wavBytes builds a minimal PCM WAV payload for tests.
func wavBytes(format uint16) []byte {
	b := make([]byte, wavHeaderSize+8)
	copy(b[0:4], "RIFF")
	copy(b[8:12], "WAVE")
	binary.LittleEndian.PutUint16(b[20:22], format)
	binary.LittleEndian.PutUint16(b[22:24], 1)
	binary.LittleEndian.PutUint32(b[24:28], 16000)
	binary.LittleEndian.PutUint16(b[34:36], 16)
	return b
}

func TestParseWAV_Valid(t *testing.T) {
	info, err := ParseWAV(wavBytes(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 1 || info.BitsPerSample != 16 {
		t.Errorf("info = %+v", info)
	}
}

func TestParseWAV_Rejections(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"too short", []byte("RIFF"), ErrNotWAV},
		{"bad magic", make([]byte, wavHeaderSize), ErrNotWAV},
		{"non-pcm", wavBytes(3), ErrNotPCM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseWAV(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("ParseWAV error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	if Encode([]byte("foo")) != base64.StdEncoding.EncodeToString([]byte("foo")) {
		t.Error("Encode must produce standard base64")
	}
}

func TestRecorder_CaptureRoundTrip(t *testing.T) {
	wav := wavBytes(1)
	path := filepath.Join(t.TempDir(), "sample.wav")
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		t.Fatal(err)
	}

	// cat emits the sample and exits; Stop then just collects it.
	r := NewRecorder([]string{"cat", path})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !r.Active() {
		t.Error("recorder should be active after Start")
	}

	time.Sleep(50 * time.Millisecond)
	encoded, err := r.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if encoded != Encode(wav) {
		t.Error("encoded capture does not match the source audio")
	}
	if r.Active() {
		t.Error("capture slot not released after Stop")
	}
}

func TestFromFile(t *testing.T) {
	wav := wavBytes(1)
	path := filepath.Join(t.TempDir(), "sample.wav")
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		t.Fatal(err)
	}

	encoded, err := FromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if encoded != Encode(wav) {
		t.Error("encoded file does not match the source audio")
	}
}

func TestFromFile_RejectsNonWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := FromFile(path); !errors.Is(err, ErrNotWAV) {
		t.Errorf("FromFile = %v, want ErrNotWAV", err)
	}
}

func TestRecorder_ExclusiveCapture(t *testing.T) {
	r := NewRecorder([]string{"sleep", "5"})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Start(context.Background()); !errors.Is(err, ErrCaptureActive) {
		t.Errorf("second start = %v, want ErrCaptureActive", err)
	}

	// Stop fails (sleep writes no WAV) but must still free the slot.
	if _, err := r.Stop(); err == nil {
		t.Error("expected a validation error for empty capture output")
	}
	if r.Active() {
		t.Error("capture slot not released after failed Stop")
	}
}

func TestRecorder_StopWithoutStart(t *testing.T) {
	r := NewRecorder([]string{"cat"})
	if _, err := r.Stop(); !errors.Is(err, ErrNoCapture) {
		t.Errorf("stop = %v, want ErrNoCapture", err)
	}
}

func TestRecorder_StartCommandMissing(t *testing.T) {
	r := NewRecorder([]string{"definitely-not-a-real-recorder"})
	if err := r.Start(context.Background()); err == nil {
		t.Fatal("expected an error for a missing command")
	}
	if r.Active() {
		t.Error("capture slot not released after failed Start")
	}
}

func TestPlayer_PlaySucceeds(t *testing.T) {
	p := NewPlayer([]string{"cat"})
	if err := p.Play([]byte("audio-bytes")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPlayer_EmptyCommandIsNoOp(t *testing.T) {
	p := NewPlayer(nil)
	if err := p.Play([]byte("audio-bytes")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPlayer_MissingCommand(t *testing.T) {
	p := NewPlayer([]string{"definitely-not-a-real-player"})
	if err := p.Play([]byte("audio-bytes")); err == nil {
		t.Error("expected an error for a missing command")
	}
}

func TestPlayer_StopWithoutPlayback(t *testing.T) {
	p := NewPlayer([]string{"cat"})
	p.Stop()
}
