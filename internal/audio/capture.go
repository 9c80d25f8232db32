package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"

	"voice-assistant-client/internal/observability/logging"
)

// Capture errors.
var (
	// ErrCaptureActive - the single capture slot is taken. At most one
	// recording runs at a time; a second start is refused, never queued.
	ErrCaptureActive = errors.New("recording already in progress")
	// ErrNoCapture - Stop was called with no recording running.
	ErrNoCapture = errors.New("no recording in progress")
)

// Recorder runs an external capture command (arecord by default) that
// writes WAV to stdout until interrupted. The capture slot is exclusive
// and is released on every exit path, including command failure.
type Recorder struct {
	command []string
	log     zerolog.Logger

	mu     sync.Mutex
	active bool
	cmd    *exec.Cmd
	out    *bytes.Buffer
}

// NewRecorder creates a recorder for the given capture command line.
func NewRecorder(command []string) *Recorder {
	return &Recorder{
		command: command,
		log:     logging.WithComponent("audio.recorder"),
	}
}

// Active reports whether a recording is running.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Start begins a recording. Returns ErrCaptureActive if one is already
// running.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return ErrCaptureActive
	}
	if len(r.command) == 0 {
		r.mu.Unlock()
		return errors.New("no record command configured")
	}
	r.active = true
	r.mu.Unlock()

	out := &bytes.Buffer{}
	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	cmd.Stdout = out
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		r.release()
		return fmt.Errorf("start record command %q: %w", r.command[0], err)
	}

	r.mu.Lock()
	r.cmd = cmd
	r.out = out
	r.mu.Unlock()

	r.log.Info().Str("command", r.command[0]).Msg("Recording started")
	return nil
}

// Stop interrupts the capture command and returns the recording encoded
// for transport. The capture slot is free again when Stop returns,
// regardless of outcome.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	cmd := r.cmd
	out := r.out
	r.cmd = nil
	r.out = nil
	r.mu.Unlock()
	defer r.release()

	if cmd == nil {
		return "", ErrNoCapture
	}

	// arecord stops cleanly on SIGINT; the exit status after an
	// interrupt is not a failure.
	if cmd.Process != nil {
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			cmd.Process.Kill()
		}
	}
	if err := cmd.Wait(); err != nil {
		r.log.Debug().Err(err).Msg("Record command exited after interrupt")
	}

	data := out.Bytes()
	info, err := ParseWAV(data)
	if err != nil {
		return "", fmt.Errorf("captured audio rejected: %w", err)
	}

	r.log.Info().
		Int("bytes", len(data)).
		Uint32("sampleRate", info.SampleRate).
		Uint16("channels", info.Channels).
		Msg("Recording stopped")
	return Encode(data), nil
}

func (r *Recorder) release() {
	r.mu.Lock()
	r.active = false
	r.mu.Unlock()
}

// FromFile loads a prerecorded WAV file and returns it encoded for
// transport, applying the same validation as a live capture.
func FromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read recording: %w", err)
	}
	if _, err := ParseWAV(data); err != nil {
		return "", fmt.Errorf("recording %s rejected: %w", path, err)
	}
	return Encode(data), nil
}
