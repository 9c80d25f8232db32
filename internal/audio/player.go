package audio

import (
	"fmt"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"

	"voice-assistant-client/internal/observability/logging"
)

// CommandPlayer plays audio by piping it to an external playback command
// (aplay by default). A new playback preempts the running one; replies
// are never queued behind each other.
type CommandPlayer struct {
	command []string
	log     zerolog.Logger

	mu      sync.Mutex
	current *exec.Cmd
}

// NewPlayer creates a player for the given playback command line.
func NewPlayer(command []string) *CommandPlayer {
	return &CommandPlayer{
		command: command,
		log:     logging.WithComponent("audio.player"),
	}
}

// Play pipes one reply to the playback command and waits for it to end.
// A playback started later kills this one; the interrupted Wait is not an
// error for the turn.
func (p *CommandPlayer) Play(audio []byte) error {
	if len(p.command) == 0 {
		return nil
	}

	cmd := exec.Command(p.command[0], p.command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("playback stdin: %w", err)
	}

	p.mu.Lock()
	if p.current != nil && p.current.Process != nil {
		p.log.Debug().Msg("Preempting running playback")
		p.current.Process.Kill()
	}
	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("start play command %q: %w", p.command[0], err)
	}
	p.current = cmd
	p.mu.Unlock()

	if _, err := stdin.Write(audio); err != nil {
		p.log.Debug().Err(err).Msg("Playback pipe closed early")
	}
	stdin.Close()

	waitErr := cmd.Wait()

	p.mu.Lock()
	preempted := p.current != cmd
	if !preempted {
		p.current = nil
	}
	p.mu.Unlock()

	if waitErr != nil && !preempted {
		return fmt.Errorf("play command: %w", waitErr)
	}
	return nil
}

// Stop kills the running playback, if any.
func (p *CommandPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil && p.current.Process != nil {
		p.current.Process.Kill()
		p.current = nil
	}
}
