package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voice-assistant-client/internal/models"
	"voice-assistant-client/internal/observability/logging"
	"voice-assistant-client/internal/observability/metrics"
	"voice-assistant-client/internal/session"
	"voice-assistant-client/internal/transport"
)

// Status strings surfaced to the user while a turn progresses.
const (
	StatusProcessing       = "Processing..."
	StatusTranscribing     = "Transcribing..."
	StatusGettingResponse  = "Getting response..."
	StatusGeneratingSpeech = "Generating speech..."
	StatusPlaying          = "Playing audio..."
	StatusIdle             = "Not recording"
	StatusCreditsOver      = "Error: Credits over"
)

// Presenter renders transcript entries and the status line.
type Presenter interface {
	ShowEntry(entry models.TranscriptEntry)
	ShowStatus(status string)
}

// Player plays one synthesized reply. A new playback preempts the old one.
type Player interface {
	Play(audio []byte) error
}

// Archiver persists completed messages for the history command.
type Archiver interface {
	ArchiveMessage(sessionID string, role models.Role, content string) error
}

// Publisher emits transcript events for completed turn halves.
type Publisher interface {
	PublishUser(ctx context.Context, sessionID, text string) error
	PublishAssistant(ctx context.Context, sessionID, text string) error
}

// Runner coordinates one conversation turn end to end. It implements
// transport.Sink, so both transports deliver their results through the
// same four callbacks.
//
// Overlapping turns are deliberately not serialized against each other:
// each runs independently and the player follows the last-finished turn.
// Only the capture device is exclusive, and that is enforced upstream by
// the audio package.
type Runner struct {
	session   *session.Session
	rest      *transport.Rest
	channel   *transport.Channel
	player    Player
	ui        Presenter
	archive   Archiver
	publisher Publisher
	log       zerolog.Logger
	metrics   *metrics.Metrics

	mu        sync.Mutex
	current   *Lifecycle
	mode      string
	turnStart time.Time
}

// NewRunner creates a runner bound to the session, player and presenter.
// Transports are attached afterwards because they need the runner as
// their sink.
func NewRunner(sess *session.Session, player Player, ui Presenter) *Runner {
	return &Runner{
		session: sess,
		player:  player,
		ui:      ui,
		log:     logging.WithComponent("pipeline"),
		metrics: metrics.DefaultMetrics,
		mode:    "rest",
	}
}

// SetRest attaches the REST fallback transport.
func (r *Runner) SetRest(rest *transport.Rest) { r.rest = rest }

// SetChannel attaches the WebSocket channel transport.
func (r *Runner) SetChannel(ch *transport.Channel) { r.channel = ch }

// SetArchiver attaches the optional durable message archive.
func (r *Runner) SetArchiver(a Archiver) { r.archive = a }

// SetPublisher attaches the optional transcript event publisher.
func (r *Runner) SetPublisher(p Publisher) { r.publisher = p }

// Text runs one typed-input turn. The user message is recorded
// immediately; the transports skip the transcription step.
func (r *Runner) Text(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	r.session.Append(models.RoleUser, text)
	r.ui.ShowEntry(models.TranscriptEntry{Role: models.RoleUser, Text: text})
	r.archiveMessage(models.RoleUser, text)
	r.publishUser(ctx, text)
	r.ui.ShowStatus(StatusProcessing)

	return r.run(ctx, transport.TurnInput{Text: text}, "text")
}

// Audio runs one voice-input turn from an encoded recording.
func (r *Runner) Audio(ctx context.Context, audioBase64 string) error {
	if audioBase64 == "" {
		return nil
	}
	r.ui.ShowStatus(StatusProcessing)
	return r.run(ctx, transport.TurnInput{AudioBase64: audioBase64}, "audio")
}

// Reset replaces the session wholesale and returns the new id. File
// selection state is cleared by the caller alongside this.
func (r *Runner) Reset() string {
	return r.session.Reset()
}

func (r *Runner) run(ctx context.Context, in transport.TurnInput, input string) error {
	lc := NewLifecycle()
	t := r.selectTransport()

	r.mu.Lock()
	r.current = lc
	r.mode = t.Mode()
	r.turnStart = time.Now()
	r.mu.Unlock()

	r.metrics.RecordTurnStart(t.Mode(), input)

	// Session id and history are read at the moment of send, never
	// earlier: a reset can happen between user actions.
	in.SessionID = r.session.ID()
	in.History = r.session.History()

	turnLog := logging.WithTurn(in.SessionID, t.Mode())
	turnLog.Debug().
		Str("input", input).
		Int("historyLen", len(in.History)).
		Msg("Turn dispatched")

	if in.IsAudio() && t.Mode() == "rest" {
		r.ui.ShowStatus(StatusTranscribing)
	}

	err := t.SendTurn(ctx, in)
	if _, viaChannel := t.(*transport.Channel); viaChannel && errors.Is(err, transport.ErrChannelUnavailable) {
		// The channel closed between the readiness check and the send.
		r.mu.Lock()
		r.mode = r.rest.Mode()
		r.mu.Unlock()
		err = r.rest.SendTurn(ctx, in)
	}
	if err != nil {
		r.failTurn(lc, err)
		return err
	}
	return nil
}

// selectTransport picks the channel when it is open and falls back to
// REST otherwise. Selection happens per turn, at call time.
func (r *Runner) selectTransport() transport.Transport {
	if r.channel != nil && r.channel.Ready() {
		return r.channel
	}
	return r.rest
}

func (r *Runner) failTurn(lc *Lifecycle, err error) {
	lc.Fail()

	mode := r.currentMode()
	status := "Error: " + err.Error()
	reason := "request"

	if errors.Is(err, transport.ErrCreditsExhausted) {
		status = StatusCreditsOver
		reason = "credits"
	} else {
		var stepErr *transport.StepError
		if errors.As(err, &stepErr) {
			reason = string(stepErr.Step)
			switch stepErr.Step {
			case transport.StepTranscribe:
				status = "Error: Transcription failed"
			case transport.StepRespond:
				status = "Error: LLM request failed"
			case transport.StepSynthesize:
				status = "Error: TTS request failed"
			}
		}
	}

	r.metrics.RecordTurnFailed(mode, reason)
	r.log.Error().Err(err).Str("transport", mode).Msg("Turn failed")
	r.ui.ShowStatus(status)
}

func (r *Runner) currentTurn() *Lifecycle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Runner) currentMode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// --- transport.Sink implementation ---

// OnTranscription is called when the backend recognizes the user's voice
// input. The user entry joins the history at this point for voice turns.
func (r *Runner) OnTranscription(text string) {
	if lc := r.currentTurn(); lc != nil {
		if err := lc.MarkTranscribed(); err != nil {
			r.log.Debug().Err(err).Msg("Transcription in unexpected turn state")
		}
	}
	r.session.Append(models.RoleUser, text)
	r.ui.ShowEntry(models.TranscriptEntry{Role: models.RoleUser, Text: text})
	r.archiveMessage(models.RoleUser, text)
	r.publishUser(context.Background(), text)
	r.ui.ShowStatus(StatusGettingResponse)
}

// OnResponse is called when the assistant reply arrives.
func (r *Runner) OnResponse(text string) {
	if lc := r.currentTurn(); lc != nil {
		if err := lc.MarkResponded(); err != nil {
			r.log.Debug().Err(err).Msg("Response in unexpected turn state")
		}
	}
	r.session.Append(models.RoleAssistant, text)
	r.ui.ShowEntry(models.TranscriptEntry{Role: models.RoleAssistant, Text: text})
	r.archiveMessage(models.RoleAssistant, text)
	r.publishAssistant(context.Background(), text)
	r.ui.ShowStatus(StatusGeneratingSpeech)
}

// OnSpeech is called with the synthesized reply. Playback failure keeps
// the text reply visible; the degradation is text without audio.
func (r *Runner) OnSpeech(audio []byte) {
	lc := r.currentTurn()
	if lc != nil {
		if err := lc.MarkSpoken(); err != nil {
			r.log.Debug().Err(err).Msg("Speech in unexpected turn state")
		}
	}

	if r.player != nil && len(audio) > 0 {
		r.ui.ShowStatus(StatusPlaying)
		r.metrics.PlaybackTotal.Inc()
		if err := r.player.Play(audio); err != nil {
			r.metrics.PlaybackErrors.Inc()
			r.log.Error().Err(err).Msg("Audio playback failed")
		}
	}
	r.ui.ShowStatus(StatusIdle)

	r.mu.Lock()
	mode := r.mode
	elapsed := time.Since(r.turnStart)
	r.mu.Unlock()
	r.metrics.RecordTurnDuration(mode, elapsed.Seconds())
}

// OnError is called for server-side error events.
func (r *Runner) OnError(message string) {
	if lc := r.currentTurn(); lc != nil {
		lc.Fail()
	}
	r.metrics.RecordTurnFailed(r.currentMode(), "server")
	r.log.Error().Str("error", message).Msg("Server error event")
	r.ui.ShowStatus("Error: " + message)
}

func (r *Runner) archiveMessage(role models.Role, content string) {
	if r.archive == nil {
		return
	}
	if err := r.archive.ArchiveMessage(r.session.ID(), role, content); err != nil {
		r.log.Warn().Err(err).Msg("Failed to archive message")
	}
}

func (r *Runner) publishUser(ctx context.Context, text string) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishUser(ctx, r.session.ID(), text); err != nil {
		r.log.Warn().Err(err).Msg("Failed to publish user transcript")
	}
}

func (r *Runner) publishAssistant(ctx context.Context, text string) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishAssistant(ctx, r.session.ID(), text); err != nil {
		r.log.Warn().Err(err).Msg("Failed to publish assistant transcript")
	}
}
