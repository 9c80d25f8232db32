// Package transport delivers conversation turns to the backend and hands
// back typed result events. The persistent WebSocket channel is the
// primary path; discrete REST calls are the fallback when no channel is
// open.
package transport

import (
	"context"
	"errors"
	"fmt"

	"voice-assistant-client/internal/models"
)

// Inbound event kinds emitted by the backend.
const (
	KindTranscription = "transcription"
	KindLLMResponse   = "llm_response"
	KindTTS           = "tts"
	KindError         = "error"
)

// Sink receives typed backend events. Each known inbound kind maps to
// exactly one method; unknown kinds are logged and dropped before reaching
// the sink. The REST fallback invokes the sink synchronously in step
// order; the channel invokes it as events arrive.
type Sink interface {
	OnTranscription(text string)
	OnResponse(text string)
	OnSpeech(audio []byte)
	OnError(message string)
}

// TurnInput is one user input handed to a transport. SessionID and History
// are snapshotted at send time because a session reset can happen between
// user actions.
type TurnInput struct {
	// Text is set for typed input.
	Text string
	// AudioBase64 is the encoded recording for voice input.
	AudioBase64 string

	SessionID string
	History   []models.Message
}

// IsAudio reports whether this turn carries a recording.
func (in TurnInput) IsAudio() bool { return in.AudioBase64 != "" }

// Transport delivers one turn's payload to the backend. Implementations:
// Channel (WebSocket) and Rest (sequential fallback calls).
type Transport interface {
	SendTurn(ctx context.Context, in TurnInput) error
	Mode() string
}

// Step identifies one fallback pipeline step for error reporting.
type Step string

const (
	StepTranscribe Step = "transcribe"
	StepRespond    Step = "respond"
	StepSynthesize Step = "synthesize"
)

// Sentinel errors.
var (
	// ErrCreditsExhausted maps HTTP 401 from the AI endpoints. It is a
	// distinct condition from a generic request failure.
	ErrCreditsExhausted = errors.New("credits exhausted")
	// ErrChannelUnavailable is returned by Channel.SendTurn when the
	// channel is not open; callers fall back to REST.
	ErrChannelUnavailable = errors.New("channel not open")
)

// StepError wraps a fallback step failure with the step that produced it.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

// UploadFile is one validated file ready for the upload batch.
type UploadFile struct {
	Name     string
	MimeType string
	Content  []byte
}

// DriveConfig holds the developer credentials served by the backend for
// the third-party drive integration.
type DriveConfig struct {
	APIKey   string `json:"google_api_key"`
	ClientID string `json:"google_client_id"`
}
