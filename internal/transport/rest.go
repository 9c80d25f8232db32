package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voice-assistant-client/internal/observability/logging"
	"voice-assistant-client/internal/observability/metrics"
)

// Rest is the stateless fallback transport. One turn becomes three
// sequential backend calls: transcribe, respond, synthesize. It also
// carries the non-turn endpoints (upload, delete, config, status) that
// have no channel equivalent.
type Rest struct {
	baseURL string
	client  *http.Client
	sink    Sink
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewRest creates the REST transport against the given backend base URL.
func NewRest(baseURL string, sink Sink) *Rest {
	return &Rest{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		sink:    sink,
		log:     logging.WithComponent("transport.rest"),
		metrics: metrics.DefaultMetrics,
	}
}

// Mode identifies this transport in logs and metrics.
func (r *Rest) Mode() string { return "rest" }

// SendTurn runs the three-step fallback pipeline. Each step is awaited
// before the next begins; a step failure is terminal for the turn and is
// returned as a *StepError. Sink callbacks fire after each successful
// step, so a synthesize failure still leaves the assistant text delivered.
func (r *Rest) SendTurn(ctx context.Context, in TurnInput) error {
	text := in.Text
	if in.IsAudio() {
		start := time.Now()
		transcribed, err := r.Transcribe(ctx, in.AudioBase64)
		r.metrics.RecordStep(string(StepTranscribe), time.Since(start).Seconds())
		if err != nil {
			return &StepError{Step: StepTranscribe, Err: err}
		}
		r.sink.OnTranscription(transcribed)
		text = transcribed
	}

	start := time.Now()
	reply, err := r.Respond(ctx, text, in.SessionID)
	r.metrics.RecordStep(string(StepRespond), time.Since(start).Seconds())
	if err != nil {
		return &StepError{Step: StepRespond, Err: err}
	}
	r.sink.OnResponse(reply)

	start = time.Now()
	audio, err := r.Synthesize(ctx, reply)
	r.metrics.RecordStep(string(StepSynthesize), time.Since(start).Seconds())
	if err != nil {
		return &StepError{Step: StepSynthesize, Err: err}
	}
	r.sink.OnSpeech(audio)

	r.log.Debug().Int("audioBytes", len(audio)).Msg("Fallback turn completed")
	return nil
}

// Transcribe submits encoded audio and returns the recognized text.
func (r *Rest) Transcribe(ctx context.Context, audioBase64 string) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	req := map[string]string{"audio_data": audioBase64}
	if err := r.postJSON(ctx, "/api/transcribe", req, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// Respond submits the user text plus session id and returns the assistant
// reply. The backend resolves file-derived context from the session id.
func (r *Rest) Respond(ctx context.Context, message, sessionID string) (string, error) {
	var out struct {
		Response string `json:"response"`
	}
	req := map[string]string{"message": message, "session_id": sessionID}
	if err := r.postJSON(ctx, "/api/llm", req, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// Synthesize submits assistant text and returns the synthesized audio.
// The response body is a binary stream, not a JSON envelope.
func (r *Rest) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/tts/stream", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrCreditsExhausted
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("tts request failed: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Upload sends one multipart batch carrying the session id and all
// accepted files. Visibility is atomic per batch: the caller shows
// entries only after this returns nil.
func (r *Rest) Upload(ctx context.Context, sessionID string, files []UploadFile) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("session_id", sessionID); err != nil {
		return err
	}
	var total int64
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.Name)
		if err != nil {
			return err
		}
		if _, err := part.Write(f.Content); err != nil {
			return err
		}
		total += int64(len(f.Content))
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/upload", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		r.metrics.RecordUpload(len(files), total, err)
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		err := fmt.Errorf("file upload failed: %s", resp.Status)
		r.metrics.RecordUpload(len(files), total, err)
		return err
	}
	r.metrics.RecordUpload(len(files), total, nil)
	return nil
}

// DeleteFile removes one uploaded file from the session's knowledge
// context. Fire-and-forget semantics: callers do not retry.
func (r *Rest) DeleteFile(ctx context.Context, filename, fileHash, sessionID string) error {
	q := url.Values{}
	q.Set("filename", filename)
	q.Set("file_hash", fileHash)
	q.Set("session_id", sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.baseURL+"/api/delete-file?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	r.metrics.FileDeletesTotal.Inc()
	if err != nil {
		r.metrics.FileDeleteErrors.Inc()
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		r.metrics.FileDeleteErrors.Inc()
		return fmt.Errorf("delete failed: %s", resp.Status)
	}
	return nil
}

// FetchConfig retrieves the drive developer credentials from the backend.
func (r *Rest) FetchConfig(ctx context.Context) (DriveConfig, error) {
	var cfg DriveConfig
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/config", nil)
	if err != nil {
		return cfg, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return cfg, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return cfg, fmt.Errorf("config request failed: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// CheckStatus probes one of the backend status endpoints
// (/api/status/assembly, /api/status/llm). Any 2xx means connected.
func (r *Rest) CheckStatus(ctx context.Context, service string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/status/"+service, nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (r *Rest) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrCreditsExhausted
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s failed: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
