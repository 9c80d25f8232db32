package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"voice-assistant-client/internal/models"
	"voice-assistant-client/internal/observability/logging"
	"voice-assistant-client/internal/observability/metrics"
)

// State is the channel connection state.
type State int

const (
	// StateClosed - no connection; a retry may be pending.
	StateClosed State = iota
	// StateConnecting - a dial is in flight.
	StateConnecting
	// StateOpen - connected, turns can be sent.
	StateOpen
	// StateShutdown - terminal; the owning process is tearing down.
	StateShutdown
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateShutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// outboundEnvelope is the wire shape of a turn sent over the channel.
// The full history rides along with every message because the backend is
// stateless between calls except for file-derived context.
type outboundEnvelope struct {
	Type                string           `json:"type"`
	AudioData           string           `json:"audio_data,omitempty"`
	Message             string           `json:"message,omitempty"`
	ConversationHistory []models.Message `json:"conversation_history"`
	SessionID           string           `json:"session_id"`
}

// inboundEvent is the wire shape of a backend event.
type inboundEvent struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	AudioData string `json:"audio_data"`
	Error     string `json:"error"`
}

// Channel is the persistent WebSocket transport. It is process-wide
// singleton state: one live connection at a time, with an auto-reconnect
// loop that arms at most one pending retry after a close.
//
// Channel-level failures never surface as errors to turn callers beyond
// ErrChannelUnavailable; they degrade to the REST fallback.
type Channel struct {
	url        string
	sink       Sink
	retryDelay time.Duration
	dialer     *websocket.Dialer
	log        zerolog.Logger
	metrics    *metrics.Metrics

	mu           sync.Mutex
	conn         *websocket.Conn
	state        State
	retryPending bool
	done         chan struct{}

	writeMu sync.Mutex
}

// NewChannel creates a channel transport for the given WebSocket URL.
// Events are dispatched to sink from the read loop goroutine.
func NewChannel(url string, sink Sink, retryDelay time.Duration) *Channel {
	return &Channel{
		url:        url,
		sink:       sink,
		retryDelay: retryDelay,
		dialer:     websocket.DefaultDialer,
		log:        logging.WithComponent("transport.channel"),
		metrics:    metrics.DefaultMetrics,
		state:      StateClosed,
		done:       make(chan struct{}),
	}
}

// Mode identifies this transport in logs and metrics.
func (c *Channel) Mode() string { return "channel" }

// Connect starts the connection loop in the background. Call once; the
// channel reconnects itself after failures until Close.
func (c *Channel) Connect() {
	go c.connect()
}

func (c *Channel) connect() {
	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, resp, err := c.dialer.Dial(c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.log.Warn().Err(err).Str("url", c.url).Msg("Channel dial failed")
		c.mu.Lock()
		if c.state == StateConnecting {
			c.state = StateClosed
		}
		c.mu.Unlock()
		c.scheduleReconnect()
		return
	}

	c.mu.Lock()
	if c.state == StateShutdown {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.state = StateOpen
	c.mu.Unlock()

	c.metrics.RecordChannelOpen()
	c.log.Info().Str("url", c.url).Msg("Channel connection established")

	c.readLoop(conn)
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.log.Debug().Err(err).Msg("Channel read ended")
			break
		}
		c.dispatch(data)
	}
	conn.Close()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	shutdown := c.state == StateShutdown
	if !shutdown {
		c.state = StateClosed
	}
	c.mu.Unlock()

	c.metrics.RecordChannelClosed()
	if !shutdown {
		c.log.Info().Dur("retryIn", c.retryDelay).Msg("Channel closed, reconnect pending")
		c.scheduleReconnect()
	}
}

// scheduleReconnect arms at most one pending reconnect attempt. Duplicate
// parallel channels must never be spawned.
func (c *Channel) scheduleReconnect() {
	c.mu.Lock()
	if c.retryPending || c.state == StateShutdown {
		c.mu.Unlock()
		return
	}
	c.retryPending = true
	c.mu.Unlock()

	go func() {
		select {
		case <-time.After(c.retryDelay):
		case <-c.done:
			return
		}
		c.mu.Lock()
		c.retryPending = false
		c.mu.Unlock()
		c.metrics.ChannelReconnects.Inc()
		c.connect()
	}()
}

// dispatch maps one inbound event to exactly one sink callback. Unknown
// kinds are counted, logged, and dropped; they are never fatal.
func (c *Channel) dispatch(data []byte) {
	var ev inboundEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		c.log.Warn().Err(err).Msg("Unparseable channel message dropped")
		c.metrics.ChannelEventsDropped.Inc()
		return
	}
	c.metrics.RecordChannelEvent(ev.Type)

	switch ev.Type {
	case KindTranscription:
		c.sink.OnTranscription(ev.Text)
	case KindLLMResponse:
		c.sink.OnResponse(ev.Text)
	case KindTTS:
		audio, err := base64.StdEncoding.DecodeString(ev.AudioData)
		if err != nil {
			c.log.Warn().Err(err).Msg("Undecodable tts payload dropped")
			return
		}
		c.sink.OnSpeech(audio)
	case KindError:
		c.log.Error().Str("error", ev.Error).Msg("Server error event")
		c.sink.OnError(ev.Error)
	default:
		c.log.Warn().Str("kind", ev.Type).Msg("Unknown channel event kind dropped")
		c.metrics.ChannelEventsDropped.Inc()
	}
}

// Ready reports whether the channel can carry a turn right now. Callers
// check this at send time to select the transport.
func (c *Channel) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateOpen && c.conn != nil
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SendTurn writes one turn envelope to the open channel. The backend
// answers with transcription, llm_response and tts events in order; this
// side trusts that order but does not enforce it.
func (c *Channel) SendTurn(ctx context.Context, in TurnInput) error {
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateOpen
	c.mu.Unlock()
	if !open || conn == nil {
		return ErrChannelUnavailable
	}

	env := outboundEnvelope{
		ConversationHistory: in.History,
		SessionID:           in.SessionID,
	}
	if in.IsAudio() {
		env.Type = "audio"
		env.AudioData = in.AudioBase64
	} else {
		env.Type = "text"
		env.Message = in.Text
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(env); err != nil {
		return ErrChannelUnavailable
	}
	return nil
}

// Close tears the channel down permanently. No further reconnects are
// attempted.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.state == StateShutdown {
		c.mu.Unlock()
		return nil
	}
	c.state = StateShutdown
	conn := c.conn
	c.conn = nil
	close(c.done)
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}
