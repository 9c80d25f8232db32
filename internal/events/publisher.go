// Package events publishes conversation transcript events.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"voice-assistant-client/internal/models"
	"voice-assistant-client/internal/observability/metrics"
)

// Publisher publishes turn transcripts to separate Kafka topics for the
// user and assistant halves of a conversation. When Kafka is disabled it
// degrades to log-only mode; publishing never blocks a turn.
type Publisher struct {
	writerUser      *kafka.Writer
	writerAssistant *kafka.Writer
	principal       string
	topicUser       string
	topicAssistant  string
	enabled         bool
	metrics         *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers        []string
	TopicUser      string
	TopicAssistant string
	Principal      string
	Enabled        bool
}

// New creates a Kafka transcript publisher with separate topics for user
// and assistant messages.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:      cfg.Principal,
			topicUser:      cfg.TopicUser,
			topicAssistant: cfg.TopicAssistant,
			enabled:        false,
			metrics:        m,
		}
	}

	// Custom dialer with longer timeouts for DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerUser := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicUser,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerAssistant := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicAssistant,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicUser", cfg.TopicUser).
		Str("topicAssistant", cfg.TopicAssistant).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerUser:      writerUser,
		writerAssistant: writerAssistant,
		principal:       cfg.Principal,
		topicUser:       cfg.TopicUser,
		topicAssistant:  cfg.TopicAssistant,
		enabled:         true,
		metrics:         m,
	}
}

// PublishUser publishes one user message, keyed by session id.
func (p *Publisher) PublishUser(ctx context.Context, sessionID, text string) error {
	ev := models.TurnTranscript{
		EventType: "conversation.turn.user",
		SessionID: sessionID,
		Role:      models.RoleUser,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
	return p.publish(ctx, p.writerUser, p.topicUser, sessionID, ev)
}

// PublishAssistant publishes one assistant reply, keyed by session id.
func (p *Publisher) PublishAssistant(ctx context.Context, sessionID, text string) error {
	ev := models.TurnTranscript{
		EventType: "conversation.turn.assistant",
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
	return p.publish(ctx, p.writerAssistant, p.topicAssistant, sessionID, ev)
}

// publish writes one event to the given writer, or just logs it when
// Kafka is disabled.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, key string, event models.TurnTranscript) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordPublish(topic, string(event.Role), nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(event.EventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordPublish(topic, string(event.Role), err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordPublish(topic, string(event.Role), nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerUser != nil {
		if e := p.writerUser.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing user writer")
			err = e
		}
	}
	if p.writerAssistant != nil {
		if e := p.writerAssistant.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing assistant writer")
			err = e
		}
	}
	return err
}
