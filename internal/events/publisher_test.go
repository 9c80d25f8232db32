package events

import (
	"context"
	"testing"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerUser != nil {
				t.Error("expected nil user writer when disabled")
			}
			if p.writerAssistant != nil {
				t.Error("expected nil assistant writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:        false,
		Brokers:        []string{"localhost:9092"},
		TopicUser:      "conversation.user",
		TopicAssistant: "conversation.assistant",
		Principal:      "voice-client",
	}

	p := New(cfg)

	if p.principal != "voice-client" {
		t.Errorf("expected principal 'voice-client', got %s", p.principal)
	}
	if p.topicUser != "conversation.user" {
		t.Errorf("expected user topic 'conversation.user', got %s", p.topicUser)
	}
	if p.topicAssistant != "conversation.assistant" {
		t.Errorf("expected assistant topic 'conversation.assistant', got %s", p.topicAssistant)
	}
}

func TestPublisher_PublishUser_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	err := p.PublishUser(context.Background(), "session_1_abc", "hello")
	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishAssistant_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	err := p.PublishAssistant(context.Background(), "session_1_abc", "hi there")
	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_Close_NilWriters(t *testing.T) {
	p := &Publisher{}

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing publisher with nil writers, got %v", err)
	}
}
