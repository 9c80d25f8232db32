// Package config loads client configuration from defaults, an optional
// YAML file, and the environment, in that precedence order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Kafka holds transcript event publisher configuration.
type Kafka struct {
	Enabled        bool     `yaml:"enabled"`
	Brokers        []string `yaml:"brokers"`
	TopicUser      string   `yaml:"topic_user"`
	TopicAssistant string   `yaml:"topic_assistant"`
	Principal      string   `yaml:"principal"`
}

// Config holds all client configuration.
type Config struct {
	// ServerURL is the base URL of the voice-AI backend, e.g. http://localhost:8000.
	ServerURL string `yaml:"server_url"`
	// WSPath is the WebSocket endpoint path on the backend.
	WSPath string `yaml:"ws_path"`
	// ReconnectDelay is the fixed delay before a channel reconnect attempt.
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`

	// RecordCommand captures microphone audio; it must write WAV to stdout
	// until interrupted.
	RecordCommand []string `yaml:"record_command"`
	// PlayCommand plays audio read from stdin. Empty disables playback.
	PlayCommand []string `yaml:"play_command"`

	// StatePath is the SQLite file for durable client state.
	StatePath string `yaml:"state_path"`
	// MetricsAddr is the listen address for the metrics/health server.
	// Empty disables the server.
	MetricsAddr string `yaml:"metrics_addr"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Kafka Kafka `yaml:"kafka"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerURL:      "http://localhost:8000",
		WSPath:         "/ws",
		ReconnectDelay: 3 * time.Second,
		RecordCommand:  []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "wav"},
		PlayCommand:    []string{"aplay", "-q"},
		StatePath:      defaultStatePath(),
		MetricsAddr:    "",
		LogLevel:       "info",
		LogFormat:      "console",
		Kafka: Kafka{
			Enabled:        false,
			TopicUser:      "conversation.transcript.user",
			TopicAssistant: "conversation.transcript.assistant",
			Principal:      "voice-assistant-client",
		},
	}
}

// Load builds the configuration. A .env file is applied to the environment
// first, then the YAML file at path (if any), then environment variables.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.ReconnectDelay <= 0 {
		return nil, fmt.Errorf("reconnect_delay must be positive, got %v", cfg.ReconnectDelay)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ServerURL = envOrDefault("VOICE_SERVER_URL", c.ServerURL)
	c.WSPath = envOrDefault("VOICE_WS_PATH", c.WSPath)
	if v := os.Getenv("VOICE_RECONNECT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ReconnectDelay = d
		}
	}
	if v := os.Getenv("VOICE_RECORD_COMMAND"); v != "" {
		c.RecordCommand = strings.Fields(v)
	}
	if v := os.Getenv("VOICE_PLAY_COMMAND"); v != "" {
		c.PlayCommand = strings.Fields(v)
	}
	c.StatePath = envOrDefault("VOICE_STATE_PATH", c.StatePath)
	c.MetricsAddr = envOrDefault("VOICE_METRICS_ADDR", c.MetricsAddr)
	c.LogLevel = envOrDefault("VOICE_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOrDefault("VOICE_LOG_FORMAT", c.LogFormat)

	if v := os.Getenv("VOICE_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("VOICE_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	c.Kafka.TopicUser = envOrDefault("VOICE_KAFKA_TOPIC_USER", c.Kafka.TopicUser)
	c.Kafka.TopicAssistant = envOrDefault("VOICE_KAFKA_TOPIC_ASSISTANT", c.Kafka.TopicAssistant)
	c.Kafka.Principal = envOrDefault("VOICE_KAFKA_PRINCIPAL", c.Kafka.Principal)
}

// WSURL derives the WebSocket URL from the server base URL.
func (c *Config) WSURL() string {
	u := c.ServerURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return strings.TrimSuffix(u, "/") + c.WSPath
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "voice-assistant.db"
	}
	return home + "/.voice-assistant/state.db"
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
