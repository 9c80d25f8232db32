package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != "http://localhost:8000" {
		t.Errorf("expected default server URL, got %s", cfg.ServerURL)
	}
	if cfg.ReconnectDelay != 3*time.Second {
		t.Errorf("expected 3s reconnect delay, got %v", cfg.ReconnectDelay)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("server_url: http://backend:9000\nreconnect_delay: 5s\nkafka:\n  enabled: true\n  brokers: [\"k1:9092\"]\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != "http://backend:9000" {
		t.Errorf("expected file server URL, got %s", cfg.ServerURL)
	}
	if cfg.ReconnectDelay != 5*time.Second {
		t.Errorf("expected 5s reconnect delay, got %v", cfg.ReconnectDelay)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 1 {
		t.Errorf("expected kafka enabled with one broker, got %+v", cfg.Kafka)
	}
	// Unset fields keep their defaults.
	if cfg.WSPath != "/ws" {
		t.Errorf("expected default ws path, got %s", cfg.WSPath)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server_url: http://file:9000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VOICE_SERVER_URL", "http://env:9000")
	t.Setenv("VOICE_RECONNECT_DELAY", "500ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != "http://env:9000" {
		t.Errorf("expected env to win over file, got %s", cfg.ServerURL)
	}
	if cfg.ReconnectDelay != 500*time.Millisecond {
		t.Errorf("expected 500ms reconnect delay, got %v", cfg.ReconnectDelay)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestWSURL(t *testing.T) {
	tests := []struct {
		server string
		path   string
		want   string
	}{
		{"http://localhost:8000", "/ws", "ws://localhost:8000/ws"},
		{"https://voice.example.com", "/ws", "wss://voice.example.com/ws"},
		{"http://localhost:8000/", "/ws", "ws://localhost:8000/ws"},
	}
	for _, tt := range tests {
		cfg := &Config{ServerURL: tt.server, WSPath: tt.path}
		if got := cfg.WSURL(); got != tt.want {
			t.Errorf("WSURL(%s) = %s, want %s", tt.server, got, tt.want)
		}
	}
}
