// Package app wires the client together: configuration, logging, the
// turn pipeline, both transports, audio, ingestion and durable state.
package app

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"voice-assistant-client/internal/audio"
	"voice-assistant-client/internal/config"
	"voice-assistant-client/internal/events"
	"voice-assistant-client/internal/ingest"
	"voice-assistant-client/internal/observability"
	"voice-assistant-client/internal/observability/logging"
	"voice-assistant-client/internal/pipeline"
	"voice-assistant-client/internal/session"
	"voice-assistant-client/internal/store"
	"voice-assistant-client/internal/transport"
	"voice-assistant-client/internal/ui"
)

// Application holds process-wide state for the client.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Session   *session.Session
	Store     *store.Store
	Publisher *events.Publisher
	Runner    *pipeline.Runner
	Rest      *transport.Rest
	Channel   *transport.Channel
	Recorder  *audio.Recorder
	Player    *audio.CommandPlayer
	Ingestor  *ingest.Ingestor
	Console   *ui.Console

	obs *observability.Server
}

// New constructs an Application from the provided configuration.
func New(cfg *config.Config) (*Application, error) {
	logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		TimeFormat: time.RFC3339,
	})

	a := &Application{
		Cfg:    cfg,
		Logger: logging.WithComponent("application"),
	}

	a.Session = session.New()
	a.Console = ui.NewConsole(os.Stdout)
	a.Player = audio.NewPlayer(cfg.PlayCommand)
	a.Recorder = audio.NewRecorder(cfg.RecordCommand)

	a.Runner = pipeline.NewRunner(a.Session, a.Player, a.Console)
	a.Rest = transport.NewRest(cfg.ServerURL, a.Runner)
	a.Runner.SetRest(a.Rest)
	a.Channel = transport.NewChannel(cfg.WSURL(), a.Runner, cfg.ReconnectDelay)
	a.Runner.SetChannel(a.Channel)

	st, err := store.Open(cfg.StatePath)
	if err != nil {
		return nil, err
	}
	a.Store = st
	a.Runner.SetArchiver(st)

	a.Publisher = events.New(&events.Config{
		Enabled:        cfg.Kafka.Enabled,
		Brokers:        cfg.Kafka.Brokers,
		TopicUser:      cfg.Kafka.TopicUser,
		TopicAssistant: cfg.Kafka.TopicAssistant,
		Principal:      cfg.Kafka.Principal,
	})
	a.Runner.SetPublisher(a.Publisher)

	a.Ingestor = ingest.New(a.Rest)

	if cfg.MetricsAddr != "" {
		a.obs = observability.NewServer(cfg.MetricsAddr)
	}

	a.Logger.Info().
		Str("server", cfg.ServerURL).
		Str("session", a.Session.ID()).
		Msg("Voice assistant client created")
	return a, nil
}

// Start begins background work: the observability server when
// configured. The channel is connected separately by commands that hold
// a conversation.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	if a.obs != nil {
		a.obs.Start()
	}
	a.Logger.Info().Time("startupTime", a.StartupTime).Msg("Voice assistant client starting")
	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("Voice assistant client shutting down")

	a.Channel.Close()
	a.Player.Stop()

	if err := a.Publisher.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Error closing publisher")
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Error closing state store")
	}
	if a.obs != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.obs.Shutdown(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Error shutting down observability server")
		}
	}
}
