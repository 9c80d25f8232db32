// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voice_assistant_client"

// Metrics holds all Prometheus metrics for the client.
type Metrics struct {
	// Turn metrics
	TurnsTotal   *prometheus.CounterVec
	TurnsFailed  *prometheus.CounterVec
	TurnDuration *prometheus.HistogramVec
	StepLatency  *prometheus.HistogramVec

	// Channel metrics
	ChannelConnects      prometheus.Counter
	ChannelReconnects    prometheus.Counter
	ChannelOpen          prometheus.Gauge
	ChannelEventsTotal   *prometheus.CounterVec
	ChannelEventsDropped prometheus.Counter

	// Ingestion metrics
	UploadsTotal     prometheus.Counter
	UploadErrors     prometheus.Counter
	UploadFiles      prometheus.Counter
	UploadBytes      prometheus.Counter
	FilesRejected    prometheus.Counter
	FileDeletesTotal prometheus.Counter
	FileDeleteErrors prometheus.Counter
	DriveFetchErrors prometheus.Counter

	// Playback metrics
	PlaybackTotal  prometheus.Counter
	PlaybackErrors prometheus.Counter

	// Event publish metrics
	PublishTotal   *prometheus.CounterVec
	PublishErrors  *prometheus.CounterVec
	PublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of conversation turns started",
		}, []string{"transport", "input"}),
		TurnsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_failed_total",
			Help:      "Total number of conversation turns that failed",
		}, []string{"transport", "reason"}),
		TurnDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Duration of conversation turns in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"transport"}),
		StepLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_step_latency_seconds",
			Help:      "Latency of individual pipeline steps in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"step"}),

		ChannelConnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_connects_total",
			Help:      "Total number of WebSocket connection attempts",
		}),
		ChannelReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_reconnects_total",
			Help:      "Total number of WebSocket reconnect attempts after a close",
		}),
		ChannelOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channel_open",
			Help:      "1 when the WebSocket channel is open, 0 otherwise",
		}),
		ChannelEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_events_total",
			Help:      "Total number of inbound channel events by kind",
		}, []string{"kind"}),
		ChannelEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_events_dropped_total",
			Help:      "Total number of inbound channel events with an unknown kind",
		}),

		UploadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of upload batches sent",
		}),
		UploadErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_errors_total",
			Help:      "Total number of upload batches that failed",
		}),
		UploadFiles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_files_total",
			Help:      "Total number of files uploaded",
		}),
		UploadBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Total file bytes uploaded",
		}),
		FilesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_rejected_total",
			Help:      "Total number of files rejected by MIME type validation",
		}),
		FileDeletesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_deletes_total",
			Help:      "Total number of file delete requests",
		}),
		FileDeleteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_delete_errors_total",
			Help:      "Total number of failed file delete requests",
		}),
		DriveFetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drive_fetch_errors_total",
			Help:      "Total number of failed drive content fetches",
		}),

		PlaybackTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_total",
			Help:      "Total number of audio playbacks started",
		}),
		PlaybackErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_errors_total",
			Help:      "Total number of audio playback errors",
		}),

		PublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Total number of transcript events published",
		}, []string{"topic", "role"}),
		PublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total number of transcript event publish errors",
		}, []string{"topic", "role"}),
		PublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_latency_seconds",
			Help:      "Transcript event publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordTurnStart records a conversation turn starting.
func (m *Metrics) RecordTurnStart(transport, input string) {
	m.TurnsTotal.WithLabelValues(transport, input).Inc()
}

// RecordTurnFailed records a turn failing with a reason.
func (m *Metrics) RecordTurnFailed(transport, reason string) {
	m.TurnsFailed.WithLabelValues(transport, reason).Inc()
}

// RecordTurnDuration records a completed turn's duration.
func (m *Metrics) RecordTurnDuration(transport string, seconds float64) {
	m.TurnDuration.WithLabelValues(transport).Observe(seconds)
}

// RecordStep records the latency of one pipeline step.
func (m *Metrics) RecordStep(step string, seconds float64) {
	m.StepLatency.WithLabelValues(step).Observe(seconds)
}

// RecordChannelOpen records the channel transitioning to open.
func (m *Metrics) RecordChannelOpen() {
	m.ChannelConnects.Inc()
	m.ChannelOpen.Set(1)
}

// RecordChannelClosed records the channel transitioning to closed.
func (m *Metrics) RecordChannelClosed() {
	m.ChannelOpen.Set(0)
}

// RecordChannelEvent records an inbound channel event by kind.
func (m *Metrics) RecordChannelEvent(kind string) {
	m.ChannelEventsTotal.WithLabelValues(kind).Inc()
}

// RecordUpload records an upload batch attempt.
func (m *Metrics) RecordUpload(files int, bytes int64, err error) {
	m.UploadsTotal.Inc()
	if err != nil {
		m.UploadErrors.Inc()
		return
	}
	m.UploadFiles.Add(float64(files))
	m.UploadBytes.Add(float64(bytes))
}

// RecordPublish records a transcript event publish attempt.
func (m *Metrics) RecordPublish(topic, role string, err error, latencySeconds float64) {
	m.PublishTotal.WithLabelValues(topic, role).Inc()
	m.PublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.PublishErrors.WithLabelValues(topic, role).Inc()
	}
}
