// Package metrics exposes Prometheus instrumentation for voice sessions and uploads.
package metrics

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mohami"

type Metrics struct {
	SessionsStarted  *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
	StateTransitions *prometheus.CounterVec
	Interruptions    prometheus.Counter
	ChunksScheduled  prometheus.Counter
	ChunksPlayed     prometheus.Counter
	AudioSeconds     prometheus.Counter
	Messages         *prometheus.CounterVec
	SessionErrors    prometheus.Counter

	Uploads       *prometheus.CounterVec
	ExtractedSize *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. A nil reg uses a private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		SessionsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_sessions_started_total",
			Help:      "Voice sessions that reached CONNECTED",
		}, []string{"subject"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "voice_sessions_active",
			Help:      "Voice sessions currently connected",
		}),
		StateTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_state_transitions_total",
			Help:      "Session state machine transitions by target state",
		}, []string{"state"}),
		Interruptions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_interruptions_total",
			Help:      "Model turns interrupted by the user",
		}),
		ChunksScheduled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_chunks_scheduled_total",
			Help:      "Audio chunks scheduled for playback",
		}),
		ChunksPlayed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_chunks_played_total",
			Help:      "Audio chunks that played to the end without interruption",
		}),
		AudioSeconds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_audio_seconds_total",
			Help:      "Seconds of model audio scheduled for playback",
		}),
		Messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Finalized chat messages by role",
		}, []string{"role"}),
		SessionErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_session_errors_total",
			Help:      "User-visible session errors",
		}),
		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_uploads_total",
			Help:      "Resource additions by type and outcome",
		}, []string{"type", "outcome"}),
		ExtractedSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resource_extracted_bytes",
			Help:      "Size of extracted document text",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"type"}),
		gatherer: reg,
	}
}

// RecordUpload is safe on a nil receiver so handlers can run uninstrumented.
func (m *Metrics) RecordUpload(kind, outcome string, extractedBytes int) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(kind, outcome).Inc()
	if extractedBytes > 0 {
		m.ExtractedSize.WithLabelValues(kind).Observe(float64(extractedBytes))
	}
}

func (m *Metrics) ObserveState(state string) {
	if m == nil {
		return
	}
	m.StateTransitions.WithLabelValues(state).Inc()
}

func (m *Metrics) SessionStarted(subject string) {
	if m == nil {
		return
	}
	m.SessionsStarted.WithLabelValues(subject).Inc()
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

func (m *Metrics) ObserveInterruption() {
	if m == nil {
		return
	}
	m.Interruptions.Inc()
}

func (m *Metrics) ObserveMessage(role string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(role).Inc()
}

func (m *Metrics) ObserveSessionError() {
	if m == nil {
		return
	}
	m.SessionErrors.Inc()
}

func (m *Metrics) ObserveChunk(seconds float64) {
	if m == nil {
		return
	}
	m.ChunksScheduled.Inc()
	m.AudioSeconds.Add(seconds)
}

func (m *Metrics) ObserveChunkPlayed() {
	if m == nil {
		return
	}
	m.ChunksPlayed.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) RegisterRoutes(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
}
