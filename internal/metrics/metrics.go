// Package metrics holds the Prometheus metrics for the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. It satisfies the
// flow.Recorder interface.
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter
	SessionsClosed *prometheus.CounterVec

	// Download metrics
	DownloadsTotal   *prometheus.CounterVec
	DownloadDuration *prometheus.HistogramVec
	UploadsTotal     *prometheus.CounterVec

	// Telegram metrics
	TelegramMessagesSentTotal     prometheus.Counter
	TelegramMessagesReceivedTotal prometheus.Counter
	TelegramErrorsTotal           prometheus.Counter
}

// NewMetrics creates and registers all metrics on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sessions_active",
				Help: "Number of currently active sessions",
			},
		),
		SessionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_total",
				Help: "Total number of sessions created",
			},
		),
		SessionsClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessions_closed_total",
				Help: "Total number of sessions closed, by outcome",
			},
			[]string{"outcome"},
		),

		DownloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "downloads_total",
				Help: "Total number of artifact downloads, by kind and status",
			},
			[]string{"kind", "status"},
		),
		DownloadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "download_duration_seconds",
				Help:    "Duration of artifact downloads in seconds",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			},
			[]string{"kind"},
		),
		UploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uploads_total",
				Help: "Total number of artifact uploads, by status",
			},
			[]string{"status"},
		),

		TelegramMessagesSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telegram_messages_sent_total",
				Help: "Total number of Telegram messages sent",
			},
		),
		TelegramMessagesReceivedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telegram_messages_received_total",
				Help: "Total number of Telegram messages received",
			},
		),
		TelegramErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "telegram_errors_total",
				Help: "Total number of Telegram errors",
			},
		),
	}

	m.registerMetrics()

	return m
}

func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.SessionsActive)
	m.registry.MustRegister(m.SessionsTotal)
	m.registry.MustRegister(m.SessionsClosed)

	m.registry.MustRegister(m.DownloadsTotal)
	m.registry.MustRegister(m.DownloadDuration)
	m.registry.MustRegister(m.UploadsTotal)

	m.registry.MustRegister(m.TelegramMessagesSentTotal)
	m.registry.MustRegister(m.TelegramMessagesReceivedTotal)
	m.registry.MustRegister(m.TelegramErrorsTotal)
}

// SessionCreated implements flow.Recorder.
func (m *Metrics) SessionCreated() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// SessionClosed implements flow.Recorder.
func (m *Metrics) SessionClosed(outcome string) {
	m.SessionsClosed.WithLabelValues(outcome).Inc()
	m.SessionsActive.Dec()
}

// DownloadObserved implements flow.Recorder.
func (m *Metrics) DownloadObserved(kind, status string, seconds float64) {
	m.DownloadsTotal.WithLabelValues(kind, status).Inc()
	m.DownloadDuration.WithLabelValues(kind).Observe(seconds)
}

// UploadObserved implements flow.Recorder.
func (m *Metrics) UploadObserved(status string) {
	m.UploadsTotal.WithLabelValues(status).Inc()
}

// MessageSent implements telegram.Stats.
func (m *Metrics) MessageSent() {
	m.TelegramMessagesSentTotal.Inc()
}

// MessageReceived implements telegram.Stats.
func (m *Metrics) MessageReceived() {
	m.TelegramMessagesReceivedTotal.Inc()
}

// TransportError implements telegram.Stats.
func (m *Metrics) TransportError() {
	m.TelegramErrorsTotal.Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
