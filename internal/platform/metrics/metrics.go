package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the player service.
type Metrics struct {
	registry               *prometheus.Registry
	requestsTotal          prometheus.Counter
	errorsTotal            prometheus.Counter
	activeSessions         prometheus.Gauge
	sessionsReapedTotal    prometheus.Counter
	renditionSwitchesTotal *prometheus.CounterVec
	attachFailuresTotal    prometheus.Counter
	playbackBlockedTotal   prometheus.Counter
}

// New creates and registers Prometheus metrics for the player service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "player_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "player_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "player_active_sessions",
		Help: "Number of open player sessions",
	})
	sessionsReapedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "player_sessions_reaped_total",
		Help: "Total number of sessions closed for inactivity",
	})
	renditionSwitchesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "player_rendition_switches_total",
		Help: "Total number of rendition commands sent to stream engines",
	}, []string{"mode"})
	attachFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "player_stream_attach_failures_total",
		Help: "Total number of stream attachments that failed",
	})
	playbackBlockedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "player_playback_blocked_total",
		Help: "Total number of playback starts refused by the platform",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		activeSessions,
		sessionsReapedTotal,
		renditionSwitchesTotal,
		attachFailuresTotal,
		playbackBlockedTotal,
	)

	return &Metrics{
		registry:               registry,
		requestsTotal:          requestsTotal,
		errorsTotal:            errorsTotal,
		activeSessions:         activeSessions,
		sessionsReapedTotal:    sessionsReapedTotal,
		renditionSwitchesTotal: renditionSwitchesTotal,
		attachFailuresTotal:    attachFailuresTotal,
		playbackBlockedTotal:   playbackBlockedTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// AddSessionsReaped adds n to the reaped sessions counter.
func (m *Metrics) AddSessionsReaped(n int) {
	m.sessionsReapedTotal.Add(float64(n))
}

// IncRenditionSwitches counts a rendition command; auto distinguishes
// handing control back to the engine from pinning a rendition.
func (m *Metrics) IncRenditionSwitches(auto bool) {
	mode := "manual"
	if auto {
		mode = "auto"
	}
	m.renditionSwitchesTotal.WithLabelValues(mode).Inc()
}

// IncAttachFailures increments the stream attach failures counter.
func (m *Metrics) IncAttachFailures() {
	m.attachFailuresTotal.Inc()
}

// IncPlaybackBlocked increments the blocked playback counter.
func (m *Metrics) IncPlaybackBlocked() {
	m.playbackBlockedTotal.Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. active sessions).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
