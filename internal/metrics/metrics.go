package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "whiteboard_service"

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// WebSocket / room metrics
	ConnectionsActive prometheus.Gauge
	RoomsActive       prometheus.Gauge
	EventsTotal       *prometheus.CounterVec
	EventsDenied      *prometheus.CounterVec
	BroadcastFanout   prometheus.Histogram

	// Persistence / presence metrics
	PersistenceFailures *prometheus.CounterVec
	ParticipantsSwept   prometheus.Counter
}

// New creates and registers all metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers all metrics with a custom
// registry; tests pass their own to avoid duplicate registration.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "endpoint"},
		),
		ConnectionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections_active",
				Help:      "Current number of live WebSocket connections",
			},
		),
		RoomsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rooms_active",
				Help:      "Current number of board rooms held in memory",
			},
		),
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ws_events_total",
				Help:      "Total number of inbound WebSocket events by type",
			},
			[]string{"type"},
		),
		EventsDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ws_events_denied_total",
				Help:      "Inbound events dropped by the authorization guard",
			},
			[]string{"action"},
		),
		BroadcastFanout: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "broadcast_fanout_size",
				Help:      "Number of connections targeted per broadcast",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
			},
		),
		PersistenceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persistence_failures_total",
				Help:      "Fire-and-forget persistence calls that failed",
			},
			[]string{"op"},
		),
		ParticipantsSwept: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "participants_swept_total",
				Help:      "Participants evicted by the liveness sweep",
			},
		),
	}
}
