package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics exposed by the arena server's
// debug endpoint.
type Metrics struct {
	connectionsActive prometheus.Gauge
	connectionsTotal  *prometheus.CounterVec

	sessionsActive prometheus.Gauge
	loginAttempts  *prometheus.CounterVec

	messagesReceived *prometheus.CounterVec
	messagesDropped  *prometheus.CounterVec

	tickDuration *prometheus.HistogramVec
	ticksTotal   prometheus.Counter

	arenasStarted prometheus.Counter
	gamesStarted  prometheus.Counter
	gamesFinished prometheus.Counter

	serverStartTime prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics builds and registers the server's Prometheus metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "asciiarena_connections_active",
			Help: "Number of currently open reliable connections",
		}),
		connectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asciiarena_connections_total",
			Help: "Total reliable connections accepted, by outcome",
		}, []string{"outcome"}), // "accepted", "closed"

		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "asciiarena_sessions_active",
			Help: "Number of sessions currently held in the room",
		}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asciiarena_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}), // room.CreateOutcome.String()

		messagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asciiarena_messages_received_total",
			Help: "Client messages received by channel and tag",
		}, []string{"channel", "tag"}),
		messagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asciiarena_messages_dropped_total",
			Help: "Client messages dropped before handling, by reason",
		}, []string{"reason"}), // "rate_limited", "no_session", "wrong_channel"

		tickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "asciiarena_tick_duration_seconds",
			Help:    "Wall-clock time spent advancing one arena tick",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}, []string{"arena"}),
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asciiarena_ticks_total",
			Help: "Total arena ticks processed",
		}),

		arenasStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asciiarena_arenas_started_total",
			Help: "Total arenas started across all games",
		}),
		gamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asciiarena_games_started_total",
			Help: "Total games started",
		}),
		gamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asciiarena_games_finished_total",
			Help: "Total games finished",
		}),

		serverStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "asciiarena_server_start_time_seconds",
			Help: "Unix timestamp of server start",
		}),

		registry: registry,
	}

	registry.MustRegister(
		m.connectionsActive, m.connectionsTotal,
		m.sessionsActive, m.loginAttempts,
		m.messagesReceived, m.messagesDropped,
		m.tickDuration, m.ticksTotal,
		m.arenasStarted, m.gamesStarted, m.gamesFinished,
		m.serverStartTime,
	)

	return m
}

// Registry returns the Prometheus registry backing these metrics, for
// wiring into an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeTick(arena string, d time.Duration) {
	m.tickDuration.WithLabelValues(arena).Observe(d.Seconds())
	m.ticksTotal.Inc()
}
