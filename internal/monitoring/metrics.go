package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PollCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blockspy_poll_cycles_total",
		Help: "Total number of completed poll cycles",
	})

	ProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockspy_probes_total",
		Help: "Total number of server probes by outcome",
	}, []string{"outcome"})

	ProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blockspy_probe_duration_seconds",
		Help:    "Duration of individual server probes",
		Buckets: prometheus.DefBuckets,
	})

	EventsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockspy_events_emitted_total",
		Help: "Total number of detected events by type",
	}, []string{"type"})

	ServersOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blockspy_servers_online",
		Help: "Number of monitored servers currently online",
	})

	ServersPaused = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blockspy_servers_paused",
		Help: "Number of monitored servers currently paused",
	})

	PlayersOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blockspy_players_online",
		Help: "Total player count across all online servers",
	})

	ConsoleSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blockspy_console_sessions_active",
		Help: "Number of active websocket console sessions",
	})
)
