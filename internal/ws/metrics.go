package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatster_ws_active_connections",
		Help: "Number of live, authenticated websocket connections.",
	})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatster_ws_events_total",
		Help: "Inbound realtime events by type.",
	}, []string{"type"})

	broadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatster_ws_broadcasts_total",
		Help: "Messages fanned out to room subscribers.",
	})
)
