package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	liveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_live_connections",
		Help: "Websocket connections currently announced to the registry.",
	})
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_frames_total",
		Help: "Inbound live-channel frames by kind.",
	}, []string{"kind"})
	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_frames_dropped_total",
		Help: "Inbound frames dropped as malformed.",
	})
	pushesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_pushes_dropped_total",
		Help: "Best-effort pushes dropped because the peer was absent or slow.",
	})
)
