package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Room lifecycle metrics
	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chugli_rooms_created_total",
			Help: "Total rooms created",
		},
	)

	RoomsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chugli_rooms_deleted_total",
			Help: "Total rooms deleted",
		},
		[]string{"cause"}, // "creator" or "expired"
	)

	// Realtime metrics
	MessagesBroadcast = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chugli_messages_broadcast_total",
			Help: "Total chat messages broadcast to room members",
		},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chugli_events_dropped_total",
			Help: "Total outbound events dropped on full client buffers",
		},
	)

	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chugli_websocket_connections",
			Help: "Currently open websocket connections",
		},
	)

	// Account metrics
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chugli_users_registered_total",
			Help: "Total users registered",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chugli_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
