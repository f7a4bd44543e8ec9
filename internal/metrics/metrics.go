package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusconnect_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campusconnect_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Realtime channel metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campusconnect_ws_connections_active",
			Help: "Currently open websocket connections",
		},
	)

	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campusconnect_ws_connections_total",
			Help: "Total websocket connections accepted",
		},
	)

	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campusconnect_online_users",
			Help: "Users currently registered in the presence registry",
		},
	)

	MessagesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campusconnect_messages_stored_total",
			Help: "Messages durably appended to the store",
		},
	)

	MessageDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusconnect_message_deliveries_total",
			Help: "Realtime delivery attempts by outcome",
		},
		[]string{"outcome"}, // "delivered" or "offline"
	)

	MessageErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campusconnect_message_errors_total",
			Help: "message_error events pushed to senders",
		},
	)

	// Business metrics
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campusconnect_users_registered_total",
			Help: "Total signups",
		},
	)

	ListingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campusconnect_listings_created_total",
			Help: "Total listings created",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusconnect_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
