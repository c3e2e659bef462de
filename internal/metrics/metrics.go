package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walk_http_requests_total",
			Help: "Number of HTTP requests by route and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "walk_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	WalksCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "walk_sessions_completed_total",
			Help: "Number of completed walk sessions",
		},
	)

	CoinsCredited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walk_coins_credited_total",
			Help: "Coins credited to balances by transaction type",
		},
		[]string{"type"},
	)

	CoinsDebited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walk_coins_debited_total",
			Help: "Coins debited from balances by transaction type",
		},
		[]string{"type"},
	)

	PurchasesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walk_purchases_rejected_total",
			Help: "Purchases rejected by kind and reason",
		},
		[]string{"kind", "reason"},
	)

	LedgerEventFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "walk_ledger_event_publish_failures_total",
			Help: "Ledger events that could not be published",
		},
	)

	WebsocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "walk_websocket_connections",
			Help: "Open ledger event websocket connections",
		},
	)
)

func Register() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPRequestDuration,
		WalksCompleted,
		CoinsCredited,
		CoinsDebited,
		PurchasesRejected,
		LedgerEventFailures,
		WebsocketConnections,
	)
}
