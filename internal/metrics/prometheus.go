package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PollCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_poll_cycles_total",
			Help: "Poll cycles by outcome (ok, degraded, failed)",
		},
		[]string{"status"},
	)

	PollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dashboard_poll_duration_seconds",
			Help:    "Duration of a full poll cycle in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	PollHalfStale = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_poll_half_stale_total",
			Help: "Poll halves left stale after a failed read",
		},
		[]string{"half"},
	)

	PollCyclesDiscarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_poll_cycles_discarded_total",
			Help: "Cycle halves discarded by the latest-wins ordering guard",
		},
	)

	ActionsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_actions_dispatched_total",
			Help: "User actions forwarded upstream",
		},
		[]string{"action", "status"},
	)

	ChatMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_chat_messages_total",
			Help: "Transcript entries appended",
		},
		[]string{"role"},
	)

	WebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_websocket_clients",
			Help: "Connected dashboard websocket clients",
		},
	)
)

func Init() {
	prometheus.MustRegister(PollCycles)
	prometheus.MustRegister(PollDuration)
	prometheus.MustRegister(PollHalfStale)
	prometheus.MustRegister(PollCyclesDiscarded)
	prometheus.MustRegister(ActionsDispatched)
	prometheus.MustRegister(ChatMessages)
	prometheus.MustRegister(WebSocketClients)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
