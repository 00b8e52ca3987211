package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LiveSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pedal_live_sessions_active",
		Help: "Live recording sessions currently connected",
	})
	LiveSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pedal_live_sessions_total",
		Help: "Live recording sessions by outcome",
	}, []string{"outcome"})
	FixesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pedal_fixes_received_total",
		Help: "Raw position fixes received over websockets",
	})
	FixesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pedal_fixes_rejected_total",
		Help: "Raw position fixes rejected as malformed or out of range",
	})
	Corrections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pedal_corrections_total",
		Help: "Map matching attempts by result",
	}, []string{"result"})
	RoutingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pedal_routing_latency_seconds",
		Help:    "Latency of routing engine calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)

const (
	OutcomeFinalized  = "finalized"
	OutcomeDiscarded  = "discarded"
	OutcomeAuthFailed = "auth_failed"
	OutcomeError      = "error"
)

func ObserveRouting(endpoint string, start time.Time) {
	RoutingLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// Handler exposes the default registry on a fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
