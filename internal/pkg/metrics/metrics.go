package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "villago",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "villago",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "villago",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Routing-engine metrics
	PlanRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "villago",
		Subsystem: "routing",
		Name:      "plan_requests_total",
		Help:      "Journey-plan requests by outcome",
	}, []string{"outcome"}) // success | no_route | transient_failure

	PlanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "villago",
		Subsystem: "routing",
		Name:      "plan_duration_seconds",
		Help:      "Duration of journey-plan requests against the routing engine",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	PlanCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "villago",
		Subsystem: "routing",
		Name:      "plan_cache_hits_total",
		Help:      "Journey-plan responses served from cache",
	})

	PlanCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "villago",
		Subsystem: "routing",
		Name:      "plan_cache_misses_total",
		Help:      "Journey-plan requests that missed the cache",
	})

	// Demand-ledger metrics
	DemandRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "villago",
		Subsystem: "demand",
		Name:      "records_total",
		Help:      "Demand records accepted, by village",
	}, []string{"village"})

	DemandStoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "villago",
		Subsystem: "demand",
		Name:      "store_failures_total",
		Help:      "Demand-ledger persistence failures",
	})

	// Session metrics
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "villago",
		Subsystem: "session",
		Name:      "active",
		Help:      "Journey sessions currently held in memory",
	})

	StaleFetchesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "villago",
		Subsystem: "session",
		Name:      "stale_fetches_discarded_total",
		Help:      "Route-fetch results dropped because a newer selection superseded them",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "villago",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
