// Package metrics exposes Prometheus metrics for ranking runs and the REST
// surface from a collector that owns its registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/contactkeval/bs-pricer/internal/pricing"
)

const namespace = "bspricer"

// Collector implements rank.Observer and scan.Observer.
type Collector struct {
	registry     *prometheus.Registry
	quotesTotal  *prometheus.CounterVec
	ivIterations *prometheus.HistogramVec
	scanDuration prometheus.Histogram
	requestTotal *prometheus.CounterVec
}

// NewCollector constructs a collector with its own registry.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	quotesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rank",
		Name:      "quotes_total",
		Help:      "Option quotes evaluated, by ranking outcome.",
	}, []string{"outcome"})

	ivIterations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "iv_iterations",
		Help:      "Bisection steps per implied volatility solve.",
		Buckets:   prometheus.LinearBuckets(0, 6, 11),
	}, []string{"outcome"})

	scanDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_duration_seconds",
		Help:      "Wall time of a ranking run.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	for _, c := range []prometheus.Collector{quotesTotal, ivIterations, scanDuration, requestTotal} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:     registry,
		quotesTotal:  quotesTotal,
		ivIterations: ivIterations,
		scanDuration: scanDuration,
		requestTotal: requestTotal,
	}, nil
}

func (c *Collector) QuoteEvaluated(outcome string) {
	c.quotesTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) IVSolved(outcome pricing.IVOutcome, iterations int) {
	c.ivIterations.WithLabelValues(outcome.String()).Observe(float64(iterations))
}

func (c *Collector) ScanCompleted(d time.Duration) {
	c.scanDuration.Observe(d.Seconds())
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests by route template and status.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()
		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		c.requestTotal.WithLabelValues(ctx.Request.Method, path, strconv.Itoa(ctx.Writer.Status())).Inc()
	}
}
