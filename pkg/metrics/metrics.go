package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Exporter serves HTTP request metrics on a dedicated listener so the
// metrics port can stay off the public surface.
type Exporter struct {
	registry *prometheus.Registry

	reqTotal *prometheus.CounterVec
	reqDurMs *prometheus.HistogramVec

	consumeTotal *prometheus.CounterVec
	webhookTotal *prometheus.CounterVec

	log *zap.SugaredLogger
}

func NewExporter(log *zap.SugaredLogger) *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "req_total",
			Help: "How many HTTP requests processed, partitioned by status code, method and route.",
		}, []string{"code", "method", "url"}),
		reqDurMs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "req_dur_ms",
			Help:    "The HTTP request latencies in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"code", "method", "url"}),
		consumeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consume_total",
			Help: "Consumption attempts partitioned by outcome and entitlement source.",
		}, []string{"outcome", "source"}),
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_event_total",
			Help: "Payment webhook events partitioned by kind and outcome.",
		}, []string{"kind", "outcome"}),
		log: log,
	}
	e.registry.MustRegister(e.reqTotal, e.reqDurMs, e.consumeTotal, e.webhookTotal)
	return e
}

// Middleware records request count and latency per route.
func (e *Exporter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		url := c.FullPath()
		if url == "" {
			url = c.Request.URL.Path
		}
		code := strconv.Itoa(c.Writer.Status())
		e.reqTotal.WithLabelValues(code, c.Request.Method, url).Inc()
		e.reqDurMs.WithLabelValues(code, c.Request.Method, url).Observe(float64(time.Since(start).Milliseconds()))
	}
}

// ObserveConsume counts a consumption attempt outcome.
func (e *Exporter) ObserveConsume(outcome, source string) {
	e.consumeTotal.WithLabelValues(outcome, source).Inc()
}

// ObservePaymentEvent counts a processed webhook event.
func (e *Exporter) ObservePaymentEvent(kind, outcome string) {
	e.webhookTotal.WithLabelValues(kind, outcome).Inc()
}

// Serve starts the metrics listener on addr. It never blocks the caller.
func (e *Exporter) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			e.log.Errorf("metrics listener error: %v", err)
		}
	}()
}
