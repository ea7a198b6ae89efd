// Package metrics exposes Prometheus instrumentation for the coverage
// service and its HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the coverage metrics. It satisfies coverage.Recorder.
type Collector struct {
	gatherer prometheus.Gatherer

	Towers        *prometheus.CounterVec
	Samples       prometheus.Counter
	TowerDuration prometheus.Histogram

	Requests         *prometheus.CounterVec
	RequestDurations *prometheus.HistogramVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		Towers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coverage_towers_total",
			Help: "Towers processed, labeled by result (ok or error).",
		}, []string{"result"}),
		Samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coverage_samples_total",
			Help: "Grid samples retained above tower sensitivity.",
		}),
		TowerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coverage_tower_duration_seconds",
			Help:    "Time spent sampling one tower.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coverage_http_requests_total",
			Help: "HTTP requests, labeled by route template, method and status code.",
		}, []string{"route", "method", "code"}),
		RequestDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coverage_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	for _, col := range []prometheus.Collector{c.Towers, c.Samples, c.TowerDuration, c.Requests, c.RequestDurations} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveTower records the outcome of one tower.
func (c *Collector) ObserveTower(_ string, samples int, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.Towers.WithLabelValues("error").Inc()
	} else {
		c.Towers.WithLabelValues("ok").Inc()
		c.Samples.Add(float64(samples))
	}
	c.TowerDuration.Observe(elapsed.Seconds())
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware counts requests per mux route template.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unknown"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		c.Requests.WithLabelValues(route, r.Method, strconv.Itoa(sw.code)).Inc()
		c.RequestDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
