package mw

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsJob = "hostel-allocation"

// Metrics owns the Prometheus collectors exposed on /metrics. Each router
// gets its own registry so that tests can build routers repeatedly.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	errors      *prometheus.CounterVec
	dbUp        prometheus.Gauge
	allocations *prometheus.CounterVec
	repairs     prometheus.Counter
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	labels := prometheus.Labels{"job": metricsJob}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total HTTP requests, partitioned by status code, method and route.",
			ConstLabels: labels,
		}, []string{"code", "method", "route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_errors_total",
			Help:        "Total HTTP responses with a status of 400 or above.",
			ConstLabels: labels,
		}, []string{"code", "method", "route"}),
		dbUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_connection_status",
			Help: "Database connection status (1=healthy, 0=unhealthy).",
		}),
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "allocations_total",
			Help:        "Allocation attempts, partitioned by outcome.",
			ConstLabels: labels,
		}, []string{"result"}),
		repairs: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "occupancy_repairs_total",
			Help:        "Rooms whose stored occupancy was corrected by the reconciler.",
			ConstLabels: labels,
		}),
	}
	m.registry.MustRegister(m.requests, m.errors, m.dbUp, m.allocations, m.repairs)
	return m
}

// Middleware counts every request once it has been handled.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// The route template keeps label cardinality bounded.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		code := strconv.Itoa(status)

		m.requests.WithLabelValues(code, c.Request.Method, route).Inc()
		if status >= http.StatusBadRequest {
			m.errors.WithLabelValues(code, c.Request.Method, route).Inc()
		}
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// SetStoreUp records the outcome of the latest database health check.
func (m *Metrics) SetStoreUp(up bool) {
	if up {
		m.dbUp.Set(1)
	} else {
		m.dbUp.Set(0)
	}
}

// ObserveAllocation counts an allocation attempt by outcome, e.g.
// "allocated", "room_full", "not_found".
func (m *Metrics) ObserveAllocation(result string) {
	m.allocations.WithLabelValues(result).Inc()
}

// ObserveRepairs adds n corrected rooms.
func (m *Metrics) ObserveRepairs(n int) {
	m.repairs.Add(float64(n))
}
