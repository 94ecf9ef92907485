// Package metrics exposes Prometheus counters for the back office and a gin
// middleware for HTTP request metrics. The registry is served on /metrics by
// the main router.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_payments_recorded_total",
			Help: "Payments recorded against orders, by method",
		},
		[]string{"method"},
	)

	StockMovementsPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_stock_movements_total",
			Help: "Stock movements posted to the ledger, by type",
		},
		[]string{"type"},
	)

	OrdersClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backoffice_orders_closed_total",
			Help: "Orders settled and closed",
		},
	)

	OrdersRefunded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backoffice_orders_refunded_total",
			Help: "Closed orders refunded",
		},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_http_requests_total",
			Help: "HTTP requests by route, method and status class",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backoffice_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"route", "method"},
	)
)

// GinMiddleware records request counts and latency per route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := "success"
		if c.Writer.Status() >= 400 {
			status = "error"
		}
		httpRequests.WithLabelValues(route, c.Request.Method, status).Inc()
		httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
