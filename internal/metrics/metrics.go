package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secudash_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	// QueriesTotal counts executed query payloads.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secudash_queries_total",
			Help: "Total number of query payloads executed",
		},
		[]string{"operation", "table", "status"},
	)
	// QueryDuration is the latency of query execution.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "secudash_query_duration_seconds",
			Help:    "Query execution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// ObserveQuery records one executed payload.
func ObserveQuery(operation, table string, status int, took time.Duration) {
	QueriesTotal.WithLabelValues(operation, table, strconv.Itoa(status)).Inc()
	QueryDuration.WithLabelValues(operation).Observe(took.Seconds())
}

// Middleware records request counts. The route label is the matched gin
// pattern so project ids do not explode cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
