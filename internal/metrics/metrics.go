// Package metrics provides Prometheus metrics for the filesystem API plus a
// small in-process operation tally reported by the health endpoint.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/puzpuzpuz/xsync/v4"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fsapi_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fsapi_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Filesystem operation metrics
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fsapi_operations_total",
			Help: "Total filesystem operations by result",
		},
		[]string{"operation", "result"},
	)

	confinementRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fsapi_confinement_rejections_total",
			Help: "Request paths rejected for leaving the root directory",
		},
	)

	// Content transfer metrics
	bytesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fsapi_bytes_read_total",
			Help: "Total bytes served from file content",
		},
	)

	bytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fsapi_bytes_written_total",
			Help: "Total bytes written to files",
		},
	)
)

// operations counts every operation attempt by name
var operations = xsync.NewMap[string, *xsync.Counter]()

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric. route is the matched
// mux pattern, never the raw URL, to keep label cardinality bounded.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordOperation records the outcome of a filesystem operation.
// result is a short error kind such as "not_found", or "ok".
func RecordOperation(op, result string) {
	counter, _ := operations.LoadOrStore(op, xsync.NewCounter())
	counter.Inc()
	operationsTotal.WithLabelValues(op, result).Inc()
}

// RecordConfinementRejection records a request path that left the root.
func RecordConfinementRejection() {
	confinementRejections.Inc()
}

// RecordBytesRead records content bytes sent to a client.
func RecordBytesRead(n int64) {
	if n > 0 {
		bytesRead.Add(float64(n))
	}
}

// RecordBytesWritten records content bytes written to disk.
func RecordBytesWritten(n int64) {
	if n > 0 {
		bytesWritten.Add(float64(n))
	}
}

// Snapshot returns the number of attempts per operation since start.
func Snapshot() map[string]int64 {
	out := make(map[string]int64, operations.Size())
	operations.Range(func(op string, c *xsync.Counter) bool {
		out[op] = c.Value()
		return true
	})
	return out
}
