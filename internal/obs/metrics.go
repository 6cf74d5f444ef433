package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	transitionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_transition_outcomes_total",
			Help: "Status transition attempts by entity type and outcome.",
		},
		[]string{"entity", "outcome"},
	)
)

// Init registers metrics in the default registry.
func Init() {
	prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration, transitionOutcomes)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTransition records one transition attempt outcome, e.g.
// ("order", "committed") or ("account", "stale").
func ObserveTransition(entity, outcome string) {
	transitionOutcomes.WithLabelValues(entity, outcome).Inc()
}

// Instrument wraps a handler with RPS/latency/in-flight measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

var resourceActions = map[string]struct{}{
	"status":          {},
	"confirm-payment": {},
	"mark-shipped":    {},
	"role":            {},
}

// CanonicalPath collapses entity identifiers so metric label cardinality stays
// bounded: /v1/orders/<id>/status becomes /v1/orders/:id/status.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	// expected shapes: ["", "v1", resource, id] or ["", "v1", resource, id, action]
	if len(parts) >= 4 && parts[1] == "v1" && (parts[2] == "orders" || parts[2] == "accounts") && parts[3] != "" {
		switch len(parts) {
		case 4:
			parts[3] = ":id"
			return strings.Join(parts, "/")
		case 5:
			if _, ok := resourceActions[parts[4]]; ok {
				parts[3] = ":id"
				return strings.Join(parts, "/")
			}
		}
	}
	return path
}

// statusWriter captures the response code for metric labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
