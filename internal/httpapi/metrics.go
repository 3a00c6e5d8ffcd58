package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace, metricsSubsystem = "routerprobe", "http"

var (
	// servedTotal counts responses by route pattern, method and status code.
	servedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem,
		Name: "requests_total",
		Help: "HTTP responses served, by route pattern and status code",
	}, []string{"route", "method", "code"})

	serveLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem,
		Name:    "request_duration_seconds",
		Help:    "Time to serve a request, by route pattern",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"route"})

	responseBytes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem,
		Name:    "response_bytes",
		Help:    "Response body size as written, by route pattern",
		Buckets: prometheus.ExponentialBuckets(256, 4, 8),
	}, []string{"route"})

	inflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem,
		Name: "inflight_requests",
		Help: "Requests currently being served",
	})

	notModifiedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem,
		Name: "not_modified_total",
		Help: "Result requests answered with 304 from the ETag",
	}, []string{"capability"})
)

func init() {
	prometheus.MustRegister(servedTotal, serveLatency, responseBytes, inflight, notModifiedTotal)
}

// countingWriter records the status code and body size written through it.
type countingWriter struct {
	http.ResponseWriter
	code  int
	bytes int
}

func (cw *countingWriter) WriteHeader(code int) {
	cw.code = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *countingWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	cw.bytes += n
	return n, err
}

// MetricsMiddleware instruments requests for Prometheus. Labels are taken
// after routing so they carry the chi route pattern, never the raw URL.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inflight.Inc()
		defer inflight.Dec()

		cw := &countingWriter{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(cw, r)

		route := routeLabel(r)
		servedTotal.WithLabelValues(route, r.Method, strconv.Itoa(cw.code)).Inc()
		serveLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		responseBytes.WithLabelValues(route).Observe(float64(cw.bytes))
	})
}

// routeLabel is the matched chi pattern; unmatched requests share one label.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
