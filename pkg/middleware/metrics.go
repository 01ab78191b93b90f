package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/fibers/pkg/metrics"
)

// Metrics holds the HTTP and stream collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	activeStreams prometheus.Gauge
	framesSent    prometheus.Counter
	streamErrors  *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors. Request durations
// default to prometheus.DefBuckets; opts may override them.
func NewMetrics(opts ...metrics.Option) *Metrics {
	opts = append([]metrics.Option{metrics.WithBuckets(prometheus.DefBuckets)}, opts...)
	f := metrics.NewConfig(opts...).Factory()
	return &Metrics{
		requests:      f.CounterVec("http_requests_total", "Total number of HTTP requests", "route", "method", "status"),
		duration:      f.HistogramVec("http_request_duration_seconds", "HTTP request duration in seconds", "route"),
		activeStreams: f.Gauge("streams_active", "Number of open mutation streams"),
		framesSent:    f.Counter("stream_frames_total", "Total number of frames written to mutation streams"),
		streamErrors:  f.CounterVec("stream_errors_total", "Total mutation stream errors by type", "type"),
	}
}

// Handler records request count and duration. The route label is the chi
// route pattern, so path parameters do not create new series.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}

// StreamOpened records a new mutation stream.
func (m *Metrics) StreamOpened() {
	if m != nil {
		m.activeStreams.Inc()
	}
}

// StreamClosed records a closed mutation stream.
func (m *Metrics) StreamClosed() {
	if m != nil {
		m.activeStreams.Dec()
	}
}

// FrameSent records a frame written to a stream.
func (m *Metrics) FrameSent() {
	if m != nil {
		m.framesSent.Inc()
	}
}

// StreamError records a stream failure. kind should be low-cardinality,
// such as "write", "read" or "decode".
func (m *Metrics) StreamError(kind string) {
	if m != nil {
		m.streamErrors.WithLabelValues(kind).Inc()
	}
}

// routePattern returns the matched chi route, or "unmatched".
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
