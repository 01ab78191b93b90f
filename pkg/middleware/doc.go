// Package middleware provides HTTP middleware for the fibers inspection
// server.
//
// This package includes:
//   - OpenTelemetry tracing middleware
//   - Prometheus request and stream metrics
//
// # OpenTelemetry Middleware
//
// Tracing starts a server span for every request, named after the chi route
// pattern once routing has resolved it:
//
//	r := chi.NewRouter()
//	r.Use(middleware.Tracing(
//	    middleware.WithTracerName("fibers-server"),
//	    middleware.WithFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/metrics"
//	    }),
//	))
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it in
// main before starting the server.
//
// # Prometheus Metrics
//
//	m := middleware.NewMetrics(metrics.WithNamespace("fibers"))
//	r.Use(m.Handler)
//	r.Handle("/metrics", promhttp.Handler())
//
// Metrics collected:
//   - fibers_http_requests_total: requests by route, method and status
//   - fibers_http_request_duration_seconds: request duration by route
//   - fibers_streams_active: open mutation streams
//   - fibers_stream_frames_total: frames written to streams
//   - fibers_stream_errors_total: stream failures by type
package middleware
