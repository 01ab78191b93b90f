package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/vango-dev/fibers/pkg/metrics"
)

// metricValue sums the counter or gauge samples of name whose labels
// include labels.
func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if !hasLabels(m, labels) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				total += g.GetValue()
			}
		}
	}
	return total
}

func hasLabels(m *dto.Metric, labels map[string]string) bool {
	for k, v := range labels {
		found := false
		for _, lp := range m.GetLabel() {
			if lp.GetName() == k && lp.GetValue() == v {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func newRouter(mw ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(mw...)
	r.Get("/nodes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chi.URLParam(r, "id")))
	})
	r.Post("/fail", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	return r
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(metrics.WithRegistry(reg))
	r := newRouter(m.Handler)

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nodes/"+id, nil))
		if rec.Body.String() != id {
			t.Errorf("body = %q, want %q", rec.Body.String(), id)
		}
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/fail", nil))

	ok := map[string]string{"route": "/nodes/{id}", "method": "GET", "status": "200"}
	if got := metricValue(t, reg, "fibers_http_requests_total", ok); got != 2 {
		t.Errorf("requests{/nodes/{id}} = %v, want 2", got)
	}
	failed := map[string]string{"route": "/fail", "status": "500"}
	if got := metricValue(t, reg, "fibers_http_requests_total", failed); got != 1 {
		t.Errorf("requests{/fail,500} = %v, want 1", got)
	}
}

func TestStreamMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(metrics.WithRegistry(reg), metrics.WithNamespace("app"))

	m.StreamOpened()
	m.StreamOpened()
	m.StreamClosed()
	m.FrameSent()
	m.FrameSent()
	m.FrameSent()
	m.StreamError("write")

	if got := metricValue(t, reg, "app_streams_active", nil); got != 1 {
		t.Errorf("streams_active = %v, want 1", got)
	}
	if got := metricValue(t, reg, "app_stream_frames_total", nil); got != 3 {
		t.Errorf("stream_frames_total = %v, want 3", got)
	}
	if got := metricValue(t, reg, "app_stream_errors_total", map[string]string{"type": "write"}); got != 1 {
		t.Errorf("stream_errors_total{write} = %v, want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.StreamOpened()
	m.StreamClosed()
	m.FrameSent()
	m.StreamError("read")

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()
	m.Handler(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestTracingPassesThrough(t *testing.T) {
	var sawSpan bool
	r := chi.NewRouter()
	r.Use(Tracing(WithTracerName("test")))
	r.Get("/x", func(w http.ResponseWriter, r *http.Request) {
		sawSpan = SpanFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusAccepted)
	})
	r.Post("/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if !sawSpan {
		t.Error("handler should see a span in its context")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/fail", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestTracingFilter(t *testing.T) {
	calls := 0
	mw := Tracing(WithFilter(func(r *http.Request) bool {
		calls++
		return r.URL.Path != "/metrics"
	}))
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, path := range []string{"/metrics", "/tree"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
	if calls != 2 {
		t.Errorf("filter calls = %d, want 2", calls)
	}
}
