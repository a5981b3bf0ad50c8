package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.middleware)
	r.Get("/api/memories/{user}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/api/memories/a", "/api/memories/b", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("/api/memories/{user}", "418")); got != 2 {
		t.Errorf("pattern requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("unmatched", "404")); got != 1 {
		t.Errorf("unmatched requests = %v, want 1", got)
	}
}

func TestMetrics_ReuseOnSameRegistry(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	a := NewMetrics(reg)
	b := NewMetrics(reg)

	a.Requests.WithLabelValues("/health", "200").Inc()
	if got := testutil.ToFloat64(b.Requests.WithLabelValues("/health", "200")); got != 1 {
		t.Errorf("shared counter = %v, want 1", got)
	}
}

func TestMetrics_NilRegistry(t *testing.T) {
	t.Parallel()

	m := NewMetrics(nil)
	m.Requests.WithLabelValues("/x", "200").Inc()
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("/x", "200")); got != 1 {
		t.Errorf("counter = %v, want 1", got)
	}
}
