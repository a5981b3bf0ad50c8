package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flemzord/memagent/internal/memory"
	"github.com/flemzord/memagent/internal/provider"
)

func checkHealth(t *testing.T, g *Gateway) (int, HealthResponse) {
	t.Helper()
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rr := httptest.NewRecorder()
	g.handleHealth().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rr.Code, resp
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider provider.Provider
		store    memory.Store
		code     int
		want     HealthResponse
	}{
		{
			name:     "healthy",
			provider: &fakeProvider{},
			store:    memory.NewInMemoryStore(),
			code:     http.StatusOK,
			want:     HealthResponse{Status: "ok", Provider: stateOK, Store: stateOK},
		},
		{
			name:     "provider down",
			provider: &fakeProvider{failErr: errDown},
			store:    memory.NewInMemoryStore(),
			code:     http.StatusServiceUnavailable,
			want:     HealthResponse{Status: "degraded", Provider: stateUnavailable, Store: stateOK},
		},
		{
			name:     "no health check",
			provider: plainProvider{},
			store:    memory.NewInMemoryStore(),
			code:     http.StatusOK,
			want:     HealthResponse{Status: "ok", Provider: stateUnchecked, Store: stateOK},
		},
		{
			name: "nothing resolved",
			code: http.StatusServiceUnavailable,
			want: HealthResponse{Status: "degraded", Provider: stateMissing, Store: stateMissing},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := &Gateway{provider: tt.provider, store: tt.store}
			code, resp := checkHealth(t, g)
			if code != tt.code {
				t.Errorf("status code = %d, want %d", code, tt.code)
			}
			if resp != tt.want {
				t.Errorf("response = %+v, want %+v", resp, tt.want)
			}
		})
	}
}
