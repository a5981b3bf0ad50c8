package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/flemzord/memagent/internal/provider"
)

const healthCheckTimeout = 5 * time.Second

// Component states reported by /health.
const (
	stateOK          = "ok"
	stateUnchecked   = "unchecked"
	stateUnavailable = "unavailable"
	stateMissing     = "missing"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status   string `json:"status"` // "ok" or "degraded"
	Provider string `json:"provider"`
	Store    string `json:"store"`
}

// handleHealth returns 200 when the provider passes its health check (or
// has none) and a store is configured, 503 otherwise.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Provider: g.providerState(r.Context()),
			Store:    stateOK,
		}
		if g.store == nil {
			resp.Store = stateMissing
		}
		if resp.Provider == stateUnavailable || resp.Provider == stateMissing || resp.Store != stateOK {
			resp.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (g *Gateway) providerState(ctx context.Context) string {
	if g.provider == nil {
		return stateMissing
	}
	hc, ok := g.provider.(provider.HealthChecker)
	if !ok {
		return stateUnchecked
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if err := hc.HealthCheck(ctx); err != nil {
		g.logger.Warn("provider health check failed", "error", err)
		return stateUnavailable
	}
	return stateOK
}
