package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// factJSON is the wire form of a stored fact.
type factJSON struct {
	ID        string            `json:"id,omitempty"`
	UserID    string            `json:"user_id"`
	Memory    string            `json:"memory"`
	CreatedAt string            `json:"created_at,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// handleListMemories returns every fact of the user in store order.
func (g *Gateway) handleListMemories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user")
		if userID == "" {
			http.Error(w, "missing user id", http.StatusBadRequest)
			return
		}
		if g.store == nil {
			http.Error(w, "no memory store configured", http.StatusServiceUnavailable)
			return
		}

		facts, err := g.store.GetAll(r.Context(), userID)
		if err != nil {
			g.logger.Error("list memories failed", "user_id", userID, "error", err)
			http.Error(w, "could not retrieve memories", http.StatusInternalServerError)
			return
		}

		out := make([]factJSON, len(facts))
		for i, f := range facts {
			out[i] = factJSON{
				ID:       f.ID,
				UserID:   f.UserID,
				Memory:   f.Content,
				Metadata: f.Metadata,
			}
			if !f.CreatedAt.IsZero() {
				out[i].CreatedAt = f.CreatedAt.UTC().Format(time.RFC3339)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}
