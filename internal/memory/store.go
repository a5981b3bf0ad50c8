// Package memory defines the per-user fact store used by the agent and the
// helpers shared by every store implementation.
package memory

import (
	"context"
	"errors"
	"time"

	"github.com/flemzord/memagent/internal/provider"
)

// ServiceName is the AppContext service under which the configured memory
// module registers its Store.
const ServiceName = "memory.store"

// DefaultSearchLimit is the result cap applied when Search is called with a
// non-positive limit.
const DefaultSearchLimit = 100

// ErrFactNotFound indicates the requested fact does not exist.
var ErrFactNotFound = errors.New("memory: fact not found")

// ErrEmptyFact is returned by Add when the messages render to no text.
var ErrEmptyFact = errors.New("memory: empty fact")

// Fact is a natural-language statement about a user.
type Fact struct {
	ID        string
	UserID    string
	Content   string
	Metadata  map[string]string
	CreatedAt time.Time

	// Score is the search relevance when the fact comes from Search.
	// Higher is closer. Zero for GetAll results.
	Score float64
}

// Store manages facts partitioned by user.
// Implementations must be safe for concurrent use.
type Store interface {
	// Add renders messages into a single fact owned by userID and stores it.
	Add(ctx context.Context, userID string, messages []provider.LLMMessage) ([]Fact, error)

	// Search returns up to limit of the user's facts ranked by relevance to
	// query. It is a nearest-match lookup, not a filter: weakly related facts
	// may be returned when nothing better exists.
	Search(ctx context.Context, userID, query string, limit int) ([]Fact, error)

	// GetAll returns every fact owned by userID in insertion order.
	GetAll(ctx context.Context, userID string) ([]Fact, error)

	// Delete removes a fact by ID. Returns ErrFactNotFound for unknown IDs.
	Delete(ctx context.Context, id string) error
}

// Replacer is implemented by stores that can purge and add in one atomic step.
type Replacer interface {
	// Replace deletes the facts with the given IDs and, when messages is
	// non-empty, adds them as a new fact. Either everything applies or nothing.
	Replace(ctx context.Context, userID string, deleteIDs []string, messages []provider.LLMMessage) ([]Fact, error)
}

// Texts returns the content of each fact, preserving order.
func Texts(facts []Fact) []string {
	out := make([]string, len(facts))
	for i, f := range facts {
		out[i] = f.Content
	}
	return out
}

// EffectiveLimit maps non-positive limits to DefaultSearchLimit.
func EffectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return limit
}
