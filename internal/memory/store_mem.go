package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/flemzord/memagent/internal/provider"
	"github.com/google/uuid"
)

// InMemoryStore is a thread-safe, in-process implementation of Store and
// Replacer. Search ranks facts by the number of query tokens they share;
// ties keep insertion order.
type InMemoryStore struct {
	mu    sync.RWMutex
	facts []Fact
	now   func() time.Time
}

// NewInMemoryStore creates a new empty memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{now: time.Now}
}

// Compile-time interface checks.
var (
	_ Store    = (*InMemoryStore)(nil)
	_ Replacer = (*InMemoryStore)(nil)
)

// Add implements Store.
func (s *InMemoryStore) Add(_ context.Context, userID string, messages []provider.LLMMessage) ([]Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(userID, messages)
}

func (s *InMemoryStore) addLocked(userID string, messages []provider.LLMMessage) ([]Fact, error) {
	content := Render(messages)
	if content == "" {
		return nil, ErrEmptyFact
	}
	f := Fact{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now(),
	}
	s.facts = append(s.facts, f)
	return []Fact{f}, nil
}

// Search implements Store.
func (s *InMemoryStore) Search(_ context.Context, userID, query string, limit int) ([]Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queryTokens := make(map[string]struct{})
	for _, tok := range Tokenize(query) {
		queryTokens[tok] = struct{}{}
	}

	var ranked []Fact
	for _, f := range s.facts {
		if f.UserID != userID {
			continue
		}
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(f.Content) {
			if _, ok := queryTokens[tok]; ok {
				seen[tok] = struct{}{}
			}
		}
		f.Score = float64(len(seen))
		ranked = append(ranked, f)
	}

	slices.SortStableFunc(ranked, func(a, b Fact) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	if n := EffectiveLimit(limit); len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// GetAll implements Store.
func (s *InMemoryStore) GetAll(_ context.Context, userID string) ([]Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Fact
	for _, f := range s.facts {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

// Delete implements Store.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(id)
}

func (s *InMemoryStore) deleteLocked(id string) error {
	idx := slices.IndexFunc(s.facts, func(f Fact) bool { return f.ID == id })
	if idx < 0 {
		return ErrFactNotFound
	}
	s.facts = slices.Delete(s.facts, idx, idx+1)
	return nil
}

// Replace implements Replacer. Unknown IDs are ignored; the store is left
// untouched if the new fact cannot be built.
func (s *InMemoryStore) Replace(_ context.Context, userID string, deleteIDs []string, messages []provider.LLMMessage) ([]Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(messages) > 0 && Render(messages) == "" {
		return nil, ErrEmptyFact
	}
	for _, id := range deleteIDs {
		_ = s.deleteLocked(id)
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return s.addLocked(userID, messages)
}

// Len returns the total number of stored facts across all users.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.facts)
}
