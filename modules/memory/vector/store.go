package vector

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/coder/hnsw"
	"github.com/flemzord/memagent/internal/memory"
	"github.com/flemzord/memagent/internal/provider"
	"github.com/google/uuid"
)

// Compile-time interface guards.
var (
	_ memory.Store    = (*Store)(nil)
	_ memory.Replacer = (*Store)(nil)
)

// Store keeps facts in process memory with one HNSW graph per user.
// Nothing is persisted.
type Store struct {
	mu       sync.RWMutex
	cfg      Config
	embedder memory.Embedder
	users    map[string]*userIndex
	owners   map[string]string // fact ID -> user ID
	now      func() time.Time
}

// userIndex is the per-user graph plus the facts in insertion order.
type userIndex struct {
	graph   *hnsw.Graph[string]
	facts   []memory.Fact
	vectors map[string][]float32
}

// NewStore returns an empty store. A nil embedder selects a
// ChargramEmbedder sized to cfg.Dimensions.
func NewStore(cfg Config, embedder memory.Embedder) *Store {
	cfg.defaults()
	if embedder == nil {
		embedder = memory.NewChargramEmbedder(cfg.Dimensions)
	}
	return &Store{
		cfg:      cfg,
		embedder: embedder,
		users:    make(map[string]*userIndex),
		owners:   make(map[string]string),
		now:      time.Now,
	}
}

func (s *Store) newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = s.cfg.M
	g.EfSearch = s.cfg.EfSearch
	g.Distance = hnsw.CosineDistance
	return g
}

func (s *Store) index(userID string) *userIndex {
	idx, ok := s.users[userID]
	if !ok {
		idx = &userIndex{graph: s.newGraph(), vectors: make(map[string][]float32)}
		s.users[userID] = idx
	}
	return idx
}

// Add implements memory.Store.
func (s *Store) Add(ctx context.Context, userID string, messages []provider.LLMMessage) ([]memory.Fact, error) {
	f, vec, err := s.prepare(ctx, userID, messages)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(f, vec)
	return []memory.Fact{f}, nil
}

// prepare renders and embeds a new fact outside the lock.
func (s *Store) prepare(ctx context.Context, userID string, messages []provider.LLMMessage) (memory.Fact, []float32, error) {
	content := memory.Render(messages)
	if content == "" {
		return memory.Fact{}, nil, memory.ErrEmptyFact
	}
	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return memory.Fact{}, nil, fmt.Errorf("vector: embed fact: %w", err)
	}
	if len(vec) != s.cfg.Dimensions {
		return memory.Fact{}, nil, fmt.Errorf("vector: embedding has %d dimensions, want %d", len(vec), s.cfg.Dimensions)
	}
	return memory.Fact{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now(),
	}, vec, nil
}

func (s *Store) insertLocked(f memory.Fact, vec []float32) {
	idx := s.index(f.UserID)
	idx.graph.Add(hnsw.MakeNode(f.ID, vec))
	idx.facts = append(idx.facts, f)
	idx.vectors[f.ID] = vec
	s.owners[f.ID] = f.UserID
}

// Search implements memory.Store. Candidates come from the graph and are
// scored by cosine similarity. When the graph returns fewer than limit
// nodes the remaining facts are ranked exhaustively, so every stored fact
// is a candidate.
func (s *Store) Search(ctx context.Context, userID, query string, limit int) ([]memory.Fact, error) {
	limit = memory.EffectiveLimit(limit)

	var qvec []float32
	if strings.TrimSpace(query) != "" {
		v, err := s.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("vector: embed query: %w", err)
		}
		qvec = v
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.users[userID]
	if !ok || len(idx.facts) == 0 {
		return nil, nil
	}

	if qvec == nil {
		n := min(limit, len(idx.facts))
		return slices.Clone(idx.facts[:n]), nil
	}

	seen := make(map[string]struct{}, limit)
	var out []memory.Fact
	for _, node := range idx.graph.Search(qvec, min(limit, len(idx.facts))) {
		if _, dup := seen[node.Key]; dup {
			continue
		}
		seen[node.Key] = struct{}{}
		if f, ok := idx.lookup(node.Key); ok {
			f.Score = memory.Cosine(qvec, node.Value)
			out = append(out, f)
		}
	}

	if len(out) < limit && len(out) < len(idx.facts) {
		for _, f := range idx.facts {
			if _, ok := seen[f.ID]; ok {
				continue
			}
			f.Score = memory.Cosine(qvec, idx.vectors[f.ID])
			out = append(out, f)
		}
	}

	slices.SortStableFunc(out, func(a, b memory.Fact) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (idx *userIndex) lookup(id string) (memory.Fact, bool) {
	i := slices.IndexFunc(idx.facts, func(f memory.Fact) bool { return f.ID == id })
	if i < 0 {
		return memory.Fact{}, false
	}
	return idx.facts[i], true
}

// GetAll implements memory.Store.
func (s *Store) GetAll(_ context.Context, userID string) ([]memory.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return slices.Clone(idx.facts), nil
}

// Delete implements memory.Store.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.removeLocked(id)
	if err != nil {
		return err
	}
	idx.graph = s.rebuild(idx)
	return nil
}

// removeLocked drops id from the fact list and vectors of its owner. The
// caller rebuilds the owner's graph.
func (s *Store) removeLocked(id string) (*userIndex, error) {
	userID, ok := s.owners[id]
	if !ok {
		return nil, memory.ErrFactNotFound
	}
	delete(s.owners, id)

	idx := s.users[userID]
	idx.facts = slices.DeleteFunc(idx.facts, func(f memory.Fact) bool { return f.ID == id })
	delete(idx.vectors, id)
	return idx, nil
}

// rebuild returns a fresh graph holding the remaining facts in insertion
// order. hnsw.Graph.Delete leaves dangling neighbor links that make a later
// Search dereference nil, so removals never go through it.
func (s *Store) rebuild(idx *userIndex) *hnsw.Graph[string] {
	g := s.newGraph()
	for _, f := range idx.facts {
		g.Add(hnsw.MakeNode(f.ID, idx.vectors[f.ID]))
	}
	return g
}

// Replace implements memory.Replacer. Unknown IDs are skipped and the store
// is untouched when the new fact cannot be embedded.
func (s *Store) Replace(ctx context.Context, userID string, deleteIDs []string, messages []provider.LLMMessage) ([]memory.Fact, error) {
	var (
		f   memory.Fact
		vec []float32
	)
	if len(messages) > 0 {
		var err error
		if f, vec, err = s.prepare(ctx, userID, messages); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[*userIndex]struct{})
	for _, id := range deleteIDs {
		if idx, err := s.removeLocked(id); err == nil {
			touched[idx] = struct{}{}
		}
	}
	for idx := range touched {
		idx.graph = s.rebuild(idx)
	}
	if vec == nil {
		return nil, nil
	}
	s.insertLocked(f, vec)
	return []memory.Fact{f}, nil
}

// Len returns the number of stored facts across all users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.owners)
}
