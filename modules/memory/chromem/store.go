package chromem

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flemzord/memagent/internal/memory"
	"github.com/flemzord/memagent/internal/provider"
	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
)

var _ memory.Store = (*Store)(nil)

// Metadata keys stored on every document.
const (
	metaUserID    = "user_id"
	metaCreatedAt = "created_at"
	metaSeq       = "seq"
)

// Store keeps facts in chromem-go, one collection per user.
type Store struct {
	db       *chromem.DB
	embedder memory.Embedder
	dims     int
	now      func() time.Time

	mu      sync.Mutex
	lastSeq int64
}

// NewStore opens a chromem database. With an empty cfg.Path the database
// lives in memory only.
func NewStore(cfg Config, embedder memory.Embedder) (*Store, error) {
	cfg.defaults()
	if embedder == nil {
		embedder = memory.NewChargramEmbedder(cfg.Dimensions)
	}

	db := chromem.NewDB()
	if cfg.Path != "" {
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("chromem: open %s: %w", cfg.Path, err)
		}
	}

	return &Store{
		db:       db,
		embedder: embedder,
		dims:     cfg.Dimensions,
		now:      time.Now,
	}, nil
}

func collectionName(userID string) string {
	return "user_" + userID
}

func (s *Store) collection(userID string) (*chromem.Collection, error) {
	col, err := s.db.GetOrCreateCollection(collectionName(userID), nil, s.embedder.Embed)
	if err != nil {
		return nil, fmt.Errorf("chromem: collection for %q: %w", userID, err)
	}
	return col, nil
}

// nextSeq returns a sequence number that increases across calls and
// across restarts of a persistent store.
func (s *Store) nextSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := max(s.now().UnixNano(), s.lastSeq+1)
	s.lastSeq = seq
	return seq
}

// Add implements memory.Store.
func (s *Store) Add(ctx context.Context, userID string, messages []provider.LLMMessage) ([]memory.Fact, error) {
	content := memory.Render(messages)
	if content == "" {
		return nil, memory.ErrEmptyFact
	}

	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("chromem: embed fact: %w", err)
	}

	col, err := s.collection(userID)
	if err != nil {
		return nil, err
	}

	f := memory.Fact{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	doc := chromem.Document{
		ID:        f.ID,
		Content:   f.Content,
		Embedding: vec,
		Metadata: map[string]string{
			metaUserID:    userID,
			metaCreatedAt: f.CreatedAt.Format(time.RFC3339Nano),
			metaSeq:       strconv.FormatInt(s.nextSeq(), 10),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("chromem: add document: %w", err)
	}
	return []memory.Fact{f}, nil
}

// Search implements memory.Store. nResults is clamped to the collection
// size, which chromem requires.
func (s *Store) Search(ctx context.Context, userID, query string, limit int) ([]memory.Fact, error) {
	limit = memory.EffectiveLimit(limit)

	if strings.TrimSpace(query) == "" {
		all, err := s.GetAll(ctx, userID)
		if err != nil {
			return nil, err
		}
		return all[:min(limit, len(all))], nil
	}

	col, err := s.collection(userID)
	if err != nil {
		return nil, err
	}
	n := min(limit, col.Count())
	if n == 0 {
		return nil, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("chromem: embed query: %w", err)
	}

	results, err := col.QueryEmbedding(ctx, vec, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: query: %w", err)
	}

	facts := make([]memory.Fact, 0, len(results))
	for _, r := range results {
		facts = append(facts, toFact(r))
	}
	return facts, nil
}

// GetAll implements memory.Store. chromem has no listing call, so the
// whole collection is fetched with a unit-vector query and sorted by seq.
func (s *Store) GetAll(ctx context.Context, userID string) ([]memory.Fact, error) {
	col, err := s.collection(userID)
	if err != nil {
		return nil, err
	}
	n := col.Count()
	if n == 0 {
		return nil, nil
	}

	unit := make([]float32, s.dims)
	unit[0] = 1
	results, err := col.QueryEmbedding(ctx, unit, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: list: %w", err)
	}

	type seqFact struct {
		seq  int64
		fact memory.Fact
	}
	ordered := make([]seqFact, 0, len(results))
	for _, r := range results {
		seq, _ := strconv.ParseInt(r.Metadata[metaSeq], 10, 64)
		f := toFact(r)
		f.Score = 0
		ordered = append(ordered, seqFact{seq: seq, fact: f})
	}
	slices.SortFunc(ordered, func(a, b seqFact) int { return cmp.Compare(a.seq, b.seq) })

	facts := make([]memory.Fact, len(ordered))
	for i, sf := range ordered {
		facts[i] = sf.fact
	}
	return facts, nil
}

// Delete implements memory.Store by searching every collection for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return memory.ErrFactNotFound
	}
	for _, col := range s.db.ListCollections() {
		if _, err := col.GetByID(ctx, id); err != nil {
			continue
		}
		if err := col.Delete(ctx, nil, nil, id); err != nil {
			return fmt.Errorf("chromem: delete %s: %w", id, err)
		}
		return nil
	}
	return memory.ErrFactNotFound
}

func toFact(r chromem.Result) memory.Fact {
	f := memory.Fact{
		ID:      r.ID,
		UserID:  r.Metadata[metaUserID],
		Content: r.Content,
		Score:   float64(r.Similarity),
	}
	if ts, err := time.Parse(time.RFC3339Nano, r.Metadata[metaCreatedAt]); err == nil {
		f.CreatedAt = ts
	}
	return f
}
