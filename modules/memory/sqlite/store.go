package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flemzord/memagent/internal/memory"
	"github.com/flemzord/memagent/internal/provider"
	"github.com/google/uuid"
)

// Compile-time interface guards.
var (
	_ memory.Store    = (*Store)(nil)
	_ memory.Replacer = (*Store)(nil)
)

// Store is a memory.Store backed by a SQLite database with an FTS5 index
// over fact contents.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const factColumns = "id, user_id, content, metadata, created_at"

func newStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database and its FTS5 index are reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM facts_fts").Scan(&n); err != nil {
		return fmt.Errorf("sqlite: FTS5 not available: %w", err)
	}
	return nil
}

// Add implements memory.Store.
func (s *Store) Add(ctx context.Context, userID string, messages []provider.LLMMessage) ([]memory.Fact, error) {
	f, err := s.insert(ctx, s.db, userID, messages)
	if err != nil {
		return nil, err
	}
	return []memory.Fact{f}, nil
}

func (s *Store) insert(ctx context.Context, q querier, userID string, messages []provider.LLMMessage) (memory.Fact, error) {
	content := memory.Render(messages)
	if content == "" {
		return memory.Fact{}, memory.ErrEmptyFact
	}

	f := memory.Fact{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO facts (id, user_id, content, metadata, created_at)
		VALUES (?, ?, ?, '{}', ?)`,
		f.ID, f.UserID, f.Content, f.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return memory.Fact{}, fmt.Errorf("sqlite: insert fact: %w", err)
	}
	return f, nil
}

// Search implements memory.Store. Facts matching any query token come first,
// ordered by FTS5 rank. The remaining slots are filled with the user's most
// recent facts so that a query sharing no words still yields candidates.
func (s *Store) Search(ctx context.Context, userID, query string, limit int) ([]memory.Fact, error) {
	limit = memory.EffectiveLimit(limit)

	var facts []memory.Fact
	if match := matchExpression(query); match != "" {
		rows, err := s.db.QueryContext(ctx, `
			SELECT f.id, f.user_id, f.content, f.metadata, f.created_at, -facts_fts.rank
			FROM facts_fts
			JOIN facts f ON f.seq = facts_fts.rowid
			WHERE facts_fts MATCH ? AND f.user_id = ?
			ORDER BY facts_fts.rank
			LIMIT ?`,
			match, userID, limit,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: search facts: %w", err)
		}
		facts, err = scanScoredFacts(rows)
		if err != nil {
			return nil, err
		}
	}

	if len(facts) >= limit {
		return facts, nil
	}

	seen := make(map[string]struct{}, len(facts))
	for _, f := range facts {
		seen[f.ID] = struct{}{}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+factColumns+`
		FROM facts
		WHERE user_id = ?
		ORDER BY seq DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: recent facts: %w", err)
	}
	recent, err := scanFacts(rows)
	if err != nil {
		return nil, err
	}
	for _, f := range recent {
		if len(facts) >= limit {
			break
		}
		if _, ok := seen[f.ID]; ok {
			continue
		}
		facts = append(facts, f)
	}
	return facts, nil
}

// GetAll implements memory.Store.
func (s *Store) GetAll(ctx context.Context, userID string) ([]memory.Fact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+factColumns+`
		FROM facts
		WHERE user_id = ?
		ORDER BY seq`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list facts: %w", err)
	}
	return scanFacts(rows)
}

// Delete implements memory.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	return deleteFact(ctx, s.db, id)
}

func deleteFact(ctx context.Context, q querier, id string) error {
	result, err := q.ExecContext(ctx, "DELETE FROM facts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("sqlite: delete fact: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return memory.ErrFactNotFound
	}
	return nil
}

// Replace implements memory.Replacer in a single transaction. Unknown IDs
// are skipped.
func (s *Store) Replace(ctx context.Context, userID string, deleteIDs []string, messages []provider.LLMMessage) ([]memory.Fact, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range deleteIDs {
		if err := deleteFact(ctx, tx, id); err != nil && !errors.Is(err, memory.ErrFactNotFound) {
			return nil, err
		}
	}

	var added []memory.Fact
	if len(messages) > 0 {
		f, err := s.insert(ctx, tx, userID, messages)
		if err != nil {
			return nil, err
		}
		added = []memory.Fact{f}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit replace: %w", err)
	}
	return added, nil
}

// Len returns the number of stored facts across all users.
func (s *Store) Len(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM facts").Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: count facts: %w", err)
	}
	return count, nil
}

// matchExpression turns free text into an FTS5 query matching any of its
// tokens. Tokens are quoted so that FTS5 operators in user input stay
// literal.
func matchExpression(query string) string {
	tokens := memory.Tokenize(query)
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

func scanFacts(rows *sql.Rows) ([]memory.Fact, error) {
	defer func() { _ = rows.Close() }()

	var facts []memory.Fact
	for rows.Next() {
		var (
			fact      memory.Fact
			metaJSON  string
			createdAt string
		)
		if err := rows.Scan(&fact.ID, &fact.UserID, &fact.Content, &metaJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan fact: %w", err)
		}
		if err := decodeColumns(&fact, metaJSON, createdAt); err != nil {
			return nil, err
		}
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: scan facts rows: %w", err)
	}
	return facts, nil
}

func scanScoredFacts(rows *sql.Rows) ([]memory.Fact, error) {
	defer func() { _ = rows.Close() }()

	var facts []memory.Fact
	for rows.Next() {
		var (
			fact      memory.Fact
			metaJSON  string
			createdAt string
		)
		if err := rows.Scan(&fact.ID, &fact.UserID, &fact.Content, &metaJSON, &createdAt, &fact.Score); err != nil {
			return nil, fmt.Errorf("sqlite: scan fact: %w", err)
		}
		if err := decodeColumns(&fact, metaJSON, createdAt); err != nil {
			return nil, err
		}
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: scan facts rows: %w", err)
	}
	return facts, nil
}

func decodeColumns(fact *memory.Fact, metaJSON, createdAt string) error {
	if metaJSON != "" && metaJSON != "{}" && metaJSON != "null" {
		if err := json.Unmarshal([]byte(metaJSON), &fact.Metadata); err != nil {
			return fmt.Errorf("sqlite: unmarshal metadata: %w", err)
		}
	}
	if createdAt != "" {
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return fmt.Errorf("sqlite: parse created_at %q: %w", createdAt, err)
		}
		fact.CreatedAt = t
	}
	return nil
}
