// Package memorytest provides test helpers for the memory package.
package memorytest

import (
	"context"
	"sync"

	"github.com/flemzord/memagent/internal/memory"
	"github.com/flemzord/memagent/internal/provider"
)

// Call is one recorded store operation.
type Call struct {
	Op       string // "add", "search", "get_all", "delete"
	UserID   string
	Query    string
	Limit    int
	ID       string
	Messages []provider.LLMMessage
}

// RecordingStore wraps a memory.Store, records every call, and can inject
// errors per operation. It does not implement memory.Replacer, so a
// controller using it takes the sequential delete-then-add path.
type RecordingStore struct {
	Inner memory.Store

	// Err* fields, when non-nil, are returned instead of calling Inner.
	ErrAdd    error
	ErrSearch error
	ErrGetAll error
	ErrDelete error

	mu    sync.Mutex
	calls []Call
}

// NewRecordingStore wraps a fresh in-memory store.
func NewRecordingStore() *RecordingStore {
	return &RecordingStore{Inner: memory.NewInMemoryStore()}
}

var _ memory.Store = (*RecordingStore)(nil)

func (r *RecordingStore) record(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

// Add implements memory.Store.
func (r *RecordingStore) Add(ctx context.Context, userID string, messages []provider.LLMMessage) ([]memory.Fact, error) {
	r.record(Call{Op: "add", UserID: userID, Messages: append([]provider.LLMMessage(nil), messages...)})
	if r.ErrAdd != nil {
		return nil, r.ErrAdd
	}
	return r.Inner.Add(ctx, userID, messages)
}

// Search implements memory.Store.
func (r *RecordingStore) Search(ctx context.Context, userID, query string, limit int) ([]memory.Fact, error) {
	r.record(Call{Op: "search", UserID: userID, Query: query, Limit: limit})
	if r.ErrSearch != nil {
		return nil, r.ErrSearch
	}
	return r.Inner.Search(ctx, userID, query, limit)
}

// GetAll implements memory.Store.
func (r *RecordingStore) GetAll(ctx context.Context, userID string) ([]memory.Fact, error) {
	r.record(Call{Op: "get_all", UserID: userID})
	if r.ErrGetAll != nil {
		return nil, r.ErrGetAll
	}
	return r.Inner.GetAll(ctx, userID)
}

// Delete implements memory.Store.
func (r *RecordingStore) Delete(ctx context.Context, id string) error {
	r.record(Call{Op: "delete", ID: id})
	if r.ErrDelete != nil {
		return r.ErrDelete
	}
	return r.Inner.Delete(ctx, id)
}

// Calls returns a copy of the recorded calls.
func (r *RecordingStore) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Ops returns just the operation names, in call order.
func (r *RecordingStore) Ops() []string {
	calls := r.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many calls of op were recorded.
func (r *RecordingStore) Count(op string) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset forgets the recorded calls.
func (r *RecordingStore) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
