package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/flemzord/memagent/internal/provider"
)

// Decider turns an utterance and the user's current facts into a Decision.
type Decider interface {
	Decide(ctx context.Context, utterance string, snapshot []string) (Decision, error)
}

// LLMDecider asks a completion provider, in JSON mode, to classify the
// utterance against the snapshot.
type LLMDecider struct {
	provider provider.Provider
}

// NewLLMDecider creates a decider backed by p.
func NewLLMDecider(p provider.Provider) *LLMDecider {
	return &LLMDecider{provider: p}
}

// Decide implements Decider.
func (d *LLMDecider) Decide(ctx context.Context, utterance string, snapshot []string) (Decision, error) {
	resp, err := d.provider.Complete(ctx, provider.CompletionRequest{
		Messages: []provider.LLMMessage{
			provider.SystemMessage(BuildDecisionPrompt(utterance, snapshot)),
		},
		ResponseFormat: provider.ResponseFormatJSON,
	})
	if err != nil {
		return Decision{}, fmt.Errorf("agent: decision request: %w", err)
	}
	return ParseDecision(resp.Content)
}

// StubDecider returns scripted decisions keyed by utterance. Utterances
// without an entry go to Fallback, or produce an empty decision.
type StubDecider struct {
	Decisions map[string]Decision
	Errors    map[string]error
	Fallback  func(utterance string, snapshot []string) (Decision, error)

	mu        sync.Mutex
	snapshots [][]string
}

// Decide implements Decider.
func (s *StubDecider) Decide(_ context.Context, utterance string, snapshot []string) (Decision, error) {
	s.mu.Lock()
	s.snapshots = append(s.snapshots, append([]string(nil), snapshot...))
	s.mu.Unlock()

	if err, ok := s.Errors[utterance]; ok {
		return Decision{}, err
	}
	if d, ok := s.Decisions[utterance]; ok {
		return d, nil
	}
	if s.Fallback != nil {
		return s.Fallback(utterance, snapshot)
	}
	return Decision{}, nil
}

// Snapshots returns the snapshots seen so far, one per Decide call.
func (s *StubDecider) Snapshots() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.snapshots...)
}

var (
	_ Decider = (*LLMDecider)(nil)
	_ Decider = (*StubDecider)(nil)
)
