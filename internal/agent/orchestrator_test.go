package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/flemzord/memagent/internal/memory"
	"github.com/flemzord/memagent/internal/memory/memorytest"
	"github.com/flemzord/memagent/internal/provider"
	"github.com/flemzord/memagent/internal/provider/providertest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T, store memory.Store, mock *providertest.MockProvider, decider Decider, cfg Config) (*Orchestrator, *Metrics) {
	t.Helper()
	metrics := NewMetrics(prometheus.NewRegistry())
	o, err := NewOrchestrator(Deps{
		Provider: mock,
		Store:    store,
		Decider:  decider,
		Metrics:  metrics,
	}, cfg)
	require.NoError(t, err)
	return o, metrics
}

func TestOrchestrator_HandleTurnSendsHistoryInstructionAndUtterance(t *testing.T) {
	t.Parallel()

	store := memorytest.NewRecordingStore()
	seed(t, store, "User lives in New York.")
	store.Reset()

	mock := &providertest.MockProvider{CompleteFunc: providertest.Reply("It's sunny in New York!")}
	o, metrics := newTestOrchestrator(t, store, mock, &StubDecider{}, Config{})

	history := []provider.LLMMessage{
		provider.UserMessage("hi"),
		provider.AssistantMessage("hello!"),
	}
	reply := o.HandleTurn(context.Background(), "What's the weather like?", history)
	assert.Equal(t, "It's sunny in New York!", reply)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	msgs := reqs[0].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, history, msgs[:2])
	assert.Equal(t, provider.MessageRoleSystem, msgs[2].Role)
	assert.Contains(t, msgs[2].Content, "**MEMORIES:**\n- User lives in New York.\n")
	assert.Equal(t, provider.UserMessage("What's the weather like?"), msgs[3])
	assert.Equal(t, provider.ResponseFormat(""), reqs[0].ResponseFormat)

	assert.Equal(t, []string{"get_all", "search", "add"}, store.Ops())
	search := store.Calls()[1]
	assert.Equal(t, "What's the weather like?", search.Query)
	assert.Equal(t, DefaultSearchLimit, search.Limit)

	persisted := store.Calls()[2]
	assert.Equal(t, msgs, persisted.Messages)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Turns.WithLabelValues("ok")))
}

func TestOrchestrator_HandleTurnInputIsNotMutated(t *testing.T) {
	t.Parallel()

	mock := &providertest.MockProvider{CompleteFunc: providertest.Reply("ok")}
	o, _ := newTestOrchestrator(t, memory.NewInMemoryStore(), mock, &StubDecider{}, Config{})

	history := make([]provider.LLMMessage, 1, 8)
	history[0] = provider.UserMessage("first")
	o.HandleTurn(context.Background(), "second", history)

	assert.Len(t, history, 1)
	assert.Empty(t, history[:2][1].Content, "backing array must not be written")
}

func TestOrchestrator_OmitInstructionStoresDialogueOnly(t *testing.T) {
	t.Parallel()

	store := memorytest.NewRecordingStore()
	mock := &providertest.MockProvider{CompleteFunc: providertest.Reply("Nice to meet you.")}
	o, _ := newTestOrchestrator(t, store, mock, &StubDecider{}, Config{OmitInstruction: true})

	o.HandleTurn(context.Background(), "I'm Sam.", nil)

	require.Equal(t, 1, store.Count("add"))
	var persisted []provider.LLMMessage
	for _, c := range store.Calls() {
		if c.Op == "add" {
			persisted = c.Messages
		}
	}
	assert.Equal(t, []provider.LLMMessage{
		provider.UserMessage("I'm Sam."),
		provider.AssistantMessage("Nice to meet you."),
	}, persisted)
}

func TestOrchestrator_GenerationFailureReturnsMessageAndSkipsPersistence(t *testing.T) {
	t.Parallel()

	store := memorytest.NewRecordingStore()
	mock := &providertest.MockProvider{
		CompleteFunc: func(context.Context, provider.CompletionRequest) (provider.CompletionResponse, error) {
			return provider.CompletionResponse{}, fmt.Errorf("groq: %w", provider.ErrProviderDown)
		},
	}
	o, metrics := newTestOrchestrator(t, store, mock, &StubDecider{}, Config{})

	reply := o.HandleTurn(context.Background(), "hello", nil)

	assert.Equal(t, "An error occurred while generating a response: groq: provider unavailable", reply)
	assert.Zero(t, store.Count("add"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Turns.WithLabelValues("error")))
}

func TestOrchestrator_MalformedDecisionStillReplies(t *testing.T) {
	t.Parallel()

	store := memorytest.NewRecordingStore()
	mock := &providertest.MockProvider{
		CompleteFunc: func(_ context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
			if req.ResponseFormat == provider.ResponseFormatJSON {
				return provider.CompletionResponse{Content: "{not json"}, nil
			}
			return provider.CompletionResponse{Content: "Hello there!"}, nil
		},
	}
	// No decider: the LLM-backed one is used.
	o, _ := newTestOrchestrator(t, store, mock, nil, Config{})

	reply := o.HandleTurn(context.Background(), "I live in New York.", nil)

	assert.Equal(t, "Hello there!", reply)
	assert.Equal(t, 2, mock.CompleteCalls())
	assert.Equal(t, []string{"get_all", "search", "add"}, store.Ops())
}

func TestOrchestrator_SearchFailureRepliesWithoutMemories(t *testing.T) {
	t.Parallel()

	store := memorytest.NewRecordingStore()
	store.ErrSearch = errors.New("index unavailable")
	mock := &providertest.MockProvider{CompleteFunc: providertest.Reply("ok")}
	o, _ := newTestOrchestrator(t, store, mock, &StubDecider{}, Config{})

	assert.Equal(t, "ok", o.HandleTurn(context.Background(), "hello", nil))
	msgs := mock.Requests()[0].Messages
	assert.Contains(t, msgs[0].Content, "**MEMORIES:**\n\n")
}

func TestOrchestrator_PersistFailureKeepsReply(t *testing.T) {
	t.Parallel()

	store := memorytest.NewRecordingStore()
	store.ErrAdd = errors.New("read-only")
	mock := &providertest.MockProvider{CompleteFunc: providertest.Reply("ok")}
	o, metrics := newTestOrchestrator(t, store, mock, &StubDecider{}, Config{})

	assert.Equal(t, "ok", o.HandleTurn(context.Background(), "hello", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Mutations.WithLabelValues("add_exchange", "error")))
}

func TestOrchestrator_TemperatureForwarded(t *testing.T) {
	t.Parallel()

	temp := 0.2
	mock := &providertest.MockProvider{CompleteFunc: providertest.Reply("ok")}
	o, _ := newTestOrchestrator(t, memory.NewInMemoryStore(), mock, &StubDecider{}, Config{Temperature: &temp, MaxTokens: 256})

	o.HandleTurn(context.Background(), "hello", nil)

	req := mock.Requests()[0]
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.2, *req.Temperature, 1e-9)
	assert.Equal(t, 256, req.MaxTokens)
}

func TestOrchestrator_ListMemories(t *testing.T) {
	t.Parallel()

	store := memorytest.NewRecordingStore()
	o, _ := newTestOrchestrator(t, store, &providertest.MockProvider{}, &StubDecider{}, Config{})

	assert.Equal(t, "You have no memories stored.", o.ListMemories(context.Background()))
	assert.Equal(t, []string{"get_all"}, store.Ops())

	seed(t, store, "User lives in New York.", "User plays basketball.")
	store.Reset()
	want := "Here are your stored memories:\n- User lives in New York.\n- User plays basketball."
	assert.Equal(t, want, o.ListMemories(context.Background()))
	assert.Equal(t, want, o.ListMemories(context.Background()))
	assert.Equal(t, []string{"get_all", "get_all"}, store.Ops())
}

func TestOrchestrator_ListMemoriesError(t *testing.T) {
	t.Parallel()

	store := memorytest.NewRecordingStore()
	store.ErrGetAll = errors.New("connection refused")
	o, _ := newTestOrchestrator(t, store, &providertest.MockProvider{}, &StubDecider{}, Config{})

	assert.Equal(t, "Could not retrieve memories: connection refused", o.ListMemories(context.Background()))
}

func TestOrchestrator_Identity(t *testing.T) {
	t.Parallel()

	mock := &providertest.MockProvider{ModelNameFunc: func() string { return "gemma2-9b-it" }}
	o, _ := newTestOrchestrator(t, memory.NewInMemoryStore(), mock, &StubDecider{}, Config{UserID: "alice"})

	assert.Equal(t, "alice", o.UserID())
	assert.Equal(t, "gemma2-9b-it", o.ModelName())
}

func TestOrchestrator_EndToEndNewYorkThenWeather(t *testing.T) {
	t.Parallel()

	store := memory.NewInMemoryStore()
	decider := &StubDecider{Decisions: map[string]Decision{
		"I live in New York.": {NewFact: "User lives in New York."},
	}}
	mock := &providertest.MockProvider{CompleteFunc: providertest.Reply("reply")}
	o, _ := newTestOrchestrator(t, store, mock, decider, Config{OmitInstruction: true})

	var history []provider.LLMMessage
	reply := o.HandleTurn(context.Background(), "I live in New York.", history)
	history = append(history, provider.UserMessage("I live in New York."), provider.AssistantMessage(reply))

	facts, err := store.GetAll(context.Background(), testUser)
	require.NoError(t, err)
	require.NotEmpty(t, facts)
	assert.Equal(t, "User lives in New York.", facts[0].Content)
	before := len(facts)

	o.HandleTurn(context.Background(), "What's the weather like?", history)

	reqs := mock.Requests()
	last := reqs[len(reqs)-1].Messages
	assert.Contains(t, last[len(last)-2].Content, "- User lives in New York.")

	facts, err = store.GetAll(context.Background(), testUser)
	require.NoError(t, err)
	// Only the persisted exchange is new; the weather question adds no fact.
	assert.Len(t, facts, before+1)
	assert.Equal(t, "User lives in New York.", facts[0].Content)
}
