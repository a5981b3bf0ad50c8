package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flemzord/memagent/internal/memory"
	"github.com/flemzord/memagent/internal/provider"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Fixed user-facing texts.
const (
	noMemoriesText        = "You have no memories stored."
	memoriesHeader        = "Here are your stored memories:"
	listErrorPrefix       = "Could not retrieve memories: "
	generationErrorPrefix = "An error occurred while generating a response: "
)

// Orchestrator drives one conversation turn end to end.
type Orchestrator struct {
	controller *Controller
	provider   provider.Provider
	store      memory.Store
	logger     *slog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
	cfg        Config
}

// NewOrchestrator creates an Orchestrator, and the Controller it runs
// before every reply, from explicit dependencies.
func NewOrchestrator(deps Deps, cfg Config) (*Orchestrator, error) {
	deps, err := deps.withDefaults()
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	return &Orchestrator{
		controller: newController(deps, cfg),
		provider:   deps.Provider,
		store:      deps.Store,
		logger:     deps.Logger.With("component", "orchestrator"),
		metrics:    deps.Metrics,
		tracer:     deps.Tracer,
		cfg:        cfg,
	}, nil
}

// UserID returns the user this orchestrator serves.
func (o *Orchestrator) UserID() string { return o.cfg.UserID }

// ModelName returns the model used for replies.
func (o *Orchestrator) ModelName() string { return o.provider.ModelName() }

// HandleTurn updates memory from utterance, then generates a reply with the
// relevant facts and history as context. It never returns an error: a
// failed generation yields a readable error message as the reply.
func (o *Orchestrator) HandleTurn(ctx context.Context, utterance string, history []provider.LLMMessage) string {
	ctx, span := o.tracer.Start(ctx, "agent.HandleTurn",
		trace.WithAttributes(
			attribute.String("memagent.user_id", o.cfg.UserID),
			attribute.Int("memagent.history_len", len(history)),
		))
	defer span.End()

	o.controller.EvaluateAndApply(ctx, utterance, o.cfg.UserID)

	relevant, err := o.store.Search(ctx, o.cfg.UserID, utterance, o.cfg.SearchLimit)
	if err != nil {
		// Answer without memories rather than not at all.
		o.logger.Warn("memory search failed", "error", err)
		relevant = nil
	}
	span.SetAttributes(attribute.Int("memagent.relevant_facts", len(relevant)))

	messages := make([]provider.LLMMessage, 0, len(history)+2)
	messages = append(messages, history...)
	messages = append(messages,
		provider.SystemMessage(BuildSynthesisPrompt(memory.Texts(relevant))),
		provider.UserMessage(utterance),
	)

	reply, err := o.generate(ctx, messages)
	if err != nil {
		o.metrics.Turns.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		o.logger.Error("reply generation failed", "error_type", errorType(err), "retryable", provider.IsRetryable(err), "error", err)
		return generationErrorPrefix + err.Error()
	}
	o.metrics.Turns.WithLabelValues("ok").Inc()

	o.persist(ctx, history, messages, utterance, reply)
	return reply
}

func (o *Orchestrator) generate(ctx context.Context, messages []provider.LLMMessage) (string, error) {
	ctx, span := o.tracer.Start(ctx, "agent.Generate",
		trace.WithAttributes(attribute.String("memagent.model", o.provider.ModelName())))
	defer span.End()

	start := time.Now()
	resp, err := o.provider.Complete(ctx, provider.CompletionRequest{
		Messages:    messages,
		Temperature: o.cfg.Temperature,
		MaxTokens:   o.cfg.MaxTokens,
	})
	o.metrics.CompletionDuration.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(
		attribute.Int("memagent.tokens.prompt", resp.Usage.PromptTokens),
		attribute.Int("memagent.tokens.completion", resp.Usage.CompletionTokens),
	)
	return resp.Content, nil
}

// persist stores the exchange as one memory entry. By default that is the
// exact message list sent to the model.
func (o *Orchestrator) persist(ctx context.Context, history, sent []provider.LLMMessage, utterance, reply string) {
	toStore := sent
	if o.cfg.OmitInstruction {
		toStore = make([]provider.LLMMessage, 0, len(history)+2)
		toStore = append(toStore, history...)
		toStore = append(toStore, provider.UserMessage(utterance), provider.AssistantMessage(reply))
	}

	_, err := o.store.Add(ctx, o.cfg.UserID, toStore)
	o.metrics.mutation("add_exchange", err)
	if err != nil {
		o.logger.Error("memory mutation failed", "op", "add_exchange", "error", err)
	}
}

// ListMemories renders every stored fact of the user as a bulleted list.
func (o *Orchestrator) ListMemories(ctx context.Context) string {
	facts, err := o.store.GetAll(ctx, o.cfg.UserID)
	if err != nil {
		return listErrorPrefix + err.Error()
	}
	if len(facts) == 0 {
		return noMemoriesText
	}

	lines := make([]string, 0, len(facts)+1)
	lines = append(lines, memoriesHeader)
	for _, f := range facts {
		lines = append(lines, fmt.Sprintf("- %s", f.Content))
	}
	return strings.Join(lines, "\n")
}
