package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/flemzord/memagent/internal/memory"
	"github.com/flemzord/memagent/internal/provider"
	"github.com/flemzord/memagent/internal/security"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Controller keeps a user's facts in line with what they say. Every failure
// is logged and swallowed: a turn never fails because memory upkeep did.
type Controller struct {
	store   memory.Store
	decider Decider
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	audit   *security.AuditLogger
	cfg     Config
}

// NewController creates a Controller from explicit dependencies.
func NewController(deps Deps, cfg Config) (*Controller, error) {
	deps, err := deps.withDefaults()
	if err != nil {
		return nil, err
	}
	return newController(deps, cfg.withDefaults()), nil
}

func newController(deps Deps, cfg Config) *Controller {
	return &Controller{
		store:   deps.Store,
		decider: deps.Decider,
		logger:  deps.Logger.With("component", "memory-controller"),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		audit:   deps.Audit,
		cfg:     cfg,
	}
}

// EvaluateAndApply classifies utterance against userID's current facts and
// applies the resulting decision to the store.
func (c *Controller) EvaluateAndApply(ctx context.Context, utterance, userID string) {
	ctx, span := c.tracer.Start(ctx, "agent.EvaluateAndApply",
		trace.WithAttributes(attribute.String("memagent.user_id", userID)))
	defer span.End()

	facts, err := c.store.GetAll(ctx, userID)
	if err != nil {
		c.analysisFailed(span, err)
		return
	}

	start := time.Now()
	decision, err := c.decider.Decide(ctx, utterance, memory.Texts(facts))
	c.metrics.CompletionDuration.WithLabelValues("decide").Observe(time.Since(start).Seconds())
	if err != nil {
		c.analysisFailed(span, err)
		return
	}

	c.logger.Info("memory analysis", "decision", decision.String())
	c.metrics.Decisions.WithLabelValues(decision.Outcome()).Inc()
	span.SetAttributes(attribute.String("memagent.decision", decision.Outcome()))
	if decision.IsEmpty() {
		return
	}

	var matches []memory.Fact
	if decision.Topic != "" {
		found, err := c.store.Search(ctx, userID, decision.Topic, c.cfg.TopicPurgeLimit)
		if err != nil {
			c.mutationFailed(span, "search", err)
			return
		}
		for _, f := range found {
			if f.ID != "" {
				matches = append(matches, f)
			}
		}
	}

	var messages []provider.LLMMessage
	if fact := decision.Fact(); fact != "" {
		messages = []provider.LLMMessage{provider.UserMessage(fact)}
	}

	if r, ok := c.store.(memory.Replacer); ok {
		c.replace(ctx, span, r, userID, decision, matches, messages)
		return
	}
	c.applySequential(ctx, span, userID, decision, matches, messages)
}

// replace purges and adds in one atomic store call.
func (c *Controller) replace(ctx context.Context, span trace.Span, r memory.Replacer, userID string, d Decision, matches []memory.Fact, messages []provider.LLMMessage) {
	if len(matches) == 0 && len(messages) == 0 {
		return
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	added, err := r.Replace(ctx, userID, ids, messages)
	c.metrics.mutation("replace", err)
	if err != nil {
		c.mutationFailed(span, "replace", err)
		return
	}
	for _, m := range matches {
		c.deleted(userID, d.Topic, m)
	}
	if len(messages) > 0 {
		c.created(userID, d.Fact(), added)
	}
}

// applySequential deletes then adds with one store call each. A failure
// stops the sequence, so a purge may land without its replacement.
func (c *Controller) applySequential(ctx context.Context, span trace.Span, userID string, d Decision, matches []memory.Fact, messages []provider.LLMMessage) {
	for _, m := range matches {
		err := c.store.Delete(ctx, m.ID)
		if errors.Is(err, memory.ErrFactNotFound) {
			continue
		}
		c.metrics.mutation("delete", err)
		if err != nil {
			c.mutationFailed(span, "delete", err)
			return
		}
		c.deleted(userID, d.Topic, m)
	}

	if len(messages) == 0 {
		return
	}
	added, err := c.store.Add(ctx, userID, messages)
	c.metrics.mutation("add", err)
	if err != nil {
		c.mutationFailed(span, "add", err)
		return
	}
	c.created(userID, d.Fact(), added)
}

func (c *Controller) deleted(userID, topic string, f memory.Fact) {
	c.logger.Info("memory deleted", "topic", topic, "id", f.ID, "memory", f.Content)
	c.audit.Log(security.AuditEvent{
		Type:     security.EventMemoryDeleted,
		UserID:   userID,
		FactID:   f.ID,
		Detail:   f.Content,
		Metadata: map[string]string{"topic": topic},
	})
}

func (c *Controller) created(userID, fact string, added []memory.Fact) {
	c.logger.Info("memory created", "fact", fact)
	var id string
	if len(added) > 0 {
		id = added[0].ID
	}
	c.audit.Log(security.AuditEvent{
		Type:   security.EventMemoryCreated,
		UserID: userID,
		FactID: id,
		Detail: fact,
	})
}

func (c *Controller) analysisFailed(span trace.Span, err error) {
	c.metrics.Decisions.WithLabelValues("failed").Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, "memory analysis failed")
	c.logger.Warn("memory analysis failed", "error_type", errorType(err), "error", err)
}

func (c *Controller) mutationFailed(span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "memory mutation failed")
	c.logger.Error("memory mutation failed", "op", op, "error", err)
}
