// Package agent implements the memory-augmented conversation turn: a
// controller that keeps the user's fact store up to date from each
// utterance, and an orchestrator that answers with those facts in context.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flemzord/memagent/internal/memory"
	"github.com/flemzord/memagent/internal/provider"
	"github.com/flemzord/memagent/internal/security"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Default values for Config.
const (
	DefaultUserID          = "user1"
	DefaultTopicPurgeLimit = 5
	DefaultSearchLimit     = memory.DefaultSearchLimit
)

const tracerName = "github.com/flemzord/memagent/internal/agent"

// Config controls turn behavior.
type Config struct {
	// UserID owns every fact read or written by the agent.
	UserID string

	// SearchLimit caps the facts retrieved as context for a reply.
	SearchLimit int

	// TopicPurgeLimit caps the facts deleted when a decision names a topic.
	TopicPurgeLimit int

	// OmitInstruction stores the exchanged dialogue without the internal
	// synthesis instruction. The zero value stores the full message list
	// sent to the model, instruction included.
	OmitInstruction bool

	// Temperature is forwarded to reply generation when set.
	Temperature *float64

	// MaxTokens is forwarded to reply generation when non-zero.
	MaxTokens int
}

// withDefaults returns a copy with zero fields replaced by defaults.
func (c Config) withDefaults() Config {
	if c.UserID == "" {
		c.UserID = DefaultUserID
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = DefaultSearchLimit
	}
	if c.TopicPurgeLimit <= 0 {
		c.TopicPurgeLimit = DefaultTopicPurgeLimit
	}
	return c
}

// Deps holds the collaborators of a turn. It is built once at startup and
// passed explicitly to the controller and orchestrator.
type Deps struct {
	Provider provider.Provider
	Store    memory.Store

	// Decider classifies utterances. Defaults to an LLMDecider on Provider.
	Decider Decider

	Logger  *slog.Logger
	Metrics *Metrics
	Tracer  trace.Tracer

	// Audit, when set, records every memory created or deleted.
	Audit *security.AuditLogger
}

func (d Deps) withDefaults() (Deps, error) {
	var errs []error
	if d.Provider == nil {
		errs = append(errs, errors.New("agent: provider is required"))
	}
	if d.Store == nil {
		errs = append(errs, errors.New("agent: memory store is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return d, err
	}

	if d.Decider == nil {
		d.Decider = NewLLMDecider(d.Provider)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics(nil)
	}
	if d.Tracer == nil {
		d.Tracer = noop.NewTracerProvider().Tracer(tracerName)
	}
	return d, nil
}

// errorType names the failure class of err for logs and metric labels.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, provider.ErrRateLimit):
		return "rate_limit"
	case errors.Is(err, provider.ErrProviderDown):
		return "provider_down"
	case errors.Is(err, provider.ErrAuthentication):
		return "authentication"
	case errors.Is(err, provider.ErrContextLength):
		return "context_length"
	case errors.Is(err, provider.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrMalformedDecision):
		return "malformed_decision"
	default:
		inner := err
		for u := errors.Unwrap(inner); u != nil; u = errors.Unwrap(inner) {
			inner = u
		}
		return fmt.Sprintf("%T", inner)
	}
}
