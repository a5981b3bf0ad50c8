package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/memagent/internal/agent"
	"github.com/flemzord/memagent/internal/config"
	"github.com/flemzord/memagent/internal/core"
	"github.com/flemzord/memagent/internal/memory"
	"github.com/flemzord/memagent/internal/provider"
	"github.com/flemzord/memagent/internal/security"
)

const shutdownTimeout = 10 * time.Second

// agentDeps are the process-wide collaborators built before modules load.
type agentDeps struct {
	logger   *slog.Logger
	registry prometheus.Registerer
	tracer   trace.Tracer
	audit    *security.AuditLogger
}

// wireAgent resolves the provider and memory store registered by modules
// during Provision and builds the orchestrator on top of them.
// Must be called after LoadModules.
func wireAgent(appCtx *core.AppContext, cfg *config.Config, d agentDeps) (*agent.Orchestrator, error) {
	p, err := lookup[provider.Provider](appCtx, provider.ServiceName)
	if err != nil {
		return nil, err
	}
	store, err := lookup[memory.Store](appCtx, memory.ServiceName)
	if err != nil {
		return nil, err
	}

	deps := agent.Deps{
		Provider: p,
		Store:    store,
		Logger:   d.logger,
		Metrics:  agent.NewMetrics(d.registry),
		Tracer:   d.tracer,
		Audit:    d.audit,
	}
	return agent.NewOrchestrator(deps, agentConfig(cfg))
}

func agentConfig(cfg *config.Config) agent.Config {
	return agent.Config{
		UserID:          cfg.UserID,
		SearchLimit:     cfg.Agent.SearchLimit,
		TopicPurgeLimit: cfg.Agent.TopicPurgeLimit,
		OmitInstruction: !cfg.Agent.PersistsInstruction(),
		Temperature:     cfg.Agent.Temperature,
		MaxTokens:       cfg.Agent.MaxTokens,
	}
}

// lookup fetches a service and asserts its type.
func lookup[T any](appCtx *core.AppContext, name string) (T, error) {
	var zero T
	svc, ok := appCtx.Service(name)
	if !ok {
		return zero, fmt.Errorf("app: no module registered service %q", name)
	}
	v, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("app: service %q has unexpected type %T", name, svc)
	}
	return v, nil
}
