// Package gateway provides the optional gateway.http module: health and
// metrics endpoints plus a read-only memory API. It binds to loopback by
// default.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/flemzord/memagent/internal/core"
	"github.com/flemzord/memagent/internal/memory"
	"github.com/flemzord/memagent/internal/provider"
	"github.com/flemzord/memagent/internal/security"
	"github.com/flemzord/memagent/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Gateway{})
}

// Gateway is the HTTP gateway module. Nothing imports it; it reads the
// provider, store and telemetry registry from the service registry.
type Gateway struct {
	config  Config
	appCtx  *core.AppContext
	logger  *slog.Logger
	server  *http.Server
	addr    net.Addr
	limiter *security.RateLimiter
	metrics *Metrics

	// Resolved lazily at Start() via service registry.
	provider provider.Provider
	store    memory.Store
	registry *prometheus.Registry
	audit    *security.AuditLogger
}

// ModuleInfo implements core.Module.
func (g *Gateway) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "gateway.http",
		New: func() core.Module { return &Gateway{} },
	}
}

// Configure implements core.Configurable.
func (g *Gateway) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return err
	}
	g.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (g *Gateway) Provision(ctx *core.AppContext) error {
	g.config.defaults()
	g.appCtx = ctx
	g.logger = ctx.Logger
	g.limiter = security.NewRateLimiter(g.config.RateLimit)
	return nil
}

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + g.config.Bind)
	}
	return nil
}

// resolveServices binds optional collaborators. Missing ones degrade the
// endpoints that need them.
func (g *Gateway) resolveServices() {
	if svc, ok := g.appCtx.Service(provider.ServiceName); ok {
		g.provider, _ = svc.(provider.Provider)
	}
	if svc, ok := g.appCtx.Service(memory.ServiceName); ok {
		g.store, _ = svc.(memory.Store)
	}
	if svc, ok := g.appCtx.Service(telemetry.RegistryService); ok {
		g.registry, _ = svc.(*prometheus.Registry)
	}
	if svc, ok := g.appCtx.Service(security.AuditService); ok {
		g.audit, _ = svc.(*security.AuditLogger)
	}
}

// Start implements core.Starter. It resolves dependencies from the service
// registry and starts the HTTP server.
func (g *Gateway) Start() error {
	g.resolveServices()

	if g.registry == nil {
		g.registry = prometheus.NewRegistry()
	}
	g.metrics = NewMetrics(g.registry)

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen failed: %w", err)
	}
	g.addr = ln.Addr()

	go func() {
		g.logger.Info("gateway listening", "addr", g.addr.String())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address once started.
func (g *Gateway) Addr() net.Addr {
	return g.addr
}

// Stop implements core.Stopper. Graceful shutdown with configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}

var (
	_ core.Configurable = (*Gateway)(nil)
	_ core.Provisioner  = (*Gateway)(nil)
	_ core.Validator    = (*Gateway)(nil)
	_ core.Starter      = (*Gateway)(nil)
	_ core.Stopper      = (*Gateway)(nil)
)
