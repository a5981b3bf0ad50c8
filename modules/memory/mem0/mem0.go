// Package mem0 implements the memory.mem0 module, a memory.Store backed by
// a mem0 REST server.
package mem0

import (
	"fmt"
	"log/slog"

	"github.com/flemzord/memagent/internal/core"
	"github.com/flemzord/memagent/internal/memory"
	"github.com/flemzord/memagent/internal/security"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Module{})
}

// CredentialName is the credential store entry holding the API key, when
// one is configured.
const CredentialName = "memory.mem0.api_key"

var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
)

// Module wires a mem0 Client into the application.
type Module struct {
	config Config
	logger *slog.Logger
	client *Client
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "memory.mem0",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("mem0: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner. The API key is optional since
// self-hosted servers usually run without one.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	key, ok := security.ResolveSecret(m.config.APIKey, m.config.APIKeyEnv)
	if ok {
		security.RegisterCredential(ctx, CredentialName, key)
	}

	m.client = NewClient(m.config, key)
	ctx.RegisterService(memory.ServiceName, m.client)
	m.logger.Info("mem0 memory module provisioned",
		"base_url", m.config.BaseURL,
		"authenticated", ok,
		"infer", m.config.Infer,
	)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	return m.config.validate()
}
