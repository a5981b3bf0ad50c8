// Package vector implements the memory.vector module: an in-process
// approximate nearest neighbor store built on HNSW graphs with locally
// computed embeddings.
package vector

import (
	"fmt"
	"log/slog"

	"github.com/flemzord/memagent/internal/core"
	"github.com/flemzord/memagent/internal/memory"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Module{})
}

var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
)

// Module wires a vector Store into the application.
type Module struct {
	config Config
	logger *slog.Logger
	store  *Store
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "memory.vector",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("vector: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger
	m.store = NewStore(m.config, nil)

	ctx.RegisterService(memory.ServiceName, m.store)
	m.logger.Info("vector memory module provisioned", "dimensions", m.config.Dimensions)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	return m.config.validate()
}
