// Package chromem implements the memory.chromem module on top of the
// chromem-go embedded vector database.
package chromem

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

// Module wires a chromem Store into the application.
type Module struct {
	config Config
	logger *slog.Logger
	store  *Store
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "memory.chromem",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("chromem: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	if err := m.config.validate(); err != nil {
		return err
	}

	store, err := NewStore(m.config, nil)
	if err != nil {
		return err
	}
	m.store = store

	ctx.RegisterService(memory.ServiceName, store)
	m.logger.Info("chromem memory module provisioned",
		"persistent", m.config.Path != "",
		"compress", m.config.Compress,
	)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	return m.config.validate()
}
