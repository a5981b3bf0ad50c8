package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Overrides are settings read from MEMAGENT_* environment variables.
// They win over the configuration file.
type Overrides struct {
	UserID string `env:"MEMAGENT_USER_ID"`

	// Model replaces the model of the configured provider module.
	Model string `env:"MEMAGENT_MODEL"`

	// Store selects the memory module by name (sqlite, vector, chromem,
	// mem0), replacing whichever one the file configures.
	Store string `env:"MEMAGENT_STORE"`

	PersistInstruction *bool `env:"MEMAGENT_PERSIST_INSTRUCTION"`
}

// LoadOverrides reads Overrides from the process environment.
func LoadOverrides() (Overrides, error) {
	o, err := env.ParseAs[Overrides]()
	if err != nil {
		return Overrides{}, fmt.Errorf("config: environment overrides: %w", err)
	}
	return o, nil
}

// Apply merges the overrides into cfg.
func (o Overrides) Apply(cfg *Config) error {
	if o.UserID != "" {
		cfg.UserID = o.UserID
	}
	if o.PersistInstruction != nil {
		v := *o.PersistInstruction
		cfg.Agent.PersistInstruction = &v
	}
	if cfg.Modules == nil {
		cfg.Modules = make(map[string]yaml.Node)
	}

	if o.Store != "" {
		id := "memory." + strings.TrimPrefix(strings.ToLower(o.Store), "memory.")
		kept, hasKept := cfg.Modules[id]
		for name := range cfg.Modules {
			if namespaceOf(name) == "memory" {
				delete(cfg.Modules, name)
			}
		}
		if !hasKept {
			kept = emptyMapping()
		}
		cfg.Modules[id] = kept
	}

	if o.Model != "" {
		for name, node := range cfg.Modules {
			if namespaceOf(name) != "provider" {
				continue
			}
			updated, err := setKey(node, "model", o.Model)
			if err != nil {
				return fmt.Errorf("config: overriding model of %s: %w", name, err)
			}
			cfg.Modules[name] = updated
		}
	}
	return nil
}

// setKey returns a copy of a mapping node with key set to value.
func setKey(node yaml.Node, key, value string) (yaml.Node, error) {
	fields := map[string]any{}
	if node.Kind != 0 {
		if err := node.Decode(&fields); err != nil {
			return yaml.Node{}, err
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}
	fields[key] = value

	var out yaml.Node
	if err := out.Encode(fields); err != nil {
		return yaml.Node{}, err
	}
	return out, nil
}

func namespaceOf(id string) string {
	ns, _, _ := strings.Cut(id, ".")
	return ns
}
