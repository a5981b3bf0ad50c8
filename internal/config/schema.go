// Package config handles YAML configuration loading, environment variable
// expansion, environment overrides, and structural validation for memagent.
package config

import (
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingCredentials indicates a required API key could not be resolved
// from the configuration or the environment.
var ErrMissingCredentials = errors.New("config: missing credentials")

// Defaults applied when the corresponding field is zero.
const (
	DefaultUserID          = "user1"
	DefaultSearchLimit     = 100
	DefaultTopicPurgeLimit = 5
	DefaultServiceName     = "memagent"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// UserID owns every memory read or written during a session.
	UserID string `yaml:"user_id"`

	Agent     AgentConfig     `yaml:"agent"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "memory.sqlite").
	Modules map[string]yaml.Node `yaml:"modules"`
}

// AgentConfig tunes the conversation turn.
type AgentConfig struct {
	// SearchLimit caps the memories retrieved as reply context.
	SearchLimit int `yaml:"search_limit"`

	// TopicPurgeLimit caps the memories deleted when a topic is updated.
	TopicPurgeLimit int `yaml:"topic_purge_limit"`

	// PersistInstruction stores the reply instruction along with the
	// dialogue. Nil means true.
	PersistInstruction *bool `yaml:"persist_instruction"`

	Temperature *float64 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
}

// PersistsInstruction reports whether the reply instruction is stored.
func (a AgentConfig) PersistsInstruction() bool {
	return a.PersistInstruction == nil || *a.PersistInstruction
}

// TelemetryConfig configures tracing export.
type TelemetryConfig struct {
	// OTLPEndpoint is the host:port of an OTLP/HTTP collector.
	// Empty disables trace export.
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Insecure sends traces over plain HTTP.
	Insecure bool `yaml:"insecure"`

	ServiceName string `yaml:"service_name"`
}

// Default returns the configuration used when no file is found: Groq for
// completions and SQLite for memories.
func Default() *Config {
	cfg := &Config{
		Version: "1",
		UserID:  DefaultUserID,
		Modules: map[string]yaml.Node{
			"provider.groq": emptyMapping(),
			"memory.sqlite": emptyMapping(),
		},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero fields.
func (c *Config) applyDefaults() {
	if c.UserID == "" {
		c.UserID = DefaultUserID
	}
	if c.Agent.SearchLimit == 0 {
		c.Agent.SearchLimit = DefaultSearchLimit
	}
	if c.Agent.TopicPurgeLimit == 0 {
		c.Agent.TopicPurgeLimit = DefaultTopicPurgeLimit
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}
}

func emptyMapping() yaml.Node {
	return yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}
