package config

import (
	"strings"
	"testing"

	"github.com/flemzord/memagent/internal/core"
	"gopkg.in/yaml.v3"
)

// stubModule is a basic module for testing.
type stubModule struct {
	id string
}

func (m *stubModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  core.ModuleID(m.id),
		New: func() core.Module { return &stubModule{id: m.id} },
	}
}

// registerPair registers one provider and one memory stub unique to the
// test and returns a valid config using them.
func registerPair(t *testing.T) *Config {
	t.Helper()
	provider := "provider." + t.Name()
	store := "memory." + t.Name()
	core.RegisterModule(&stubModule{id: provider})
	core.RegisterModule(&stubModule{id: store})

	cfg := &Config{
		Version: "1",
		Modules: map[string]yaml.Node{provider: {}, store: {}},
	}
	cfg.applyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := registerPair(t)
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingVersion(t *testing.T) {
	cfg := registerPair(t)
	cfg.Version = ""
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "version field is required") {
		t.Fatalf("expected version error, got: %v", err)
	}
}

func TestValidate_UnsupportedVersion(t *testing.T) {
	cfg := registerPair(t)
	cfg.Version = "2"
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), `unsupported version "2"`) {
		t.Fatalf("expected unsupported version error, got: %v", err)
	}
}

func TestValidate_UnknownModule(t *testing.T) {
	cfg := registerPair(t)
	cfg.Modules["channel.nonexistent"] = yaml.Node{}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), `unknown module "channel.nonexistent"`) {
		t.Fatalf("expected unknown module error, got: %v", err)
	}
}

func TestValidate_MissingProviderAndStore(t *testing.T) {
	cfg := &Config{Version: "1"}
	cfg.applyDefaults()
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "a provider.* module is required") {
		t.Errorf("missing provider error in: %s", msg)
	}
	if !strings.Contains(msg, "a memory.* module is required") {
		t.Errorf("missing memory error in: %s", msg)
	}
}

func TestValidate_TwoStores(t *testing.T) {
	cfg := registerPair(t)
	extra := "memory." + t.Name() + ".second"
	core.RegisterModule(&stubModule{id: extra})
	cfg.Modules[extra] = yaml.Node{}

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "exactly one memory.* module is allowed") {
		t.Fatalf("expected duplicate store error, got: %v", err)
	}
}

func TestValidate_AgentLimits(t *testing.T) {
	cfg := registerPair(t)
	cfg.UserID = ""
	cfg.Agent.SearchLimit = -1
	cfg.Agent.TopicPurgeLimit = -5
	temp := 3.0
	cfg.Agent.Temperature = &temp

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{
		"user_id is required",
		"agent.search_limit must be positive",
		"agent.topic_purge_limit must be positive",
		"agent.temperature must be within",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in: %v", want, err)
		}
	}
}
