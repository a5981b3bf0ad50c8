package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/flemzord/memagent/internal/core"
)

// Validate checks the structural validity of a Config.
// It verifies the version field, the user and agent settings, checks that
// every referenced module ID exists in the registry, and requires exactly
// one completion provider and one memory store.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.UserID == "" {
		errs = append(errs, errors.New("config: user_id is required"))
	}
	if cfg.Agent.SearchLimit <= 0 {
		errs = append(errs, fmt.Errorf("config: agent.search_limit must be positive, got %d", cfg.Agent.SearchLimit))
	}
	if cfg.Agent.TopicPurgeLimit <= 0 {
		errs = append(errs, fmt.Errorf("config: agent.topic_purge_limit must be positive, got %d", cfg.Agent.TopicPurgeLimit))
	}
	if t := cfg.Agent.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Errorf("config: agent.temperature must be within [0, 2], got %g", *t))
	}

	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if _, ok := core.GetModule(id); !ok {
			errs = append(errs, fmt.Errorf("config: unknown module %q", id))
		}
	}

	errs = append(errs, requireOne(ids, "provider")...)
	errs = append(errs, requireOne(ids, "memory")...)

	return errors.Join(errs...)
}

// requireOne checks that exactly one configured module lives in namespace.
func requireOne(ids []string, namespace string) []error {
	var found []string
	for _, id := range ids {
		if namespaceOf(id) == namespace {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 1:
		return nil
	case 0:
		return []error{fmt.Errorf("config: a %s.* module is required (available: %v)", namespace, core.ModuleIDs(namespace))}
	default:
		return []error{fmt.Errorf("config: exactly one %s.* module is allowed, got %v", namespace, found)}
	}
}
