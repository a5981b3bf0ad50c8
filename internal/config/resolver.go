package config

import (
	"cmp"
	"slices"
)

// loadRank orders namespaces so services exist before their consumers:
// providers first, then memory stores, then everything else.
var loadRank = map[string]int{
	"provider": 0,
	"memory":   1,
}

// Resolve returns the module IDs from the configuration in load order.
// The deterministic order ensures consistent module loading.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		return cmp.Or(
			cmp.Compare(rank(a), rank(b)),
			cmp.Compare(a, b),
		)
	})
	return ids
}

func rank(id string) int {
	if r, ok := loadRank[namespaceOf(id)]; ok {
		return r
	}
	return len(loadRank)
}
