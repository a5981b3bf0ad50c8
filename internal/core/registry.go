package core

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

var (
	modules   = make(map[ModuleID]ModuleInfo)
	modulesMu sync.RWMutex
)

// RegisterModule adds a module to the registry. It is meant to be called
// from init(). It panics when the ID is empty, lacks a namespace
// ("memory.sqlite" rather than "sqlite"), has no constructor, or is
// already taken.
func RegisterModule(instance Module) {
	info := instance.ModuleInfo()
	if err := info.check(); err != nil {
		panic(err.Error())
	}

	modulesMu.Lock()
	defer modulesMu.Unlock()

	if _, exists := modules[info.ID]; exists {
		panic(fmt.Sprintf("module already registered: %s", info.ID))
	}
	modules[info.ID] = info
}

func (info ModuleInfo) check() error {
	switch {
	case info.ID == "":
		return fmt.Errorf("module ID must not be empty")
	case info.ID.Namespace() == string(info.ID) || info.ID.Namespace() == "":
		return fmt.Errorf("module %s: ID must be <namespace>.<name>", info.ID)
	case info.New == nil:
		return fmt.Errorf("module %s: New function must not be nil", info.ID)
	}
	return nil
}

// GetModule returns the ModuleInfo for the given ID, or false if not found.
func GetModule(id string) (ModuleInfo, bool) {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	info, ok := modules[ModuleID(id)]
	return info, ok
}

// GetModules returns all registered modules sorted by ID.
func GetModules() []ModuleInfo {
	return collect(func(ModuleInfo) bool { return true })
}

// GetModulesByNamespace returns the modules of one namespace sorted by ID,
// e.g. "memory" yields memory.chromem, memory.mem0, memory.sqlite, ...
func GetModulesByNamespace(namespace string) []ModuleInfo {
	return collect(func(info ModuleInfo) bool { return info.ID.Namespace() == namespace })
}

// ModuleIDs returns the IDs of all registered modules in the namespace.
// Config validation lists them when a namespace has no module configured.
func ModuleIDs(namespace string) []string {
	infos := GetModulesByNamespace(namespace)
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = string(info.ID)
	}
	return ids
}

func collect(keep func(ModuleInfo) bool) []ModuleInfo {
	modulesMu.RLock()
	defer modulesMu.RUnlock()

	var result []ModuleInfo
	for _, info := range modules {
		if keep(info) {
			result = append(result, info)
		}
	}
	slices.SortFunc(result, func(a, b ModuleInfo) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return result
}

// resetRegistry clears the registry. Only for testing.
func resetRegistry() {
	modulesMu.Lock()
	defer modulesMu.Unlock()
	modules = make(map[ModuleID]ModuleInfo)
}
