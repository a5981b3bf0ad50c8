package core

// ModuleID uniquely identifies a module, namespaced by dots
// (e.g. "provider.groq", "memory.sqlite").
type ModuleID string

// Namespace returns the part of the ID before the first dot.
func (id ModuleID) Namespace() string {
	for i := 0; i < len(id); i++ {
		if id[i] == '.' {
			return string(id[:i])
		}
	}
	return string(id)
}

// ModuleInfo describes a registered module.
type ModuleInfo struct {
	// ID is the unique module identifier.
	ID ModuleID

	// New returns a fresh, unconfigured instance of the module.
	New func() Module
}

// Module is the interface every module implements. Optional behavior is
// discovered through the lifecycle interfaces in lifecycle.go.
type Module interface {
	ModuleInfo() ModuleInfo
}
