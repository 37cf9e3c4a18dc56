package module

import "sync"

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry is a static list of modules, typically filled from init functions
// of plugin packages, the same pattern database/sql uses for drivers.
//
//	func init() { module.Register(StorageModule{}) }
type Registry struct {
	mu      sync.Mutex
	modules []Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends modules in order.
func (r *Registry) Register(ms ...Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = append(r.modules, ms...)
}

// Modules returns a copy of the registered modules in registration order.
func (r *Registry) Modules() []Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// LoadModules implements the bootstrapper's module loader contract.
func (r *Registry) LoadModules() ([]Module, error) {
	return r.Modules(), nil
}

// Reset empties the registry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = nil
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds modules to the process-wide registry.
func Register(ms ...Module) { defaultRegistry.Register(ms...) }
