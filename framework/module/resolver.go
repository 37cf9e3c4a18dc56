package module

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/binding"
)

// ── ResolvedBindingSet ────────────────────────────────────────────────────────

// ResolvedBindingSet is the ordered, de-duplicated result of a resolution
// run. It is read-only once returned.
type ResolvedBindingSet struct {
	bindings []binding.Binding
	index    map[binding.Key]int
	modules  []string
}

func newResolvedBindingSet() *ResolvedBindingSet {
	return &ResolvedBindingSet{index: make(map[binding.Key]int)}
}

// put inserts b. An existing key keeps its position and takes the new binding.
func (s *ResolvedBindingSet) put(b binding.Binding) (replaced binding.Binding, ok bool) {
	if i, exists := s.index[b.Key()]; exists {
		replaced = s.bindings[i]
		s.bindings[i] = b
		return replaced, true
	}
	s.index[b.Key()] = len(s.bindings)
	s.bindings = append(s.bindings, b)
	return binding.Binding{}, false
}

// Len returns the number of distinct keys.
func (s *ResolvedBindingSet) Len() int { return len(s.bindings) }

// Get returns the binding that won for key.
func (s *ResolvedBindingSet) Get(key binding.Key) (binding.Binding, bool) {
	i, ok := s.index[key]
	if !ok {
		return binding.Binding{}, false
	}
	return s.bindings[i], true
}

// Bindings returns a copy of the bindings in insertion order.
func (s *ResolvedBindingSet) Bindings() []binding.Binding {
	out := make([]binding.Binding, len(s.bindings))
	copy(out, s.bindings)
	return out
}

// Keys returns a copy of the keys in insertion order.
func (s *ResolvedBindingSet) Keys() []binding.Key {
	out := make([]binding.Key, len(s.bindings))
	for i, b := range s.bindings {
		out[i] = b.Key()
	}
	return out
}

// Modules returns the module names in resolution order.
func (s *ResolvedBindingSet) Modules() []string {
	out := make([]string, len(s.modules))
	copy(out, s.modules)
	return out
}

// ── Resolver ──────────────────────────────────────────────────────────────────

// Resolver orders modules by their declared dependencies and merges their
// bindings into one ResolvedBindingSet.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a Resolver. A nil logger disables logging.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve orders core followed by modules and collects their bindings.
//
// The core module, if any, always comes first and its keys cannot be rebound
// by later modules. Every other module follows its dependencies; ties keep
// declaration order. For the same key a later module replaces an earlier one.
func (r *Resolver) Resolve(core Module, modules []Module) (*ResolvedBindingSet, error) {
	all := make([]Module, 0, len(modules)+1)
	coreName := ""
	if core != nil {
		all = append(all, core)
		coreName = core.Name()
	}
	all = append(all, modules...)

	byName := make(map[string]Module, len(all))
	g := newGraph()
	for i, m := range all {
		name := m.Name()
		if prev, dup := byName[name]; dup {
			return nil, &DuplicateModuleError{Name: name, First: prev, Second: m}
		}
		byName[name] = m
		var deps []string
		if core == nil || i > 0 {
			deps = m.Dependencies()
		}
		g.add(name, deps)
	}

	ordered, residual := g.sort()
	if len(residual) > 0 {
		return nil, &DependencyError{Modules: residual, Missing: g.missing(residual)}
	}
	r.logger.Debug("Module resolution order", zap.Strings("modules", ordered))

	set := newResolvedBindingSet()
	set.modules = ordered
	coreKeys := make(map[binding.Key]bool)

	for _, name := range ordered {
		m := byName[name]
		isCore := core != nil && name == coreName
		r.logger.Debug("Loading module bindings", zap.String("module", name), zap.String("type", fmt.Sprintf("%T", m)))

		for _, b := range m.Bindings() {
			if err := b.Validate(); err != nil {
				return nil, &BindingError{Module: name, Key: b.Key(), Err: err}
			}
			if !isCore && coreKeys[b.Key()] {
				return nil, fmt.Errorf("%w: %s rebound by module %s", ErrCoreOverride, b.Key(), strconv.Quote(name))
			}
			b = b.WithSource(name)
			if prev, replaced := set.put(b); replaced {
				r.logger.Debug("Binding overridden",
					zap.Stringer("key", b.Key()),
					zap.String("previous", prev.Source()),
					zap.String("module", name))
			}
			if isCore {
				coreKeys[b.Key()] = true
			}
			r.logger.Debug("Binding", zap.Stringer("binding", b))
		}
	}
	return set, nil
}

// Resolve is shorthand for NewResolver(nil).Resolve(core, modules).
func Resolve(core Module, modules ...Module) (*ResolvedBindingSet, error) {
	return NewResolver(nil).Resolve(core, modules)
}
