package module

import (
	"sync"

	"github.com/km-arc/go-bootstrap/framework/binding"
)

// ── Module interface ──────────────────────────────────────────────────────────

// Module is a named bundle of Bindings that may depend on other modules.
// Modules it depends on are resolved first, so their bindings can be
// overridden by the dependent module.
//
//	type StorageModule struct{ module.BaseModule }
//
//	func (StorageModule) Name() string           { return "storage" }
//	func (StorageModule) Dependencies() []string { return []string{"config"} }
//	func (StorageModule) Bindings() []binding.Binding {
//	    return []binding.Binding{
//	        binding.Bind[*sql.DB]().AsSingleton().ToProvider(openDB),
//	    }
//	}
type Module interface {
	// Name must be unique within one resolution run.
	Name() string

	// Dependencies names the modules that must be resolved before this one.
	Dependencies() []string

	// Bindings returns the module's bindings in declaration order.
	Bindings() []binding.Binding
}

// ── BaseModule ────────────────────────────────────────────────────────────────

// BaseModule is an embeddable struct with no dependencies and no bindings.
// Embed it and only override what you need.
type BaseModule struct{}

func (BaseModule) Dependencies() []string      { return nil }
func (BaseModule) Bindings() []binding.Binding { return nil }

// ── Functional modules ────────────────────────────────────────────────────────

// Binder collects bindings while a module configures itself.
type Binder struct {
	bindings []binding.Binding
}

// Install appends bindings in order.
func (b *Binder) Install(bs ...binding.Binding) *Binder {
	b.bindings = append(b.bindings, bs...)
	return b
}

// Option configures a module built with New.
type Option func(*funcModule)

// DependsOn declares modules that must be resolved first.
func DependsOn(names ...string) Option {
	return func(m *funcModule) {
		m.deps = append(m.deps, names...)
	}
}

type funcModule struct {
	name      string
	deps      []string
	configure func(*Binder)

	once     sync.Once
	bindings []binding.Binding
}

// New builds a Module from a configure function. configure runs once, the
// first time Bindings is called.
//
//	module.New("cache", func(b *module.Binder) {
//	    b.Install(binding.Bind[*Cache]().AsSingleton().ToConstructor(NewCache))
//	}, module.DependsOn("config"))
func New(name string, configure func(*Binder), opts ...Option) Module {
	m := &funcModule{name: name, configure: configure}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *funcModule) Name() string { return m.name }

func (m *funcModule) Dependencies() []string {
	out := make([]string, len(m.deps))
	copy(out, m.deps)
	return out
}

func (m *funcModule) Bindings() []binding.Binding {
	m.once.Do(func() {
		b := &Binder{}
		if m.configure != nil {
			m.configure(b)
		}
		m.bindings = b.bindings
	})
	out := make([]binding.Binding, len(m.bindings))
	copy(out, m.bindings)
	return out
}
