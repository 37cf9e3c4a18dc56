package injector

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrNoFactory is returned by Select when nothing is registered.
	ErrNoFactory = errors.New("injector: no injector factory registered")

	// ErrAmbiguousFactory is matched by *AmbiguousFactoryError.
	ErrAmbiguousFactory = errors.New("injector: more than one injector factory registered")
)

// AmbiguousFactoryError names every registered factory when more than one
// is found. Picking one arbitrarily would make startup depend on
// registration order, so this is a hard error.
type AmbiguousFactoryError struct {
	Factories []string
}

func (e *AmbiguousFactoryError) Error() string {
	return fmt.Sprintf("%s: [%s]", ErrAmbiguousFactory, strings.Join(e.Factories, ", "))
}

func (e *AmbiguousFactoryError) Unwrap() error { return ErrAmbiguousFactory }

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry holds the injector factories known to the process.
type Registry struct {
	mu        sync.Mutex
	factories []Factory
}

// NewRegistry creates a registry, optionally pre-filled.
func NewRegistry(fs ...Factory) *Registry {
	r := &Registry{}
	r.Register(fs...)
	return r
}

// Register adds factories.
func (r *Registry) Register(fs ...Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range fs {
		if f != nil {
			r.factories = append(r.factories, f)
		}
	}
}

// Factories returns a copy of the registered factories.
func (r *Registry) Factories() []Factory {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Factory, len(r.factories))
	copy(out, r.factories)
	return out
}

// Select returns the single registered factory.
func (r *Registry) Select() (Factory, error) {
	fs := r.Factories()
	switch len(fs) {
	case 0:
		return nil, ErrNoFactory
	case 1:
		return fs[0], nil
	}
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = fmt.Sprintf("%s (%T)", f.Name(), f)
	}
	return nil, &AmbiguousFactoryError{Factories: names}
}

// Reset removes every factory.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = nil
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds factories to the process-wide registry. Call it once from
// the composition root before bootstrapping.
func Register(fs ...Factory) { defaultRegistry.Register(fs...) }
