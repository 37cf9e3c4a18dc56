package container

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/km-arc/go-bootstrap/framework/binding"
)

var (
	// ErrUnbound is returned when no binding exists for a key.
	ErrUnbound = errors.New("container: no binding registered")

	// ErrCircularDependency is matched by *CircularDependencyError.
	ErrCircularDependency = errors.New("container: circular dependency")

	// ErrNoRequestScope is returned when a request-scoped key is resolved
	// outside a RequestScope, or from a singleton.
	ErrNoRequestScope = errors.New("container: request-scoped binding resolved outside a request")

	// ErrScopeClosed is returned by a RequestScope after Close.
	ErrScopeClosed = errors.New("container: request scope closed")
)

// CircularDependencyError carries the resolution path that looped.
type CircularDependencyError struct {
	Path []binding.Key
}

func (e *CircularDependencyError) Error() string {
	parts := make([]string, len(e.Path))
	for i, k := range e.Path {
		parts[i] = k.String()
	}
	return fmt.Sprintf("%s: %s", ErrCircularDependency, strings.Join(parts, " -> "))
}

func (e *CircularDependencyError) Unwrap() error { return ErrCircularDependency }

// ── Container ─────────────────────────────────────────────────────────────────

// Extender decorates a freshly built instance.
type Extender func(instance any, r binding.Resolver) (any, error)

// cell holds one lazily built shared instance. Failed builds are not cached.
type cell struct {
	mu    sync.Mutex
	done  bool
	value any
}

// Container is the default Injector. It resolves Keys according to each
// binding's scope:
//
//   - Singleton: built once per container, on first use
//   - Prototype: built on every Get
//   - Request:   built once per RequestScope
//
// It supports:
//   - Bind / Instance
//   - Get / Has / Keys / Resolved
//   - Extend (decorate resolved instances)
//   - AfterResolving callbacks
//   - Request scopes
type Container struct {
	mu sync.RWMutex

	// key → binding
	bindings map[binding.Key]binding.Binding

	// keys in the order they were first bound
	order []binding.Key

	// key → singleton cell
	singletons map[binding.Key]*cell

	// key → extender funcs
	extenders map[binding.Key][]Extender

	// resolved callbacks
	afterResolving []func(binding.Key, any)
}

// New creates an empty container.
func New() *Container {
	return &Container{
		bindings:   make(map[binding.Key]binding.Binding),
		singletons: make(map[binding.Key]*cell),
		extenders:  make(map[binding.Key][]Extender),
	}
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers b, replacing any binding for the same key. A cached
// singleton for that key is dropped so the next Get rebuilds it.
//
//	c.Bind(binding.Bind[Cache]().AsSingleton().ToConstructor(cache.NewRedis))
func (c *Container) Bind(b binding.Binding) error {
	if err := b.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := b.Key()
	if _, exists := c.bindings[key]; !exists {
		c.order = append(c.order, key)
	}
	c.bindings[key] = b
	delete(c.singletons, key)
	return nil
}

// Instance registers a pre-built value as a singleton.
//
//	c.Instance(binding.KeyOf[*config.Config](), cfg)
func (c *Container) Instance(key binding.Key, v any) error {
	return c.Bind(binding.For(key).ToInstance(v))
}

// Extend decorates every instance built for key from now on. Already cached
// singletons are rebuilt on next use.
//
//	c.Extend(binding.KeyOf[Logger](), func(inst any, _ binding.Resolver) (any, error) {
//	    return WithTimestamps(inst.(Logger)), nil
//	})
func (c *Container) Extend(key binding.Key, fn Extender) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extenders[key] = append(c.extenders[key], fn)
	delete(c.singletons, key)
}

// AfterResolving registers a callback fired after any instance is built.
func (c *Container) AfterResolving(cb func(key binding.Key, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get resolves key. Request-scoped keys must go through a RequestScope.
func (c *Container) Get(key binding.Key) (any, error) {
	return c.resolve(&resolution{c: c}, key)
}

// resolution is the Resolver handed to providers and constructors. It
// remembers the path taken so far to detect cycles.
type resolution struct {
	c     *Container
	scope *RequestScope
	path  []binding.Key
}

func (r *resolution) Get(key binding.Key) (any, error) {
	return r.c.resolve(r, key)
}

func (c *Container) resolve(r *resolution, key binding.Key) (any, error) {
	if slices.Contains(r.path, key) {
		path := append(slices.Clone(r.path), key)
		return nil, &CircularDependencyError{Path: path}
	}

	c.mu.RLock()
	b, ok := c.bindings[key]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrUnbound, key)
	}

	next := &resolution{c: c, scope: r.scope, path: append(slices.Clone(r.path), key)}

	switch b.Scope() {
	case binding.Singleton:
		// shared instances never see the request they happened to be built in
		next.scope = nil
		return c.shared(c.singletonCell(key), func() (any, error) { return c.build(next, b) })
	case binding.Request:
		if r.scope == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoRequestScope, key)
		}
		cl, err := r.scope.cell(key)
		if err != nil {
			return nil, err
		}
		return c.shared(cl, func() (any, error) { return c.build(next, b) })
	default:
		return c.build(next, b)
	}
}

func (c *Container) singletonCell(key binding.Key) *cell {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl, ok := c.singletons[key]
	if !ok {
		cl = &cell{}
		c.singletons[key] = cl
	}
	return cl
}

func (c *Container) shared(cl *cell, build func() (any, error)) (any, error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.done {
		return cl.value, nil
	}
	v, err := build()
	if err != nil {
		return nil, err
	}
	cl.value, cl.done = v, true
	return v, nil
}

func (c *Container) build(r *resolution, b binding.Binding) (any, error) {
	key := b.Key()
	instance, err := b.Create(r)
	if err != nil {
		return nil, fmt.Errorf("container: resolving %s: %w", key, err)
	}

	c.mu.RLock()
	exts := slices.Clone(c.extenders[key])
	cbs := slices.Clone(c.afterResolving)
	c.mu.RUnlock()

	for _, ext := range exts {
		if instance, err = ext(instance, r); err != nil {
			return nil, fmt.Errorf("container: extending %s: %w", key, err)
		}
	}
	for _, cb := range cbs {
		cb(key, instance)
	}
	return instance, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Has reports whether key is bound.
func (c *Container) Has(key binding.Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bindings[key]
	return ok
}

// Resolved reports whether a singleton for key has been built.
func (c *Container) Resolved(key binding.Key) bool {
	c.mu.RLock()
	cl, ok := c.singletons[key]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.done
}

// Binding returns the binding registered for key.
func (c *Container) Binding(key binding.Key) (binding.Binding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bindings[key]
	return b, ok
}

// Keys returns the bound keys in the order they were first bound.
func (c *Container) Keys() []binding.Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Forget removes the binding and any cached instance for key.
func (c *Container) Forget(key binding.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bindings, key)
	delete(c.singletons, key)
	c.order = slices.DeleteFunc(c.order, func(k binding.Key) bool { return k == key })
}
