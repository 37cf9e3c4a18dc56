package appcontext

import (
	"sort"
	"sync"
	"weak"
)

// ── Context ───────────────────────────────────────────────────────────────────

// Context is a hierarchical key/value store. Lookups that miss locally are
// delegated to the parent; mutations only ever touch the local entries.
//
// The parent link is weak: a child never keeps its parent alive. Whoever
// created the parent owns its lifetime.
//
//	root := appcontext.New(nil)
//	root.Put("theme", "dark")
//
//	view := root.Child()
//	view.Put("theme", "light")      // shadows root
//	view.HasKey("locale")           // false
//	view.GetAsStringOr("theme", "") // "light"
//
// A Context is safe for concurrent use.
type Context struct {
	mu        sync.RWMutex
	entries   map[string]Value
	parent    weak.Pointer[Context]
	hasParent bool
}

// New creates a Context delegating to parent. A nil parent makes a root.
func New(parent *Context) *Context {
	c := &Context{entries: make(map[string]Value)}
	if parent != nil {
		c.parent = weak.Make(parent)
		c.hasParent = true
	}
	return c
}

// Child creates a new Context whose parent is c.
func (c *Context) Child() *Context {
	return New(c)
}

// Parent returns the parent Context, or nil for a root, a destroyed Context,
// or a parent that has already been collected.
func (c *Context) Parent() *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.parentLocked()
}

func (c *Context) parentLocked() *Context {
	if !c.hasParent {
		return nil
	}
	return c.parent.Value()
}

// ── Mutation ──────────────────────────────────────────────────────────────────

// Put stores value under key in this Context, replacing any previous value.
func (c *Context) Put(key string, value any) {
	c.PutValue(key, ValueOf(value))
}

// PutValue stores an already classified Value.
func (c *Context) PutValue(key string, value Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]Value)
	}
	c.entries[key] = value
}

// PutAll stores every entry of values.
func (c *Context) PutAll(values map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]Value, len(values))
	}
	for k, v := range values {
		c.entries[k] = ValueOf(v)
	}
}

// Remove deletes key from this Context only and returns the previous value.
// The key may still be visible through the parent afterwards.
func (c *Context) Remove(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	delete(c.entries, key)
	return v.Interface(), true
}

// Destroy clears the local entries and drops the parent link. The parent
// itself is left untouched. Calling Destroy more than once is a no-op.
func (c *Context) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.parent = weak.Pointer[Context]{}
	c.hasParent = false
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// HasKey reports whether key is defined in this Context, ignoring the parent.
func (c *Context) HasKey(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok
}

// ContainsKey reports whether key is visible from this Context, either
// locally or through the parent chain.
func (c *Context) ContainsKey(key string) bool {
	_, ok := c.Lookup(key)
	return ok
}

// Lookup resolves key through the chain and returns the stored Value.
func (c *Context) Lookup(key string) (Value, bool) {
	// The local lock is released before walking to the parent so that
	// concurrent writers on different levels never wait on each other.
	for ctx := c; ctx != nil; {
		ctx.mu.RLock()
		v, ok := ctx.entries[key]
		next := ctx.parentLocked()
		ctx.mu.RUnlock()
		if ok {
			return v, true
		}
		ctx = next
	}
	return Value{}, false
}

// Get resolves key through the chain.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.Lookup(key)
	if !ok {
		return nil, false
	}
	return v.Interface(), true
}

// GetOr resolves key through the chain, returning defaultValue when absent.
func (c *Context) GetOr(key string, defaultValue any) any {
	if v, ok := c.Get(key); ok {
		return v
	}
	return defaultValue
}

// Keys returns the keys defined in this Context only, sorted.
func (c *Context) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys defined in this Context only.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ── Typed accessors ───────────────────────────────────────────────────────────
//
// Typed accessors never fail: an absent key or a value that cannot be
// converted yields the zero value, or the supplied default for the ...Or forms.

func (c *Context) GetAsBool(key string) bool { return c.GetAsBoolOr(key, false) }

func (c *Context) GetAsBoolOr(key string, defaultValue bool) bool {
	if v, ok := c.Lookup(key); ok {
		if b, ok := v.AsBool(); ok {
			return b
		}
	}
	return defaultValue
}

func (c *Context) GetAsInt(key string) int { return c.GetAsIntOr(key, 0) }

func (c *Context) GetAsIntOr(key string, defaultValue int) int {
	if v, ok := c.Lookup(key); ok {
		if i, ok := v.AsInt(); ok {
			return i
		}
	}
	return defaultValue
}

func (c *Context) GetAsInt64(key string) int64 { return c.GetAsInt64Or(key, 0) }

func (c *Context) GetAsInt64Or(key string, defaultValue int64) int64 {
	if v, ok := c.Lookup(key); ok {
		if i, ok := v.AsInt64(); ok {
			return i
		}
	}
	return defaultValue
}

func (c *Context) GetAsFloat32(key string) float32 { return c.GetAsFloat32Or(key, 0) }

func (c *Context) GetAsFloat32Or(key string, defaultValue float32) float32 {
	if v, ok := c.Lookup(key); ok {
		if f, ok := v.AsFloat32(); ok {
			return f
		}
	}
	return defaultValue
}

func (c *Context) GetAsFloat64(key string) float64 { return c.GetAsFloat64Or(key, 0) }

func (c *Context) GetAsFloat64Or(key string, defaultValue float64) float64 {
	if v, ok := c.Lookup(key); ok {
		if f, ok := v.AsFloat64(); ok {
			return f
		}
	}
	return defaultValue
}

// GetAsString returns the string form of key. The second result is false
// when the key is absent or holds nil, which is distinct from "".
func (c *Context) GetAsString(key string) (string, bool) {
	v, ok := c.Lookup(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

func (c *Context) GetAsStringOr(key string, defaultValue string) string {
	if s, ok := c.GetAsString(key); ok {
		return s
	}
	return defaultValue
}

// ── Generics helper ───────────────────────────────────────────────────────────

// As resolves key and converts it to T. Basic kinds go through the same
// coercion as the typed accessors; any other T requires the stored value to
// already be a T.
//
//	port := appcontext.As[int](ctx, "server.port")
//	srv  := appcontext.As[*Server](ctx, "server")
func As[T any](c *Context, key string) T {
	var zero T
	return AsOr(c, key, zero)
}

// AsOr is As with an explicit fallback.
func AsOr[T any](c *Context, key string, defaultValue T) T {
	v, ok := c.Lookup(key)
	if !ok {
		return defaultValue
	}
	if t, ok := v.Interface().(T); ok {
		return t
	}
	var converted any
	switch any(defaultValue).(type) {
	case bool:
		converted, ok = v.AsBool()
	case int:
		converted, ok = v.AsInt()
	case int64:
		converted, ok = v.AsInt64()
	case float32:
		converted, ok = v.AsFloat32()
	case float64:
		converted, ok = v.AsFloat64()
	case string:
		converted, ok = v.AsString()
	default:
		return defaultValue
	}
	if !ok {
		return defaultValue
	}
	return converted.(T)
}
