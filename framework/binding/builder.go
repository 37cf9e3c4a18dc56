package binding

import (
	"reflect"
)

// ── Untyped builder ───────────────────────────────────────────────────────────

// Builder assembles a Binding for a Key known only at runtime.
//
//	binding.For(binding.KeyFor(reflect.TypeOf(app))).ToInstance(app)
type Builder struct {
	key   Key
	scope Scope
}

// For starts a Binding for key in Prototype scope.
func For(key Key) *Builder {
	return &Builder{key: key, scope: Prototype}
}

// Named sets the key's qualifier.
func (b *Builder) Named(name string) *Builder {
	b.key = b.key.Named(name)
	return b
}

// In sets the scope. Instance bindings ignore it and are always singletons.
func (b *Builder) In(scope Scope) *Builder {
	b.scope = scope
	return b
}

// AsSingleton is shorthand for In(Singleton).
func (b *Builder) AsSingleton() *Builder { return b.In(Singleton) }

// ToInstance binds the key to a fixed value.
func (b *Builder) ToInstance(v any) Binding {
	return Binding{key: b.key, scope: Singleton, instance: v, hasInstance: true}
}

// ToProvider binds the key to a factory function.
func (b *Builder) ToProvider(p Provider) Binding {
	return Binding{key: b.key, scope: b.scope, provider: p}
}

// ToConstructor binds the key to a constructor whose parameters are resolved
// by type. fn must be func(A, B, ...) T or func(A, B, ...) (T, error);
// mismatches are reported by Validate.
func (b *Builder) ToConstructor(fn any) Binding {
	v := reflect.ValueOf(fn)
	return Binding{key: b.key, scope: b.scope, constructor: v}
}

// ── Typed builder ─────────────────────────────────────────────────────────────

// TypedBuilder is the compile-time checked form of Builder.
//
//	binding.Bind[*Cache]().AsSingleton().ToProvider(func(r binding.Resolver) (*Cache, error) {
//	    return NewCache(), nil
//	})
//	binding.Bind[Store]().Named("primary").ToInstance(pgStore)
//	binding.Bind[*Service]().ToConstructor(NewService)
type TypedBuilder[T any] struct {
	b *Builder
}

// Bind starts a Binding keyed by T.
func Bind[T any]() *TypedBuilder[T] {
	return &TypedBuilder[T]{b: For(KeyOf[T]())}
}

func (t *TypedBuilder[T]) Named(name string) *TypedBuilder[T] {
	t.b.Named(name)
	return t
}

func (t *TypedBuilder[T]) In(scope Scope) *TypedBuilder[T] {
	t.b.In(scope)
	return t
}

func (t *TypedBuilder[T]) AsSingleton() *TypedBuilder[T] {
	t.b.AsSingleton()
	return t
}

func (t *TypedBuilder[T]) ToInstance(v T) Binding {
	return t.b.ToInstance(v)
}

func (t *TypedBuilder[T]) ToProvider(p func(r Resolver) (T, error)) Binding {
	if p == nil {
		return t.b.ToProvider(nil)
	}
	return t.b.ToProvider(func(r Resolver) (any, error) {
		v, err := p(r)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

func (t *TypedBuilder[T]) ToConstructor(fn any) Binding {
	return t.b.ToConstructor(fn)
}
