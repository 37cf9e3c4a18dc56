// Package injector defines the contract between the bootstrapper and the
// component that turns a resolved binding set into live instances.
//
// Any implementation can back the bootstrap pipeline: register exactly one
// Factory and the bootstrapper hands it the resolved bindings.
//
//	injector.Register(container.NewFactory())
package injector

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/km-arc/go-bootstrap/framework/binding"
	"github.com/km-arc/go-bootstrap/framework/module"
)

// Injector resolves instances by Key.
type Injector interface {
	binding.Resolver

	// Has reports whether key is bound.
	Has(key binding.Key) bool

	// Keys lists every bound key in binding order.
	Keys() []binding.Key
}

// Factory builds an Injector from a resolved binding set. owner is the
// application the injector is being built for.
type Factory interface {
	Name() string
	CreateInjector(owner any, bindings *module.ResolvedBindingSet) (Injector, error)
}

// FactoryFunc adapts a function to the Factory interface. Errors from Fn
// that carry no stack get one recorded here, on the factory side of the call.
type FactoryFunc struct {
	ID string
	Fn func(owner any, bindings *module.ResolvedBindingSet) (Injector, error)
}

func (f FactoryFunc) Name() string { return f.ID }

func (f FactoryFunc) CreateInjector(owner any, bindings *module.ResolvedBindingSet) (Injector, error) {
	inj, err := f.Fn(owner, bindings)
	if err != nil {
		var st interface{ StackTrace() pkgerrors.StackTrace }
		if errors.As(err, &st) {
			return nil, err
		}
		return nil, pkgerrors.WithStack(err)
	}
	return inj, nil
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Get resolves T (optionally qualified) and type-asserts the result.
//
//	db, err := injector.Get[*sql.DB](inj)
//	replica, err := injector.Get[*sql.DB](inj, "replica")
func Get[T any](r binding.Resolver, qualifier ...string) (T, error) {
	var zero T
	key := binding.KeyOf[T]()
	if len(qualifier) > 0 {
		key = key.Named(qualifier[0])
	}
	v, err := r.Get(key)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("injector: %s resolved to %T", key, v)
	}
	return typed, nil
}

// MustGet is like Get but panics on error. Meant for composition roots and
// tests, where a missing binding is a programming error.
func MustGet[T any](r binding.Resolver, qualifier ...string) T {
	v, err := Get[T](r, qualifier...)
	if err != nil {
		panic(err)
	}
	return v
}
