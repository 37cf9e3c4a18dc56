package binding

import (
	"errors"
	"fmt"
	"reflect"
)

// ── Scope ─────────────────────────────────────────────────────────────────────

// Scope decides how long a resolved instance lives and who shares it.
type Scope int

const (
	// Prototype builds a fresh instance on every resolution.
	Prototype Scope = iota
	// Singleton builds once per injector and shares the result.
	Singleton
	// Request builds once per request scope.
	Request
)

func (s Scope) String() string {
	switch s {
	case Prototype:
		return "prototype"
	case Singleton:
		return "singleton"
	case Request:
		return "request"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ── Target ────────────────────────────────────────────────────────────────────

// Resolver looks up instances by Key. Providers and constructors receive one
// so they can pull their own dependencies.
type Resolver interface {
	Get(key Key) (any, error)
}

// Provider builds an instance on demand.
type Provider func(r Resolver) (any, error)

// TargetKind tells which of the three ways a Binding is satisfied.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetInstance
	TargetProvider
	TargetConstructor
)

func (k TargetKind) String() string {
	switch k {
	case TargetInstance:
		return "instance"
	case TargetProvider:
		return "provider"
	case TargetConstructor:
		return "constructor"
	default:
		return "none"
	}
}

var errorType = reflect.TypeFor[error]()

var (
	// ErrNoTarget is returned by Validate when no target is set.
	ErrNoTarget = errors.New("binding: no target")
	// ErrMultipleTargets is returned by Validate when more than one target is set.
	ErrMultipleTargets = errors.New("binding: more than one target")
	// ErrTargetType is returned by Validate when the target cannot produce Key.Type.
	ErrTargetType = errors.New("binding: target does not match key type")
)

// ── Binding ───────────────────────────────────────────────────────────────────

// Binding declares how one Key is satisfied and in which Scope.
// Build them with Bind or For; the zero Binding is invalid.
type Binding struct {
	key         Key
	scope       Scope
	instance    any
	hasInstance bool
	provider    Provider
	constructor reflect.Value
	source      string
}

func (b Binding) Key() Key     { return b.key }
func (b Binding) Scope() Scope { return b.scope }

// Source names the module the binding was declared in, once resolved.
func (b Binding) Source() string { return b.source }

// WithSource returns a copy of b tagged with the declaring module's name.
func (b Binding) WithSource(name string) Binding {
	b.source = name
	return b
}

// Target reports which target variant is set.
func (b Binding) Target() TargetKind {
	switch {
	case b.hasInstance:
		return TargetInstance
	case b.provider != nil:
		return TargetProvider
	case b.constructor.IsValid():
		return TargetConstructor
	}
	return TargetNone
}

// Instance returns the fixed instance of an instance binding.
func (b Binding) Instance() (any, bool) { return b.instance, b.hasInstance }

// Validate checks that exactly one target is set and that it can produce a
// value assignable to the key's type.
func (b Binding) Validate() error {
	if b.key.IsZero() {
		return fmt.Errorf("%w: binding has no key", ErrTargetType)
	}
	set := 0
	if b.hasInstance {
		set++
	}
	if b.provider != nil {
		set++
	}
	if b.constructor.IsValid() {
		set++
	}
	switch {
	case set == 0:
		return fmt.Errorf("%w for %s", ErrNoTarget, b.key)
	case set > 1:
		return fmt.Errorf("%w for %s", ErrMultipleTargets, b.key)
	}

	if b.hasInstance && b.instance != nil {
		if t := reflect.TypeOf(b.instance); !t.AssignableTo(b.key.Type) {
			return fmt.Errorf("%w: instance of %s bound to %s", ErrTargetType, t, b.key)
		}
	}
	if b.constructor.IsValid() {
		return checkConstructor(b.key, b.constructor.Type())
	}
	return nil
}

func checkConstructor(key Key, ft reflect.Type) error {
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("%w: constructor for %s is a %s, not a func", ErrTargetType, key, ft)
	}
	if ft.IsVariadic() {
		return fmt.Errorf("%w: constructor for %s must not be variadic", ErrTargetType, key)
	}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return fmt.Errorf("%w: constructor for %s must return (T, error)", ErrTargetType, key)
		}
	default:
		return fmt.Errorf("%w: constructor for %s must return T or (T, error)", ErrTargetType, key)
	}
	if !ft.Out(0).AssignableTo(key.Type) {
		return fmt.Errorf("%w: constructor returns %s, bound to %s", ErrTargetType, ft.Out(0), key)
	}
	return nil
}

// Create produces a value from the binding's target. Scope handling is left
// to the injector; Create always builds (or returns the fixed instance).
func (b Binding) Create(r Resolver) (any, error) {
	switch b.Target() {
	case TargetInstance:
		return b.instance, nil
	case TargetProvider:
		return b.provider(r)
	case TargetConstructor:
		return b.construct(r)
	}
	return nil, fmt.Errorf("%w for %s", ErrNoTarget, b.key)
}

func (b Binding) construct(r Resolver) (any, error) {
	ft := b.constructor.Type()
	args := make([]reflect.Value, ft.NumIn())
	for i := range args {
		pt := ft.In(i)
		dep, err := r.Get(KeyFor(pt))
		if err != nil {
			return nil, fmt.Errorf("constructing %s: argument %d: %w", b.key, i, err)
		}
		if dep == nil {
			args[i] = reflect.Zero(pt)
			continue
		}
		dv := reflect.ValueOf(dep)
		if !dv.Type().AssignableTo(pt) {
			return nil, fmt.Errorf("constructing %s: argument %d: %s is not assignable to %s", b.key, i, dv.Type(), pt)
		}
		args[i] = dv
	}
	out := b.constructor.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// Dependencies lists the keys a constructor binding needs. Other targets
// resolve their dependencies dynamically and report none.
func (b Binding) Dependencies() []Key {
	if !b.constructor.IsValid() || b.constructor.Kind() != reflect.Func {
		return nil
	}
	ft := b.constructor.Type()
	keys := make([]Key, ft.NumIn())
	for i := range keys {
		keys[i] = KeyFor(ft.In(i))
	}
	return keys
}

func (b Binding) String() string {
	s := fmt.Sprintf("%s -> %s [%s]", b.key, b.Target(), b.scope)
	if b.source != "" {
		s += " from " + b.source
	}
	return s
}
