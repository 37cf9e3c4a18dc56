package binding

import (
	"reflect"
	"strconv"
)

// Key identifies one logical dependency: a type plus an optional qualifier.
// Keys compare structurally and are used directly as map keys.
//
//	binding.KeyOf[*sql.DB]()
//	binding.NamedKey[*sql.DB]("replica")
type Key struct {
	Type      reflect.Type
	Qualifier string
}

// KeyOf returns the unqualified key for T.
func KeyOf[T any]() Key {
	return Key{Type: reflect.TypeFor[T]()}
}

// NamedKey returns the key for T qualified by name.
func NamedKey[T any](name string) Key {
	return Key{Type: reflect.TypeFor[T](), Qualifier: name}
}

// KeyFor returns the unqualified key for a runtime type.
func KeyFor(t reflect.Type) Key {
	return Key{Type: t}
}

// Named returns a copy of k with the given qualifier.
func (k Key) Named(name string) Key {
	k.Qualifier = name
	return k
}

// IsZero reports whether k has no type.
func (k Key) IsZero() bool { return k.Type == nil }

func (k Key) String() string {
	t := "<nil>"
	if k.Type != nil {
		t = k.Type.String()
	}
	if k.Qualifier == "" {
		return t
	}
	return t + "@" + strconv.Quote(k.Qualifier)
}
