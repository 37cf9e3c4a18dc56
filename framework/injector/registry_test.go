package injector_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-bootstrap/framework/binding"
	"github.com/km-arc/go-bootstrap/framework/injector"
	"github.com/km-arc/go-bootstrap/framework/module"
)

func stubFactory(id string) injector.Factory {
	return injector.FactoryFunc{ID: id, Fn: func(any, *module.ResolvedBindingSet) (injector.Injector, error) {
		return nil, nil
	}}
}

// ── Select ────────────────────────────────────────────────────────────────────

func TestSelect_None(t *testing.T) {
	_, err := injector.NewRegistry().Select()
	assert.ErrorIs(t, err, injector.ErrNoFactory)
}

func TestSelect_ExactlyOne(t *testing.T) {
	f := stubFactory("only")
	got, err := injector.NewRegistry(f).Select()
	require.NoError(t, err)
	assert.Equal(t, "only", got.Name())
}

func TestSelect_Ambiguous(t *testing.T) {
	r := injector.NewRegistry(stubFactory("a"), stubFactory("b"))
	_, err := r.Select()
	require.Error(t, err)
	assert.ErrorIs(t, err, injector.ErrAmbiguousFactory)

	var amb *injector.AmbiguousFactoryError
	require.ErrorAs(t, err, &amb)
	assert.Len(t, amb.Factories, 2)
	assert.Contains(t, err.Error(), "a (injector.FactoryFunc)")
}

func TestRegister_IgnoresNil(t *testing.T) {
	r := injector.NewRegistry(nil)
	assert.Empty(t, r.Factories())
	r.Register(stubFactory("x"))
	r.Reset()
	assert.Empty(t, r.Factories())
}

func TestDefaultRegistry(t *testing.T) {
	t.Cleanup(injector.Default().Reset)
	injector.Register(stubFactory("global"))
	f, err := injector.Default().Select()
	require.NoError(t, err)
	assert.Equal(t, "global", f.Name())
}

// ── Get ───────────────────────────────────────────────────────────────────────

type resolverFunc func(binding.Key) (any, error)

func (f resolverFunc) Get(k binding.Key) (any, error) { return f(k) }

func TestGet_Typed(t *testing.T) {
	r := resolverFunc(func(k binding.Key) (any, error) {
		if k == binding.NamedKey[string]("greeting") {
			return "hi", nil
		}
		if k == binding.KeyOf[int]() {
			return "not an int", nil
		}
		return nil, errors.New("unbound")
	})

	s, err := injector.Get[string](r, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	_, err = injector.Get[int](r)
	assert.ErrorContains(t, err, "resolved to string")

	_, err = injector.Get[bool](r)
	assert.EqualError(t, err, "unbound")

	assert.Panics(t, func() { injector.MustGet[bool](r) })
}
