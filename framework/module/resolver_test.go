package module_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-bootstrap/framework/binding"
	"github.com/km-arc/go-bootstrap/framework/module"
)

type widget struct{ label string }

// ── helpers ──────────────────────────────────────────────────────────────────

func empty(name string, deps ...string) module.Module {
	return module.New(name, nil, module.DependsOn(deps...))
}

func binds(name string, label string, deps ...string) module.Module {
	return module.New(name, func(b *module.Binder) {
		b.Install(binding.Bind[string]().ToInstance(label))
	}, module.DependsOn(deps...))
}

// structModule is a hand-written Module embedding BaseModule.
type structModule struct {
	module.BaseModule
	name string
}

func (m structModule) Name() string { return m.name }

// ── Ordering ─────────────────────────────────────────────────────────────────

func TestResolve_DependencyFirst(t *testing.T) {
	a := empty("A", "B")
	b := empty("B")

	set, err := module.Resolve(nil, a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, set.Modules())
}

func TestResolve_MissingDependency(t *testing.T) {
	_, err := module.Resolve(nil, empty("A", "B"))
	require.Error(t, err)
	assert.ErrorIs(t, err, module.ErrUnresolvableDependency)
	assert.NotErrorIs(t, err, module.ErrCyclicDependency)

	var depErr *module.DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, []string{"A"}, depErr.Modules)
	assert.Equal(t, map[string][]string{"A": {"B"}}, depErr.Missing)
	assert.Contains(t, err.Error(), "A -> [B]")
}

func TestResolve_Cycle(t *testing.T) {
	_, err := module.Resolve(nil, empty("A", "B"), empty("B", "A"), empty("C"))
	require.Error(t, err)
	assert.ErrorIs(t, err, module.ErrCyclicDependency)

	var depErr *module.DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.ElementsMatch(t, []string{"A", "B"}, depErr.Modules)
	assert.Contains(t, err.Error(), "A")
	assert.Contains(t, err.Error(), "B")
}

func TestResolve_SelfCycle(t *testing.T) {
	_, err := module.Resolve(nil, empty("A", "A"))
	assert.ErrorIs(t, err, module.ErrCyclicDependency)
}

func TestResolve_StableTies(t *testing.T) {
	mods := []module.Module{
		empty("web", "db", "cache"),
		empty("cache"),
		empty("metrics"),
		empty("db", "config"),
		empty("config"),
	}
	for i := 0; i < 20; i++ {
		set, err := module.NewResolver(nil).Resolve(nil, mods)
		require.NoError(t, err)
		assert.Equal(t, []string{"cache", "metrics", "config", "db", "web"}, set.Modules())
	}
}

func TestResolve_DuplicateNames(t *testing.T) {
	first := structModule{name: "dup"}
	second := empty("dup")

	_, err := module.Resolve(nil, first, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, module.ErrDuplicateModule)

	var dupErr *module.DuplicateModuleError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "dup", dupErr.Name)
	assert.Contains(t, err.Error(), "module_test.structModule")
	assert.Contains(t, err.Error(), "funcModule")
}

// ── Bindings ─────────────────────────────────────────────────────────────────

func TestResolve_LaterModuleOverrides(t *testing.T) {
	m1 := binds("M1", "a")
	m2 := binds("M2", "b", "M1")

	// declared in reverse; ordering still puts M1 first
	set, err := module.Resolve(nil, m2, m1)
	require.NoError(t, err)

	b, ok := set.Get(binding.KeyOf[string]())
	require.True(t, ok)
	v, _ := b.Instance()
	assert.Equal(t, "b", v)
	assert.Equal(t, "M2", b.Source())
	assert.Equal(t, 1, set.Len())
}

func TestResolve_OverrideKeepsPosition(t *testing.T) {
	m1 := module.New("M1", func(b *module.Binder) {
		b.Install(
			binding.Bind[string]().ToInstance("first"),
			binding.Bind[int]().ToInstance(1),
		)
	})
	m2 := module.New("M2", func(b *module.Binder) {
		b.Install(binding.Bind[string]().ToInstance("second"))
	}, module.DependsOn("M1"))

	set, err := module.Resolve(nil, m1, m2)
	require.NoError(t, err)
	assert.Equal(t, []binding.Key{binding.KeyOf[string](), binding.KeyOf[int]()}, set.Keys())
}

func TestResolve_QualifiedKeysAreDistinct(t *testing.T) {
	m := module.New("M", func(b *module.Binder) {
		b.Install(
			binding.Bind[*widget]().ToInstance(&widget{"plain"}),
			binding.Bind[*widget]().Named("fancy").ToInstance(&widget{"fancy"}),
		)
	})
	set, err := module.Resolve(nil, m)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
}

func TestResolve_InvalidBinding(t *testing.T) {
	m := module.New("broken", func(b *module.Binder) {
		b.Install(binding.For(binding.KeyOf[*widget]()).ToInstance("not a widget"))
	})
	_, err := module.Resolve(nil, m)
	require.Error(t, err)
	assert.ErrorIs(t, err, module.ErrInvalidBinding)
	assert.ErrorIs(t, err, binding.ErrTargetType)

	var bErr *module.BindingError
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, "broken", bErr.Module)
}

// ── Core module ──────────────────────────────────────────────────────────────

func TestResolve_CoreFirstAndPinned(t *testing.T) {
	core := binds("core", "app")
	other := empty("other")

	set, err := module.Resolve(core, other)
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "other"}, set.Modules())

	_, err = module.Resolve(core, binds("intruder", "x"))
	assert.ErrorIs(t, err, module.ErrCoreOverride)
}

func TestResolve_CoreNameClash(t *testing.T) {
	_, err := module.Resolve(empty("core"), empty("core"))
	assert.ErrorIs(t, err, module.ErrDuplicateModule)
}

func TestResolve_DependOnCore(t *testing.T) {
	set, err := module.Resolve(empty("core"), empty("plugin", "core"))
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "plugin"}, set.Modules())
}

// ── Immutability ─────────────────────────────────────────────────────────────

func TestResolvedBindingSet_ReturnsCopies(t *testing.T) {
	set, err := module.Resolve(nil, binds("M", "v"))
	require.NoError(t, err)

	bs := set.Bindings()
	bs[0] = binding.Bind[int]().ToInstance(0)
	mods := set.Modules()
	mods[0] = "mutated"

	_, ok := set.Get(binding.KeyOf[string]())
	assert.True(t, ok)
	assert.Equal(t, []string{"M"}, set.Modules())
}

func TestErrors_AreDistinct(t *testing.T) {
	assert.False(t, errors.Is(module.ErrCyclicDependency, module.ErrUnresolvableDependency))
}
