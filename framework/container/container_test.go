package container_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-bootstrap/framework/binding"
	"github.com/km-arc/go-bootstrap/framework/container"
	"github.com/km-arc/go-bootstrap/framework/injector"
	"github.com/km-arc/go-bootstrap/framework/module"
)

// ── stubs ─────────────────────────────────────────────────────────────────────

type config struct{ dsn string }

type repo struct{ cfg *config }

func newRepo(cfg *config) *repo { return &repo{cfg: cfg} }

type service struct{ r *repo }

func newService(r *repo) (*service, error) { return &service{r: r}, nil }

type chicken struct{}
type egg struct{}

func newChicken(egg) chicken { return chicken{} }
func newEgg(chicken) egg     { return egg{} }

type closer struct {
	name   string
	closed *[]string
}

func (c *closer) Close() error {
	*c.closed = append(*c.closed, c.name)
	return nil
}

func bind(t *testing.T, c *container.Container, bs ...binding.Binding) {
	t.Helper()
	for _, b := range bs {
		require.NoError(t, c.Bind(b))
	}
}

// ── Scopes ────────────────────────────────────────────────────────────────────

func TestContainer_InstanceAndConstructor(t *testing.T) {
	c := container.New()
	cfg := &config{dsn: "mem://"}
	bind(t, c,
		binding.Bind[*config]().ToInstance(cfg),
		binding.Bind[*repo]().ToConstructor(newRepo),
		binding.Bind[*service]().ToConstructor(newService),
	)

	svc, err := injector.Get[*service](c)
	require.NoError(t, err)
	assert.Same(t, cfg, svc.r.cfg)
}

func TestContainer_PrototypeBuildsEveryTime(t *testing.T) {
	c := container.New()
	bind(t, c, binding.Bind[*config]().ToProvider(func(binding.Resolver) (*config, error) {
		return &config{}, nil
	}))

	a := injector.MustGet[*config](c)
	b := injector.MustGet[*config](c)
	assert.NotSame(t, a, b)
}

func TestContainer_SingletonBuiltOnce(t *testing.T) {
	var calls atomic.Int32
	c := container.New()
	bind(t, c, binding.Bind[*config]().AsSingleton().ToProvider(func(binding.Resolver) (*config, error) {
		calls.Add(1)
		return &config{}, nil
	}))
	assert.False(t, c.Resolved(binding.KeyOf[*config]()))

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() { _ = injector.MustGet[*config](c) })
	}
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	assert.True(t, c.Resolved(binding.KeyOf[*config]()))
}

func TestContainer_SingletonErrorNotCached(t *testing.T) {
	fail := true
	c := container.New()
	bind(t, c, binding.Bind[*config]().AsSingleton().ToProvider(func(binding.Resolver) (*config, error) {
		if fail {
			return nil, errors.New("not yet")
		}
		return &config{}, nil
	}))

	_, err := c.Get(binding.KeyOf[*config]())
	assert.ErrorContains(t, err, "not yet")

	fail = false
	_, err = c.Get(binding.KeyOf[*config]())
	assert.NoError(t, err)
}

func TestContainer_RebindDropsSingleton(t *testing.T) {
	c := container.New()
	bind(t, c, binding.Bind[string]().ToInstance("a"))
	assert.Equal(t, "a", injector.MustGet[string](c))

	bind(t, c, binding.Bind[string]().ToInstance("b"))
	assert.Equal(t, "b", injector.MustGet[string](c))
	assert.Len(t, c.Keys(), 1)
}

// ── Errors ────────────────────────────────────────────────────────────────────

func TestContainer_Unbound(t *testing.T) {
	_, err := container.New().Get(binding.KeyOf[*config]())
	assert.ErrorIs(t, err, container.ErrUnbound)
}

func TestContainer_CircularDependency(t *testing.T) {
	c := container.New()
	bind(t, c,
		binding.Bind[chicken]().ToConstructor(newChicken),
		binding.Bind[egg]().ToConstructor(newEgg),
	)

	_, err := c.Get(binding.KeyOf[chicken]())
	require.ErrorIs(t, err, container.ErrCircularDependency)

	var cycle *container.CircularDependencyError
	require.ErrorAs(t, err, &cycle)
	assert.Len(t, cycle.Path, 3)
	assert.Equal(t, cycle.Path[0], cycle.Path[2])
}

func TestContainer_BindRejectsInvalid(t *testing.T) {
	err := container.New().Bind(binding.Bind[string]().ToConstructor(newRepo))
	assert.ErrorIs(t, err, binding.ErrTargetType)
}

// ── Extend / AfterResolving ───────────────────────────────────────────────────

func TestContainer_ExtendAndAfterResolving(t *testing.T) {
	c := container.New()
	bind(t, c, binding.Bind[string]().AsSingleton().ToProvider(func(binding.Resolver) (string, error) {
		return "base", nil
	}))
	c.Extend(binding.KeyOf[string](), func(v any, _ binding.Resolver) (any, error) {
		return v.(string) + "+ext", nil
	})

	var seen []string
	c.AfterResolving(func(k binding.Key, v any) { seen = append(seen, k.String()+"="+v.(string)) })

	assert.Equal(t, "base+ext", injector.MustGet[string](c))
	assert.Equal(t, "base+ext", injector.MustGet[string](c))
	assert.Equal(t, []string{"string=base+ext"}, seen)
}

func TestContainer_Forget(t *testing.T) {
	c := container.New()
	bind(t, c, binding.Bind[string]().ToInstance("x"), binding.Bind[int]().ToInstance(1))
	c.Forget(binding.KeyOf[string]())
	assert.False(t, c.Has(binding.KeyOf[string]()))
	assert.Equal(t, []binding.Key{binding.KeyOf[int]()}, c.Keys())
}

// ── Request scope ─────────────────────────────────────────────────────────────

func TestRequestScope(t *testing.T) {
	var closed []string
	c := container.New()
	bind(t, c,
		binding.Bind[*closer]().In(binding.Request).ToProvider(func(binding.Resolver) (*closer, error) {
			return &closer{name: "req", closed: &closed}, nil
		}),
	)

	_, err := c.Get(binding.KeyOf[*closer]())
	assert.ErrorIs(t, err, container.ErrNoRequestScope)

	s1 := c.BeginRequest()
	a := injector.MustGet[*closer](s1)
	assert.Same(t, a, injector.MustGet[*closer](s1))

	s2 := c.BeginRequest()
	assert.NotSame(t, a, injector.MustGet[*closer](s2))
	assert.NotEqual(t, s1.ID(), s2.ID())

	require.NoError(t, s1.Close())
	require.NoError(t, s1.Close())
	assert.Equal(t, []string{"req"}, closed)

	_, err = s1.Get(binding.KeyOf[*closer]())
	assert.ErrorIs(t, err, container.ErrScopeClosed)
}

func TestRequestScope_SingletonCannotCaptureRequest(t *testing.T) {
	c := container.New()
	bind(t, c,
		binding.Bind[*config]().In(binding.Request).ToProvider(func(binding.Resolver) (*config, error) {
			return &config{}, nil
		}),
		binding.Bind[*repo]().AsSingleton().ToConstructor(newRepo),
	)

	_, err := injector.Get[*repo](c.BeginRequest())
	assert.ErrorIs(t, err, container.ErrNoRequestScope)
}

// ── Factory ───────────────────────────────────────────────────────────────────

func TestFactory_BindsItself(t *testing.T) {
	set, err := module.Resolve(nil, module.New("app", func(b *module.Binder) {
		b.Install(binding.Bind[*config]().ToInstance(&config{dsn: "x"}))
	}))
	require.NoError(t, err)

	inj, err := container.NewFactory().CreateInjector(nil, set)
	require.NoError(t, err)

	self, err := injector.Get[injector.Injector](inj)
	require.NoError(t, err)
	assert.Same(t, inj, self)
	assert.True(t, inj.Has(binding.KeyOf[*container.Container]()))
	assert.Equal(t, "x", injector.MustGet[*config](inj).dsn)
}

func TestFactory_EagerSingletons(t *testing.T) {
	set, err := module.Resolve(nil, module.New("app", func(b *module.Binder) {
		b.Install(binding.Bind[*config]().AsSingleton().ToProvider(func(binding.Resolver) (*config, error) {
			return nil, errors.New("dsn missing")
		}))
	}))
	require.NoError(t, err)

	_, err = container.NewFactory().CreateInjector(nil, set)
	assert.NoError(t, err, "lazy factory defers the failure")

	_, err = container.NewFactory(container.WithEagerSingletons()).CreateInjector(nil, set)
	assert.ErrorContains(t, err, "dsn missing")
}

func TestFactory_Name(t *testing.T) {
	assert.Equal(t, container.FactoryName, container.NewFactory().Name())
}
