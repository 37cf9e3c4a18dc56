package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/app"
	"github.com/km-arc/go-bootstrap/framework/appcontext"
	"github.com/km-arc/go-bootstrap/framework/binding"
	"github.com/km-arc/go-bootstrap/framework/config"
	"github.com/km-arc/go-bootstrap/framework/container"
	"github.com/km-arc/go-bootstrap/framework/events"
	"github.com/km-arc/go-bootstrap/framework/injector"
	"github.com/km-arc/go-bootstrap/framework/module"
)

func TestKernel_HooksRunInPhaseOrder(t *testing.T) {
	k := app.NewKernel(app.WithName("shop"))
	var order []string
	hook := func(name string) app.Hook {
		return func(context.Context, *app.Kernel) error {
			order = append(order, name)
			return nil
		}
	}
	k.OnReady(hook("ready"))
	k.OnInitialize(hook("init-1"))
	k.OnStartup(hook("startup"))
	k.OnInitialize(hook("init-2"))

	require.NoError(t, newBootstrapper(k, factories(container.NewFactory())).Start())
	assert.Equal(t, []string{"init-1", "init-2", "startup", "ready"}, order)
	assert.Equal(t, "shop", k.Name())
}

func TestKernel_HookErrorFailsPhase(t *testing.T) {
	k := app.NewKernel()
	boom := errors.New("db unreachable")
	k.OnStartup(func(context.Context, *app.Kernel) error { return boom })
	readyCalled := false
	k.OnReady(func(context.Context, *app.Kernel) error { readyCalled = true; return nil })

	err := newBootstrapper(k, factories(container.NewFactory())).Start()
	assert.ErrorIs(t, err, boom)
	assert.False(t, readyCalled)
}

func TestKernel_DefaultModuleBindings(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Name: "shop", Env: "testing"}}
	logger := zap.NewNop()
	k := app.NewKernel(app.WithConfig(cfg), app.WithKernelLogger(logger))

	require.NoError(t, newBootstrapper(k, factories(container.NewFactory())).Start())
	inj := k.Injector()

	assert.Same(t, k.Context(), injector.MustGet[*appcontext.Context](inj))
	assert.Same(t, k.Events(), injector.MustGet[*events.Bus](inj))
	assert.Same(t, cfg, injector.MustGet[*config.Config](inj))
	assert.Same(t, k, injector.MustGet[*app.Kernel](inj))

	assert.Equal(t, "shop", k.Name())
	assert.Equal(t, "testing", k.Context().GetAsStringOr("app.env", ""))
	assert.Equal(t, k.ID().String(), k.Context().GetAsStringOr("app.id", ""))
}

func TestKernel_Shutdown(t *testing.T) {
	k := app.NewKernel()
	var order []string
	k.OnShutdown(func(context.Context, *app.Kernel) error { order = append(order, "first"); return nil })
	k.OnShutdown(func(context.Context, *app.Kernel) error { order = append(order, "second"); return errors.New("flush failed") })
	k.Context().Put("k", "v")

	err := k.Shutdown(context.Background())
	assert.ErrorContains(t, err, "flush failed")
	assert.Equal(t, []string{"second", "first"}, order)
	assert.Zero(t, k.Context().Len())

	assert.NoError(t, k.Shutdown(context.Background()))
	assert.Len(t, order, 2)
}

func TestKernel_ListenerFailureDoesNotFailPhase(t *testing.T) {
	k := app.NewKernel()
	k.Events().Subscribe(events.InitializeStart, func(context.Context, events.Event) error {
		return errors.New("listener broke")
	})
	assert.NoError(t, k.Initialize())
}

// ── Services ──────────────────────────────────────────────────────────────────

type fakeService struct {
	name     string
	log      *[]string
	startErr error
}

func (s *fakeService) Start() error {
	*s.log = append(*s.log, "start "+s.name)
	return s.startErr
}

func (s *fakeService) Close() error {
	*s.log = append(*s.log, "close "+s.name)
	return nil
}

func TestKernel_StartsAndClosesServices(t *testing.T) {
	var log []string
	cache := &fakeService{name: "cache", log: &log}
	queue := &fakeService{name: "queue", log: &log}

	k := app.NewKernel()
	k.OnStartup(func(context.Context, *app.Kernel) error {
		log = append(log, "startup hook")
		return nil
	})
	services := module.New("services", func(b *module.Binder) {
		b.Install(
			binding.Bind[*fakeService]().Named("cache").ToInstance(cache),
			binding.Bind[*fakeService]().Named("queue").ToInstance(queue),
			binding.Bind[app.Service]().ToInstance(cache),
		)
	})

	require.NoError(t, newBootstrapper(k, factories(container.NewFactory()), app.WithModules(services)).Start())
	assert.Equal(t, []string{"start cache", "start queue", "startup hook"}, log, "same instance starts once")
	assert.Len(t, k.Services(), 2)

	require.NoError(t, k.Shutdown(context.Background()))
	assert.Equal(t, []string{"close queue", "close cache"}, log[3:])
	assert.Empty(t, k.Services())
}

func TestKernel_ServiceStartFailureFailsStartup(t *testing.T) {
	var log []string
	boom := errors.New("port in use")
	svc := &fakeService{name: "http", log: &log, startErr: boom}

	k := app.NewKernel()
	hookRan := false
	k.OnStartup(func(context.Context, *app.Kernel) error { hookRan = true; return nil })
	services := module.New("services", func(b *module.Binder) {
		b.Install(binding.Bind[*fakeService]().ToInstance(svc))
	})

	b := newBootstrapper(k, factories(container.NewFactory()), app.WithModules(services))
	err := b.Start()
	assert.ErrorIs(t, err, boom)
	assert.False(t, hookRan)
	assert.Equal(t, app.Failed, b.State())
}
