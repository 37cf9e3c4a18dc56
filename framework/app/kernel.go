package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/appcontext"
	"github.com/km-arc/go-bootstrap/framework/binding"
	"github.com/km-arc/go-bootstrap/framework/config"
	"github.com/km-arc/go-bootstrap/framework/events"
	"github.com/km-arc/go-bootstrap/framework/injector"
	"github.com/km-arc/go-bootstrap/framework/module"
)

// KernelModuleName is the name of the Kernel's default module.
const KernelModuleName = "kernel"

// Hook runs during one lifecycle phase. Returning an error fails the phase.
type Hook func(ctx context.Context, k *Kernel) error

// Service is a bound component with a background life of its own. During
// Startup the Kernel starts every bound key whose type implements Service,
// in binding order, before the startup hooks run. Shutdown closes them in
// reverse.
type Service interface {
	Start() error
	Close() error
}

var serviceType = reflect.TypeFor[Service]()

// Kernel is the default Application. It owns the root Context, the event
// bus and the logger, and runs user hooks for each lifecycle phase.
//
//	k := app.NewKernel(app.WithConfig(cfg), app.WithKernelLogger(logger))
//	k.OnStartup(func(ctx context.Context, k *app.Kernel) error {
//	    return startWorkers(injector.MustGet[*Pool](k.Injector()))
//	})
//	err := app.NewBootstrapper(k).Start()
type Kernel struct {
	id     uuid.UUID
	name   string
	ctx    *appcontext.Context
	bus    *events.Bus
	logger *zap.Logger
	cfg    *config.Config

	mu       sync.RWMutex
	injector injector.Injector
	hooks    map[string][]Hook
	services []Service
	shutdown bool
}

// KernelOption configures a Kernel.
type KernelOption func(*Kernel)

// WithName overrides the application name (defaults to cfg.App.Name).
func WithName(name string) KernelOption {
	return func(k *Kernel) { k.name = name }
}

// WithConfig attaches the typed configuration and mirrors it into the root
// Context.
func WithConfig(cfg *config.Config) KernelOption {
	return func(k *Kernel) { k.cfg = cfg }
}

// WithKernelLogger sets the kernel's logger.
func WithKernelLogger(l *zap.Logger) KernelOption {
	return func(k *Kernel) { k.logger = l }
}

// WithEventBus shares an existing bus instead of creating one.
func WithEventBus(bus *events.Bus) KernelOption {
	return func(k *Kernel) { k.bus = bus }
}

// NewKernel creates a Kernel with a fresh root Context.
func NewKernel(opts ...KernelOption) *Kernel {
	k := &Kernel{
		id:    uuid.New(),
		ctx:   appcontext.New(nil),
		hooks: make(map[string][]Hook),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.logger == nil {
		k.logger = zap.NewNop()
	}
	if k.bus == nil {
		k.bus = events.NewBus(k.logger)
	}
	if k.cfg != nil {
		config.Export(k.cfg, k.ctx)
		if k.name == "" {
			k.name = k.cfg.App.Name
		}
	}
	if k.name == "" {
		k.name = "application"
	}
	k.ctx.Put("app.id", k.id.String())
	k.logger = k.logger.With(zap.String("app_id", k.id.String()))
	return k
}

// ── Accessors ─────────────────────────────────────────────────────────────────

func (k *Kernel) ID() uuid.UUID                { return k.id }
func (k *Kernel) Name() string                 { return k.name }
func (k *Kernel) Context() *appcontext.Context { return k.ctx }
func (k *Kernel) Events() *events.Bus          { return k.bus }
func (k *Kernel) Logger() *zap.Logger          { return k.logger }
func (k *Kernel) Config() *config.Config       { return k.cfg }

// Injector returns the attached injector, nil before bootstrap.
func (k *Kernel) Injector() injector.Injector {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.injector
}

func (k *Kernel) AttachInjector(inj injector.Injector) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.injector = inj
}

// ── Hooks ─────────────────────────────────────────────────────────────────────

func (k *Kernel) OnInitialize(h Hook) { k.addHook(string(PhaseInitialize), h) }
func (k *Kernel) OnStartup(h Hook)    { k.addHook(string(PhaseStartup), h) }
func (k *Kernel) OnReady(h Hook)      { k.addHook(string(PhaseReady), h) }

// OnShutdown hooks run in reverse registration order.
func (k *Kernel) OnShutdown(h Hook) { k.addHook("shutdown", h) }

func (k *Kernel) addHook(phase string, h Hook) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.hooks[phase] = append(k.hooks[phase], h)
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

func (k *Kernel) Initialize() error {
	return k.phase(PhaseInitialize, events.InitializeStart, events.InitializeEnd)
}

func (k *Kernel) Startup() error {
	if err := k.startServices(); err != nil {
		return err
	}
	return k.phase(PhaseStartup, events.StartupStart, events.StartupEnd)
}

func (k *Kernel) Ready() error {
	return k.phase(PhaseReady, events.ReadyStart, events.ReadyEnd)
}

func (k *Kernel) phase(p Phase, start, end string) error {
	ctx := context.Background()
	k.publish(ctx, start)

	k.mu.RLock()
	hooks := slices.Clone(k.hooks[string(p)])
	k.mu.RUnlock()

	for _, h := range hooks {
		if err := h(ctx, k); err != nil {
			return err
		}
	}
	k.logger.Debug("Lifecycle phase complete", zap.String("phase", string(p)), zap.Int("hooks", len(hooks)))
	k.publish(ctx, end)
	return nil
}

// Shutdown runs shutdown hooks newest first, closes started services and
// destroys the root Context. Every hook and service is attempted even if an
// earlier one fails. Calling it twice is a no-op.
func (k *Kernel) Shutdown(ctx context.Context) error {
	k.mu.Lock()
	if k.shutdown {
		k.mu.Unlock()
		return nil
	}
	k.shutdown = true
	hooks := slices.Clone(k.hooks["shutdown"])
	k.mu.Unlock()

	k.publish(ctx, events.ShutdownStart)
	var errs []error
	for _, h := range slices.Backward(hooks) {
		if err := h(ctx, k); err != nil {
			k.logger.Error("Shutdown hook failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	k.mu.Lock()
	services := k.services
	k.services = nil
	k.mu.Unlock()
	for _, svc := range slices.Backward(services) {
		if err := svc.Close(); err != nil {
			k.logger.Error("Service close failed", zap.String("service", fmt.Sprintf("%T", svc)), zap.Error(err))
			errs = append(errs, err)
		}
	}

	k.publish(ctx, events.ShutdownEnd)
	k.ctx.Destroy()
	k.logger.Info("Application stopped", zap.String("app", k.name))
	return errors.Join(errs...)
}

// Services returns the services started so far.
func (k *Kernel) Services() []Service {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return slices.Clone(k.services)
}

func (k *Kernel) startServices() error {
	inj := k.Injector()
	if inj == nil {
		return nil
	}
	for _, key := range inj.Keys() {
		if key.Type == nil || !key.Type.Implements(serviceType) {
			continue
		}
		v, err := inj.Get(key)
		if err != nil {
			return fmt.Errorf("app: resolving service %s: %w", key, err)
		}
		svc, ok := v.(Service)
		if !ok || isNil(v) || k.started(svc) {
			continue
		}
		if err := svc.Start(); err != nil {
			return fmt.Errorf("app: starting service %s: %w", key, err)
		}
		k.mu.Lock()
		k.services = append(k.services, svc)
		k.mu.Unlock()
		k.logger.Debug("Service started", zap.Stringer("key", key))
	}
	return nil
}

// started reports whether svc was already started under another key.
func (k *Kernel) started(svc Service) bool {
	if !reflect.TypeOf(svc).Comparable() {
		return false
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	for _, s := range k.services {
		if reflect.TypeOf(s) == reflect.TypeOf(svc) && s == svc {
			return true
		}
	}
	return false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func (k *Kernel) publish(ctx context.Context, name string) {
	// listener failures are logged by the bus; they never fail a phase
	_ = k.bus.Publish(ctx, events.New(name, k.name, nil))
}

// ── Default module ────────────────────────────────────────────────────────────

// DefaultModules binds the kernel's collaborators so other modules can
// depend on them by type.
func (k *Kernel) DefaultModules() []module.Module {
	return []module.Module{
		module.New(KernelModuleName, func(b *module.Binder) {
			b.Install(
				binding.Bind[*appcontext.Context]().ToInstance(k.ctx),
				binding.Bind[*events.Bus]().ToInstance(k.bus),
				binding.Bind[events.Publisher]().ToInstance(k.bus),
				binding.Bind[*zap.Logger]().ToInstance(k.logger),
			)
			if k.cfg != nil {
				b.Install(binding.Bind[*config.Config]().ToInstance(k.cfg))
			}
		}),
	}
}

var (
	_ Application  = (*Kernel)(nil)
	_ ModuleSource = (*Kernel)(nil)
	_ EventSource  = (*Kernel)(nil)
)
