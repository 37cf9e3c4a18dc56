package app

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/binding"
	"github.com/km-arc/go-bootstrap/framework/events"
	"github.com/km-arc/go-bootstrap/framework/injector"
	"github.com/km-arc/go-bootstrap/framework/module"
)

// CoreModuleName is the name of the module the Bootstrapper contributes.
const CoreModuleName = "core"

// ── State ─────────────────────────────────────────────────────────────────────

// State is a Bootstrapper's position in the bootstrap sequence.
type State int

const (
	Created State = iota
	BindingsCollected
	InjectorCreated
	Initialized
	StartedUp
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case BindingsCollected:
		return "bindings_collected"
	case InjectorCreated:
		return "injector_created"
	case Initialized:
		return "initialized"
	case StartedUp:
		return "started_up"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ── Bootstrapper ──────────────────────────────────────────────────────────────

// Bootstrapper assembles an application's injector from modules and drives
// its lifecycle:
//
//	Created → BindingsCollected → InjectorCreated → Initialized → StartedUp → Ready
//
// Any failure moves it to Failed, which is terminal. Nothing is rolled back.
type Bootstrapper struct {
	app       Application
	logger    *zap.Logger
	loaders   []ModuleLoader
	modules   []module.Module
	factories *injector.Registry
	metrics   *Metrics

	// run serializes Bootstrap and Run; mu guards the fields below it
	run sync.Mutex

	mu       sync.RWMutex
	state    State
	bindings *module.ResolvedBindingSet
	injector injector.Injector
	err      error
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithLogger sets the logger. Environment facts go out at Info, module and
// binding activity at Debug.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bootstrapper) { b.logger = l }
}

// WithModules adds modules after those returned by the loaders.
func WithModules(ms ...module.Module) Option {
	return func(b *Bootstrapper) { b.modules = append(b.modules, ms...) }
}

// WithModuleLoader replaces the default loader (module.Default()). Pass it
// several times to combine loaders.
func WithModuleLoader(l ModuleLoader) Option {
	return func(b *Bootstrapper) { b.loaders = append(b.loaders, l) }
}

// WithFactories selects the injector factory from r instead of
// injector.Default().
func WithFactories(r *injector.Registry) Option {
	return func(b *Bootstrapper) { b.factories = r }
}

// WithMetrics records phase durations and state.
func WithMetrics(m *Metrics) Option {
	return func(b *Bootstrapper) { b.metrics = m }
}

// NewBootstrapper creates a Bootstrapper for app.
func NewBootstrapper(app Application, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{app: app}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if len(b.loaders) == 0 {
		b.loaders = []ModuleLoader{module.Default()}
	}
	if b.factories == nil {
		b.factories = injector.Default()
	}
	b.metrics.setState(Created)
	return b
}

// State returns the current state.
func (b *Bootstrapper) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Err returns the error that moved the Bootstrapper to Failed.
func (b *Bootstrapper) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

// Bindings returns the resolved binding set, nil before BindingsCollected.
func (b *Bootstrapper) Bindings() *module.ResolvedBindingSet {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bindings
}

// Injector returns the created injector, nil before InjectorCreated.
func (b *Bootstrapper) Injector() injector.Injector {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.injector
}

// Application returns the application being bootstrapped.
func (b *Bootstrapper) Application() Application { return b.app }

func (b *Bootstrapper) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
	b.metrics.setState(s)
	b.logger.Debug("Bootstrap state", zap.Stringer("state", s))
}

func (b *Bootstrapper) fail(phase string, err error) error {
	b.mu.Lock()
	b.state = Failed
	b.err = err
	b.mu.Unlock()
	b.metrics.setState(Failed)
	b.metrics.fail(phase)
	return err
}

func (b *Bootstrapper) expect(s State) error {
	if cur := b.State(); cur != s {
		return fmt.Errorf("%w: %s, want %s", ErrInvalidState, cur, s)
	}
	return nil
}

// Start runs Bootstrap then Run.
func (b *Bootstrapper) Start() error {
	if err := b.Bootstrap(); err != nil {
		return err
	}
	return b.Run()
}

// Bootstrap collects bindings, creates the injector and attaches it to the
// application. It must be called from Created.
func (b *Bootstrapper) Bootstrap() error {
	b.run.Lock()
	defer b.run.Unlock()
	if err := b.expect(Created); err != nil {
		return err
	}

	start := time.Now()
	b.publish(events.BootstrapStart)
	CurrentEnvironment().log(b.logger)

	set, err := b.collectBindings()
	if err != nil {
		b.logger.Error("Module resolution failed", zap.Error(err))
		return b.fail("bindings", err)
	}
	b.mu.Lock()
	b.bindings = set
	b.mu.Unlock()
	b.metrics.resolved(len(set.Modules()), set.Len())
	b.metrics.observe("bindings", start)
	b.setState(BindingsCollected)

	injStart := time.Now()
	inj, err := b.createInjector(set)
	if err != nil {
		return b.fail("injector", err)
	}
	b.app.AttachInjector(inj)
	b.mu.Lock()
	b.injector = inj
	b.mu.Unlock()
	b.metrics.observe("injector", injStart)
	b.setState(InjectorCreated)

	b.publish(events.BootstrapEnd)
	b.logger.Info("Bootstrap complete",
		zap.Strings("modules", set.Modules()),
		zap.Int("bindings", set.Len()),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (b *Bootstrapper) collectBindings() (*module.ResolvedBindingSet, error) {
	var loaded []module.Module
	if src, ok := b.app.(ModuleSource); ok {
		loaded = append(loaded, src.DefaultModules()...)
	}
	for _, l := range b.loaders {
		ms, err := l.LoadModules()
		if err != nil {
			return nil, configError(err)
		}
		loaded = append(loaded, ms...)
	}
	loaded = append(loaded, b.modules...)

	set, err := module.NewResolver(b.logger).Resolve(b.coreModule(), loaded)
	if err != nil {
		return nil, configError(err)
	}
	return set, nil
}

// coreModule binds the application under Application and its own type, and
// the Bootstrapper itself.
func (b *Bootstrapper) coreModule() module.Module {
	return module.New(CoreModuleName, func(m *module.Binder) {
		m.Install(
			binding.Bind[*Bootstrapper]().ToInstance(b),
			binding.Bind[Application]().ToInstance(b.app),
		)
		if t := reflect.TypeOf(b.app); t != nil {
			m.Install(binding.For(binding.KeyFor(t)).ToInstance(b.app))
		}
	})
}

func (b *Bootstrapper) createInjector(set *module.ResolvedBindingSet) (inj injector.Injector, err error) {
	factory, err := b.factories.Select()
	if err != nil {
		b.logger.Error("No usable injector factory", zap.Error(err))
		return nil, configError(err)
	}
	name := factory.Name()
	b.logger.Debug("Creating injector", zap.String("factory", name), zap.String("type", fmt.Sprintf("%T", factory)))

	defer func() {
		if r := recover(); r != nil {
			err = b.injectorError(name, pkgerrors.Errorf("panic: %v", r))
			inj = nil
		}
	}()

	inj, err = factory.CreateInjector(b.app, set)
	if err != nil {
		return nil, b.injectorError(name, withStack(err))
	}
	if inj == nil {
		return nil, b.injectorError(name, pkgerrors.New("factory returned a nil injector"))
	}
	return inj, nil
}

func (b *Bootstrapper) injectorError(factory string, err error) error {
	stack := sanitizedStack(err)
	b.logger.Error("Injector construction failed",
		zap.String("factory", factory),
		zap.Error(err),
		zap.Strings("stack", stack))
	return &InjectorConstructionError{Factory: factory, Err: err, Stack: stack}
}

// Run calls Initialize, Startup and Ready in order. The first error stops
// the sequence and is returned as a *LifecycleError.
func (b *Bootstrapper) Run() error {
	b.run.Lock()
	defer b.run.Unlock()
	if err := b.expect(InjectorCreated); err != nil {
		return err
	}

	steps := []struct {
		phase Phase
		call  func() error
		next  State
	}{
		{PhaseInitialize, b.app.Initialize, Initialized},
		{PhaseStartup, b.app.Startup, StartedUp},
		{PhaseReady, b.app.Ready, Ready},
	}
	for _, s := range steps {
		start := time.Now()
		if err := s.call(); err != nil {
			b.logger.Error("Lifecycle phase failed", zap.String("phase", string(s.phase)), zap.Error(err))
			return b.fail(string(s.phase), &LifecycleError{Phase: s.phase, Err: err})
		}
		b.metrics.observe(string(s.phase), start)
		b.setState(s.next)
	}
	b.logger.Info("Application ready")
	return nil
}

func (b *Bootstrapper) publish(name string) {
	src, ok := b.app.(EventSource)
	if !ok || src.Events() == nil {
		return
	}
	_ = src.Events().Publish(context.Background(), events.New(name, CoreModuleName, b))
}
