package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/binding"
	"github.com/km-arc/go-bootstrap/framework/injector"
	"github.com/km-arc/go-bootstrap/framework/module"
)

// FactoryName is the name the container factory registers under.
const FactoryName = "container"

// Factory builds a *Container from a resolved binding set. It is the default
// injector factory.
type Factory struct {
	eager  bool
	logger *zap.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithEagerSingletons builds every singleton while the injector is created,
// so a broken provider fails the bootstrap instead of the first request.
func WithEagerSingletons() FactoryOption {
	return func(f *Factory) { f.eager = true }
}

// WithLogger sets the factory's logger.
func WithLogger(l *zap.Logger) FactoryOption {
	return func(f *Factory) { f.logger = l }
}

// NewFactory creates the container factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	return f
}

func (f *Factory) Name() string { return FactoryName }

// CreateInjector copies the bindings into a new container and binds the
// container to itself under injector.Injector and *Container, unless the set
// already provides those keys.
func (f *Factory) CreateInjector(owner any, set *module.ResolvedBindingSet) (injector.Injector, error) {
	c := New()
	for _, b := range set.Bindings() {
		if err := c.Bind(b); err != nil {
			return nil, fmt.Errorf("container: %s: %w", b, err)
		}
	}

	self := []binding.Binding{
		binding.Bind[injector.Injector]().ToInstance(c).WithSource(FactoryName),
		binding.Bind[*Container]().ToInstance(c).WithSource(FactoryName),
	}
	for _, b := range self {
		if !c.Has(b.Key()) {
			if err := c.Bind(b); err != nil {
				return nil, err
			}
		}
	}

	if f.eager {
		for _, key := range c.Keys() {
			b, _ := c.Binding(key)
			if b.Scope() != binding.Singleton {
				continue
			}
			if _, err := c.Get(key); err != nil {
				return nil, err
			}
		}
	}

	f.logger.Debug("Injector created",
		zap.String("factory", FactoryName),
		zap.String("owner", fmt.Sprintf("%T", owner)),
		zap.Int("bindings", len(c.Keys())),
		zap.Bool("eager", f.eager))
	return c, nil
}

var _ injector.Factory = (*Factory)(nil)
var _ injector.Injector = (*Container)(nil)
var _ injector.Injector = (*RequestScope)(nil)
