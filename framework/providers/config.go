package providers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/appcontext"
	"github.com/km-arc/go-bootstrap/framework/binding"
	"github.com/km-arc/go-bootstrap/framework/config"
	"github.com/km-arc/go-bootstrap/framework/events"
	"github.com/km-arc/go-bootstrap/framework/module"
)

// ConfigModuleName is the name of ConfigModule.
const ConfigModuleName = "config"

// ── ConfigModule ──────────────────────────────────────────────────────────────

// ConfigModule binds the typed configuration and the ContextFile service.
//
// Bound keys:
//   - *config.Config  the given Config, or one loaded from EnvFiles
//   - *ContextFile    loads config.Context.File into the root Context
type ConfigModule struct {
	module.BaseModule

	// Config is bound as is when set. Otherwise config.Load(EnvFiles...)
	// runs the first time the configuration is requested.
	Config   *config.Config
	EnvFiles []string
}

func (ConfigModule) Name() string { return ConfigModuleName }

func (m ConfigModule) Bindings() []binding.Binding {
	cfg := binding.Bind[*config.Config]().AsSingleton()
	var b binding.Binding
	if m.Config != nil {
		b = cfg.ToInstance(m.Config)
	} else {
		files := m.EnvFiles
		b = cfg.ToProvider(func(binding.Resolver) (*config.Config, error) {
			return config.Load(files...)
		})
	}
	return []binding.Binding{
		b,
		binding.Bind[*ContextFile]().AsSingleton().ToConstructor(NewContextFile),
	}
}

// ── ContextFile ───────────────────────────────────────────────────────────────

// ContextFile loads the YAML file named by context.file into the root
// Context when started. With context.watch set it keeps the Context in
// sync with the file and publishes events.ConfigReloaded after every
// reload, the payload being the keys now loaded.
type ContextFile struct {
	cfg    config.ContextConfig
	ctx    *appcontext.Context
	bus    events.Publisher
	logger *zap.Logger

	mu      sync.Mutex
	watcher *config.Watcher
	keys    []string
}

// NewContextFile wires a ContextFile. It does nothing until Start.
func NewContextFile(cfg *config.Config, ctx *appcontext.Context, bus events.Publisher, logger *zap.Logger) *ContextFile {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextFile{cfg: cfg.Context, ctx: ctx, bus: bus, logger: logger}
}

// Start loads the file, and starts watching it if configured to. Without a
// file it is a no-op.
func (f *ContextFile) Start() error {
	if f.cfg.File == "" {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watcher != nil {
		return nil
	}

	if !f.cfg.Watch {
		keys, err := config.LoadFile(f.ctx, f.cfg.File)
		if err != nil {
			return err
		}
		f.keys = keys
		f.logger.Info("Context file loaded", zap.String("path", f.cfg.File), zap.Int("keys", len(keys)))
		return nil
	}

	w, err := config.NewWatcher(f.ctx, f.cfg.File, config.WithWatcherLogger(f.logger))
	if err != nil {
		return err
	}
	w.OnReload(f.reloaded)
	if err := w.Start(); err != nil {
		return fmt.Errorf("providers: %w", err)
	}
	f.watcher = w
	f.keys = w.Keys()
	return nil
}

func (f *ContextFile) reloaded(keys []string) {
	f.mu.Lock()
	f.keys = keys
	f.mu.Unlock()
	if f.bus == nil {
		return
	}
	_ = f.bus.Publish(context.Background(), events.New(events.ConfigReloaded, ConfigModuleName, keys))
}

// Keys returns the keys loaded from the file.
func (f *ContextFile) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

// Close stops watching. Loaded keys stay in the Context.
func (f *ContextFile) Close() error {
	f.mu.Lock()
	w := f.watcher
	f.watcher = nil
	f.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
