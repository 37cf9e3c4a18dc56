package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/appcontext"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reloads a YAML file into a Context whenever it changes on disk.
// Keys that disappear from the file are removed from the Context.
type Watcher struct {
	ctx      *appcontext.Context
	path     string
	debounce time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	keys      []string
	callbacks []func(keys []string)

	fs     *fsnotify.Watcher
	stopCh chan struct{}
	done   chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatcherLogger sets the watcher's logger.
func WithWatcherLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher loads path into ctx once and returns a watcher ready to Start.
func NewWatcher(ctx *appcontext.Context, path string, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	w := &Watcher{
		ctx:      ctx,
		path:     abs,
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	keys, err := LoadFile(ctx, abs)
	if err != nil {
		return nil, err
	}
	w.keys = keys
	return w, nil
}

// OnReload registers a callback fired after each successful reload with the
// keys now present.
func (w *Watcher) OnReload(fn func(keys []string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Start begins watching. The file's directory is watched so editors that
// replace files by rename are seen too.
func (w *Watcher) Start() error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: creating file watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(w.path)); err != nil {
		fs.Close()
		return fmt.Errorf("config: watching %s: %w", w.path, err)
	}
	w.fs = fs
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	go w.loop()
	w.logger.Info("Watching context file", zap.String("path", w.path))
	return nil
}

// Close stops the watcher. It is safe to call on a watcher never started.
func (w *Watcher) Close() error {
	if w.fs == nil {
		return nil
	}
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	<-w.done
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer w.fs.Close()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("Context file changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.Reload)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

// Reload re-reads the file now. A file that fails to parse leaves the
// Context untouched.
func (w *Watcher) Reload() {
	values, err := ReadFile(w.path)
	if err != nil {
		w.logger.Error("Context file reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.mu.Lock()
	for _, k := range w.keys {
		if _, ok := values[k]; !ok {
			w.ctx.Remove(k)
		}
	}
	w.ctx.PutAll(values)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	w.keys = keys
	cbs := slices.Clone(w.callbacks)
	w.mu.Unlock()

	w.logger.Info("Context file reloaded", zap.String("path", w.path), zap.Int("keys", len(keys)))
	for _, cb := range cbs {
		cb(slices.Clone(keys))
	}
}

// Keys returns the keys loaded from the file, sorted.
func (w *Watcher) Keys() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.keys)
}
