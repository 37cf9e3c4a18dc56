// Package events is a synchronous in-process event bus. The runtime publishes
// lifecycle events on it; applications subscribe listeners at runtime.
//
//	bus := events.NewBus(logger)
//	bus.Subscribe(events.ReadyEnd, func(ctx context.Context, e events.Event) error {
//	    logger.Info("application ready", zap.String("app", e.Source))
//	    return nil
//	})
package events

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lifecycle event names.
const (
	BootstrapStart  = "BootstrapStart"
	BootstrapEnd    = "BootstrapEnd"
	InitializeStart = "InitializeStart"
	InitializeEnd   = "InitializeEnd"
	StartupStart    = "StartupStart"
	StartupEnd      = "StartupEnd"
	ReadyStart      = "ReadyStart"
	ReadyEnd        = "ReadyEnd"
	ShutdownStart   = "ShutdownStart"
	ShutdownEnd     = "ShutdownEnd"
	ConfigReloaded  = "ConfigReloaded"
)

// Event is one published occurrence.
type Event struct {
	ID         uuid.UUID
	Name       string
	Source     string
	OccurredAt time.Time
	Payload    any
}

// New creates an event with a fresh ID.
func New(name, source string, payload any) Event {
	return Event{
		ID:         uuid.New(),
		Name:       name,
		Source:     source,
		OccurredAt: time.Now(),
		Payload:    payload,
	}
}

// Listener handles an event. Errors are collected by Publish; they do not
// stop later listeners.
type Listener func(ctx context.Context, e Event) error

// Publisher is the write side of a Bus.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// ── Bus ───────────────────────────────────────────────────────────────────────

type subscription struct {
	id   uint64
	name string // empty means every event
	fn   Listener
}

// Bus delivers events to listeners in subscription order, on the publishing
// goroutine.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	logger *zap.Logger
}

// NewBus creates a Bus. A nil logger disables logging.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{logger: logger}
}

// Subscribe registers fn for events named name and returns a func that
// removes it.
func (b *Bus) Subscribe(name string, fn Listener) (unsubscribe func()) {
	return b.add(name, fn)
}

// SubscribeAll registers fn for every event.
func (b *Bus) SubscribeAll(fn Listener) (unsubscribe func()) {
	return b.add("", fn)
}

func (b *Bus) add(name string, fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, name: name, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
	}
}

// Listeners returns how many listeners would receive an event named name.
func (b *Bus) Listeners(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, s := range b.subs {
		if s.name == "" || s.name == name {
			n++
		}
	}
	return n
}

// Publish calls every matching listener. A panicking listener is recovered,
// logged and reported as an error like any other failure.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	var errs []error
	for _, s := range subs {
		if s.name != "" && s.name != e.Name {
			continue
		}
		if err := b.deliver(ctx, s.fn, e); err != nil {
			b.logger.Warn("Event listener failed",
				zap.String("event", e.Name),
				zap.String("event_id", e.ID.String()),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) deliver(ctx context.Context, fn Listener, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("events: listener for %s panicked: %v", e.Name, r)
		}
	}()
	return fn(ctx, e)
}

var _ Publisher = (*Bus)(nil)
