package container

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/km-arc/go-bootstrap/framework/binding"
)

// RequestScope caches request-scoped instances for the lifetime of one unit
// of work. Singletons and prototypes resolve through it as usual.
//
//	scope := c.BeginRequest()
//	defer scope.Close()
//	user, err := injector.Get[*CurrentUser](scope)
type RequestScope struct {
	id uuid.UUID
	c  *Container

	mu     sync.Mutex
	cells  map[binding.Key]*cell
	order  []binding.Key
	closed bool
}

// BeginRequest opens a new request scope.
func (c *Container) BeginRequest() *RequestScope {
	return &RequestScope{
		id:    uuid.New(),
		c:     c,
		cells: make(map[binding.Key]*cell),
	}
}

// ID identifies the scope in logs.
func (s *RequestScope) ID() uuid.UUID { return s.id }

// Get resolves key within the scope.
func (s *RequestScope) Get(key binding.Key) (any, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("%w: %s", ErrScopeClosed, s.id)
	}
	return s.c.resolve(&resolution{c: s.c, scope: s}, key)
}

// Has reports whether key is bound in the underlying container.
func (s *RequestScope) Has(key binding.Key) bool { return s.c.Has(key) }

// Keys returns the keys of the underlying container.
func (s *RequestScope) Keys() []binding.Key { return s.c.Keys() }

func (s *RequestScope) cell(key binding.Key) (*cell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("%w: %s", ErrScopeClosed, s.id)
	}
	cl, ok := s.cells[key]
	if !ok {
		cl = &cell{}
		s.cells[key] = cl
		s.order = append(s.order, key)
	}
	return cl, nil
}

// Close releases the scope. Built instances that implement io.Closer are
// closed in reverse creation order. Close is idempotent.
func (s *RequestScope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cells, order := s.cells, s.order
	s.cells, s.order = nil, nil
	s.mu.Unlock()

	var errs []error
	for _, key := range slices.Backward(order) {
		cl := cells[key]
		cl.mu.Lock()
		v, done := cl.value, cl.done
		cl.mu.Unlock()
		if !done {
			continue
		}
		if closer, ok := v.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("container: closing %s: %w", key, err))
			}
		}
	}
	return errors.Join(errs...)
}
