package routing

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Server runs an http.Handler in the background. It satisfies app.Service,
// so binding one makes the Kernel start it during Startup and close it on
// Shutdown.
type Server struct {
	addr    string
	handler http.Handler
	logger  *zap.Logger

	mu   sync.Mutex
	srv  *http.Server
	ln   net.Listener
	done chan struct{}
}

// NewServer creates a server for handler on addr ("host:port", port 0 picks
// a free one).
func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{addr: addr, handler: handler, logger: logger}
}

// Start binds the address and serves in a goroutine. Bind errors are
// returned synchronously.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return fmt.Errorf("routing: server on %s already started", s.addr)
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("routing: listening on %s: %w", s.addr, err)
	}
	s.ln = ln
	s.srv = &http.Server{Handler: s.handler, ReadHeaderTimeout: 5 * time.Second}
	s.done = make(chan struct{})

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", zap.String("addr", ln.Addr().String()), zap.Error(err))
		}
	}(s.srv, s.done)

	s.logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Close shuts the server down gracefully. It is a no-op if never started.
func (s *Server) Close() error {
	s.mu.Lock()
	srv, done := s.srv, s.done
	s.srv = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	<-done
	return err
}
