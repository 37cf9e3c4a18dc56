package routing

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/container"
)

type scopeKey struct{}

// RequestScope opens a container.RequestScope for every request and closes
// it once the handler returns. Handlers reach it through ScopeFrom.
//
//	router.Middleware(routing.RequestScope(c, logger))
//	router.Get("/me", func(w http.ResponseWriter, r *http.Request) {
//	    user, err := injector.Get[*CurrentUser](routing.ScopeFrom(r.Context()))
//	})
func RequestScope(c *container.Container, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := c.BeginRequest()
			defer func() {
				if err := scope.Close(); err != nil {
					logger.Warn("Closing request scope failed",
						zap.String("scope_id", scope.ID().String()),
						zap.Error(err))
				}
			}()
			w.Header().Set("X-Scope-ID", scope.ID().String())
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), scopeKey{}, scope)))
		})
	}
}

// ScopeFrom returns the request scope stored by RequestScope, or nil.
func ScopeFrom(ctx context.Context) *container.RequestScope {
	s, _ := ctx.Value(scopeKey{}).(*container.RequestScope)
	return s
}
