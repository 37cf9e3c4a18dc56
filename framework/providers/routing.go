package providers

import (
	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/binding"
	"github.com/km-arc/go-bootstrap/framework/container"
	"github.com/km-arc/go-bootstrap/framework/injector"
	"github.com/km-arc/go-bootstrap/framework/module"
	"github.com/km-arc/go-bootstrap/framework/routing"
)

// RoutingModuleName is the name of RoutingModule.
const RoutingModuleName = "routing"

// HTTPServer qualifies the application's *routing.Server.
const HTTPServer = "http"

// RoutingModule binds the application router.
//
// Bound keys:
//   - *routing.Router                every request gets a container request
//     scope when the injector is a *container.Container
//   - *routing.Server @"http"        only when Addr is set; started with the
//     application
//
// Register routes from an initialize hook; the server starts with the other
// services at Startup:
//
//	k.OnInitialize(func(ctx context.Context, k *app.Kernel) error {
//	    r := injector.MustGet[*routing.Router](k.Injector())
//	    r.Get("/hello", hello)
//	    return nil
//	})
type RoutingModule struct {
	module.BaseModule

	Addr string
}

func (RoutingModule) Name() string { return RoutingModuleName }

func (m RoutingModule) Bindings() []binding.Binding {
	bs := []binding.Binding{
		binding.Bind[*routing.Router]().AsSingleton().ToProvider(newRouter),
	}
	if m.Addr != "" {
		addr := m.Addr
		bs = append(bs, binding.Bind[*routing.Server]().Named(HTTPServer).AsSingleton().ToProvider(
			func(r binding.Resolver) (*routing.Server, error) {
				router, err := injector.Get[*routing.Router](r)
				if err != nil {
					return nil, err
				}
				return routing.NewServer(addr, router, logger(r)), nil
			}))
	}
	return bs
}

func newRouter(r binding.Resolver) (*routing.Router, error) {
	log := logger(r)
	router := routing.New(log)
	if c, err := injector.Get[*container.Container](r); err == nil {
		router.Middleware(routing.RequestScope(c, log))
	}
	return router, nil
}

// logger resolves the bound logger, falling back to a no-op one.
func logger(r binding.Resolver) *zap.Logger {
	if l, err := injector.Get[*zap.Logger](r); err == nil && l != nil {
		return l
	}
	return zap.NewNop()
}
