package providers

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/km-arc/go-bootstrap/framework/app"
	"github.com/km-arc/go-bootstrap/framework/appcontext"
	"github.com/km-arc/go-bootstrap/framework/binding"
	"github.com/km-arc/go-bootstrap/framework/config"
	"github.com/km-arc/go-bootstrap/framework/injector"
	"github.com/km-arc/go-bootstrap/framework/module"
	"github.com/km-arc/go-bootstrap/framework/routing"
)

// AdminModuleName is the name of AdminModule.
const AdminModuleName = "admin"

// AdminServer qualifies the admin *routing.Server.
const AdminServer = "admin"

// AdminModule serves routing.Admin on its own listener, configured by the
// admin.* settings. When admin.enabled is false the server resolves to nil
// and is never started.
//
// Bound keys:
//   - *routing.Server @"admin"
type AdminModule struct {
	module.BaseModule
}

func (AdminModule) Name() string { return AdminModuleName }

func (AdminModule) Bindings() []binding.Binding {
	return []binding.Binding{
		binding.Bind[*routing.Server]().Named(AdminServer).AsSingleton().ToProvider(newAdminServer),
	}
}

func newAdminServer(r binding.Resolver) (*routing.Server, error) {
	cfg, err := injector.Get[*config.Config](r)
	if err != nil {
		return nil, err
	}
	if !cfg.Admin.Enabled {
		return nil, nil
	}
	boot, err := injector.Get[*app.Bootstrapper](r)
	if err != nil {
		return nil, err
	}
	// both optional: their routes answer 404 without them
	ctx, _ := injector.Get[*appcontext.Context](r)
	gatherer, _ := injector.Get[prometheus.Gatherer](r)

	log := logger(r).Named("admin")
	router := routing.New(log)
	routing.NewAdmin(boot, ctx, gatherer).Register(router)
	return routing.NewServer(cfg.Admin.Addr, router, log), nil
}
