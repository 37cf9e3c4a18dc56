package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/km-arc/go-bootstrap/framework/app"
	"github.com/km-arc/go-bootstrap/framework/appcontext"
	"github.com/km-arc/go-bootstrap/framework/binding"
	"github.com/km-arc/go-bootstrap/framework/config"
	"github.com/km-arc/go-bootstrap/framework/container"
	gohttp "github.com/km-arc/go-bootstrap/framework/http"
	"github.com/km-arc/go-bootstrap/framework/injector"
	"github.com/km-arc/go-bootstrap/framework/logging"
	"github.com/km-arc/go-bootstrap/framework/module"
	"github.com/km-arc/go-bootstrap/framework/providers"
	"github.com/km-arc/go-bootstrap/framework/routing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load() // loads .env automatically
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	metrics := app.NewMetrics("app")
	kernel := app.NewKernel(app.WithConfig(cfg), app.WithKernelLogger(logger))
	kernel.OnInitialize(routes)

	injector.Register(container.NewFactory(container.WithLogger(logger)))

	boot := app.NewBootstrapper(kernel,
		app.WithLogger(logger),
		app.WithMetrics(metrics),
		app.WithModules(
			providers.ConfigModule{Config: cfg},
			providers.MetricsModule{Metrics: metrics, Runtime: true},
			providers.RoutingModule{Addr: cfg.App.Addr},
			providers.AdminModule{},
			demoModule,
		),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := boot.Start(); err != nil {
		_ = kernel.Shutdown(context.Background())
		return err
	}
	<-ctx.Done()
	logger.Info("Shutting down")
	return kernel.Shutdown(context.Background())
}

// ── Demo module ───────────────────────────────────────────────────────────────

// greeter reads its greeting from the root Context, so editing the context
// file changes it while the process runs.
type greeter struct {
	ctx *appcontext.Context
}

func newGreeter(ctx *appcontext.Context) *greeter { return &greeter{ctx: ctx} }

func (g *greeter) Greet() string {
	return fmt.Sprintf("%s from %s",
		g.ctx.GetAsStringOr("demo.greeting", "Hello"),
		g.ctx.GetAsStringOr("app.name", "go-bootstrap"))
}

// visit lives for one HTTP request.
type visit struct {
	ID uuid.UUID `json:"id"`
	At time.Time `json:"at"`
}

var demoModule = module.New("demo", func(b *module.Binder) {
	b.Install(
		binding.Bind[*greeter]().AsSingleton().ToConstructor(newGreeter),
		binding.Bind[*visit]().In(binding.Request).ToProvider(func(binding.Resolver) (*visit, error) {
			return &visit{ID: uuid.New(), At: time.Now()}, nil
		}),
	)
}, module.DependsOn(providers.RoutingModuleName))

// ── Routes ────────────────────────────────────────────────────────────────────

func routes(_ context.Context, k *app.Kernel) error {
	r, err := injector.Get[*routing.Router](k.Injector())
	if err != nil {
		return err
	}
	g, err := injector.Get[*greeter](k.Injector())
	if err != nil {
		return err
	}

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		gohttp.NewResponse(w).Success(map[string]any{"message": g.Greet()})
	})

	r.Prefix("/api/v1", func(api *routing.Router) {
		// GET /api/v1/visit
		api.Get("/visit", visitHandler)

		// GET /api/v1/context/{key}
		api.Get("/context/{key}", func(w http.ResponseWriter, req *http.Request) {
			res := gohttp.NewResponse(w)
			key := routing.Param(req, "key")
			v, ok := k.Context().Get(key)
			if !ok {
				res.NotFound("no such key: " + key)
				return
			}
			res.Success(map[string]any{"key": key, "value": v})
		})
	})
	return nil
}

// visitHandler answers with the request-scoped visit. It needs the request
// scope opened by the router middleware.
func visitHandler(w http.ResponseWriter, req *http.Request) {
	res := gohttp.NewResponse(w)
	scope := routing.ScopeFrom(req.Context())
	if scope == nil {
		res.Error(http.StatusInternalServerError, "no request scope")
		return
	}
	v, err := injector.Get[*visit](scope)
	if err != nil {
		res.Error(http.StatusInternalServerError, err.Error())
		return
	}
	res.Success(v)
}
