package routing

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-bootstrap/framework/app"
	"github.com/km-arc/go-bootstrap/framework/appcontext"
	gohttp "github.com/km-arc/go-bootstrap/framework/http"
	"github.com/km-arc/go-bootstrap/framework/module"
)

// Introspector is the read side of a Bootstrapper.
type Introspector interface {
	State() app.State
	Err() error
	Bindings() *module.ResolvedBindingSet
}

// Admin serves read-only views of the bootstrap and the root Context:
//
//	GET /admin/health         200 once ready, 503 otherwise
//	GET /admin/state          current state and failure, if any
//	GET /admin/modules        module resolution order
//	GET /admin/bindings       resolved bindings
//	GET /admin/context        root Context entries
//	GET /admin/context/{key}  one key, looked up through the parent chain
//	GET /metrics              prometheus exposition
type Admin struct {
	boot     Introspector
	ctx      *appcontext.Context
	gatherer prometheus.Gatherer
}

// NewAdmin creates the admin routes. ctx and gatherer may be nil; their
// routes then answer 404.
func NewAdmin(boot Introspector, ctx *appcontext.Context, gatherer prometheus.Gatherer) *Admin {
	return &Admin{boot: boot, ctx: ctx, gatherer: gatherer}
}

// Register mounts the routes on r.
func (a *Admin) Register(r *Router) {
	r.Prefix("/admin", func(r *Router) {
		r.Get("/health", a.health)
		r.Get("/state", a.state)
		r.Get("/modules", a.modules)
		r.Get("/bindings", a.bindings)
		r.Get("/context", a.contextEntries)
		r.Get("/context/{key}", a.contextKey)
	})
	if a.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	}
}

type stateView struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

type bindingView struct {
	Key    string `json:"key"`
	Target string `json:"target"`
	Scope  string `json:"scope"`
	Source string `json:"source"`
}

type entryView struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func (a *Admin) health(w http.ResponseWriter, _ *http.Request) {
	res := gohttp.NewResponse(w)
	if s := a.boot.State(); s != app.Ready {
		res.Unavailable("state is " + s.String())
		return
	}
	res.Success(stateView{State: app.Ready.String()})
}

func (a *Admin) state(w http.ResponseWriter, _ *http.Request) {
	v := stateView{State: a.boot.State().String()}
	if err := a.boot.Err(); err != nil {
		v.Error = err.Error()
	}
	gohttp.NewResponse(w).Success(v)
}

func (a *Admin) modules(w http.ResponseWriter, _ *http.Request) {
	res := gohttp.NewResponse(w)
	set := a.boot.Bindings()
	if set == nil {
		res.Unavailable("bindings not collected yet")
		return
	}
	res.Success(set.Modules())
}

func (a *Admin) bindings(w http.ResponseWriter, _ *http.Request) {
	res := gohttp.NewResponse(w)
	set := a.boot.Bindings()
	if set == nil {
		res.Unavailable("bindings not collected yet")
		return
	}
	out := make([]bindingView, 0, set.Len())
	for _, b := range set.Bindings() {
		out = append(out, bindingView{
			Key:    b.Key().String(),
			Target: b.Target().String(),
			Scope:  b.Scope().String(),
			Source: b.Source(),
		})
	}
	res.Success(out)
}

func (a *Admin) contextEntries(w http.ResponseWriter, _ *http.Request) {
	res := gohttp.NewResponse(w)
	if a.ctx == nil {
		res.NotFound("no context attached")
		return
	}
	out := make(map[string]entryView)
	for _, k := range a.ctx.Keys() {
		if v, ok := a.ctx.Lookup(k); ok {
			out[k] = entryView{Kind: v.Kind().String(), Value: v.String()}
		}
	}
	res.Success(out)
}

func (a *Admin) contextKey(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	if a.ctx == nil {
		res.NotFound("no context attached")
		return
	}
	key := Param(r, "key")
	v, ok := a.ctx.Lookup(key)
	if !ok {
		res.NotFound("no such key: " + key)
		return
	}
	res.Success(entryView{Kind: v.Kind().String(), Value: v.String()})
}
