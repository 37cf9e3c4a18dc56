package routing_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-bootstrap/framework/app"
	"github.com/km-arc/go-bootstrap/framework/appcontext"
	"github.com/km-arc/go-bootstrap/framework/binding"
	"github.com/km-arc/go-bootstrap/framework/module"
	"github.com/km-arc/go-bootstrap/framework/routing"
)

type fakeBoot struct {
	state app.State
	err   error
	set   *module.ResolvedBindingSet
}

func (f fakeBoot) State() app.State                     { return f.state }
func (f fakeBoot) Err() error                           { return f.err }
func (f fakeBoot) Bindings() *module.ResolvedBindingSet { return f.set }

func adminRouter(t *testing.T, boot routing.Introspector, ctx *appcontext.Context, g prometheus.Gatherer) *routing.Router {
	t.Helper()
	r := routing.New(nil)
	routing.NewAdmin(boot, ctx, g).Register(r)
	return r
}

func data(t *testing.T, body io.Reader, into any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, into))
}

func TestAdmin_HealthAndState(t *testing.T) {
	r := adminRouter(t, fakeBoot{state: app.StartedUp}, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, r, http.MethodGet, "/admin/health").Code)

	r = adminRouter(t, fakeBoot{state: app.Ready}, nil, nil)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/admin/health").Code)

	r = adminRouter(t, fakeBoot{state: app.Failed, err: errors.New("no factory")}, nil, nil)
	rr := do(t, r, http.MethodGet, "/admin/state")
	var st map[string]string
	data(t, rr.Body, &st)
	assert.Equal(t, map[string]string{"state": "failed", "error": "no factory"}, st)
}

func TestAdmin_ModulesAndBindings(t *testing.T) {
	r := adminRouter(t, fakeBoot{state: app.Created}, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, r, http.MethodGet, "/admin/bindings").Code)

	set, err := module.Resolve(
		module.New("core", func(b *module.Binder) { b.Install(binding.Bind[string]().ToInstance("x")) }),
		module.New("web", func(b *module.Binder) {
			b.Install(binding.Bind[int]().AsSingleton().ToProvider(func(binding.Resolver) (int, error) { return 1, nil }))
		}),
	)
	require.NoError(t, err)
	r = adminRouter(t, fakeBoot{state: app.Ready, set: set}, nil, nil)

	var mods []string
	data(t, do(t, r, http.MethodGet, "/admin/modules").Body, &mods)
	assert.Equal(t, []string{"core", "web"}, mods)

	var bs []map[string]string
	data(t, do(t, r, http.MethodGet, "/admin/bindings").Body, &bs)
	require.Len(t, bs, 2)
	assert.Equal(t, map[string]string{"key": "string", "target": "instance", "scope": "singleton", "source": "core"}, bs[0])
	assert.Equal(t, "provider", bs[1]["target"])
	assert.Equal(t, "web", bs[1]["source"])
}

func TestAdmin_Context(t *testing.T) {
	root := appcontext.New(nil)
	root.Put("app.name", "shop")
	child := root.Child()
	child.Put("request.limit", 10)

	r := adminRouter(t, fakeBoot{}, child, nil)

	var entries map[string]map[string]string
	data(t, do(t, r, http.MethodGet, "/admin/context").Body, &entries)
	assert.Equal(t, map[string]map[string]string{"request.limit": {"kind": "int", "value": "10"}}, entries)

	var one map[string]string
	data(t, do(t, r, http.MethodGet, "/admin/context/app.name").Body, &one)
	assert.Equal(t, "shop", one["value"], "lookups walk the parent chain")

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/admin/context/nope").Code)
	runtime.KeepAlive(root)
}

func TestAdmin_NoContext(t *testing.T) {
	r := adminRouter(t, fakeBoot{}, nil, nil)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/admin/context").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/metrics").Code)
}

func TestAdmin_Metrics(t *testing.T) {
	m := app.NewMetrics("admin_test")
	m.State.Set(5)
	r := adminRouter(t, fakeBoot{}, nil, m.Registry())

	rr := do(t, r, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "admin_test_bootstrap_state 5")
}
