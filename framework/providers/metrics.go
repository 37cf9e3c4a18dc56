package providers

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/km-arc/go-bootstrap/framework/app"
	"github.com/km-arc/go-bootstrap/framework/binding"
	"github.com/km-arc/go-bootstrap/framework/module"
)

// MetricsModuleName is the name of MetricsModule.
const MetricsModuleName = "metrics"

// MetricsModule exposes a Metrics registry to the rest of the application,
// so components register their own collectors next to the bootstrap ones.
//
// Bound keys:
//   - *app.Metrics
//   - prometheus.Registerer
//   - prometheus.Gatherer  with Go runtime and process collectors added
//     when Runtime is set
type MetricsModule struct {
	module.BaseModule

	Metrics *app.Metrics
	Runtime bool
}

func (MetricsModule) Name() string { return MetricsModuleName }

func (m MetricsModule) Bindings() []binding.Binding {
	if m.Metrics == nil {
		return nil
	}
	reg := m.Metrics.Registry()
	runtime := m.Runtime
	return []binding.Binding{
		binding.Bind[*app.Metrics]().ToInstance(m.Metrics),
		binding.Bind[prometheus.Registerer]().ToInstance(reg),
		binding.Bind[prometheus.Gatherer]().AsSingleton().ToProvider(func(binding.Resolver) (prometheus.Gatherer, error) {
			if !runtime {
				return reg, nil
			}
			for _, c := range []prometheus.Collector{
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			} {
				if err := reg.Register(c); err != nil {
					var already prometheus.AlreadyRegisteredError
					if !errors.As(err, &already) {
						return nil, err
					}
				}
			}
			return reg, nil
		}),
	}
}
