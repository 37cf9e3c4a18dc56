// Package providers ships the framework's stock modules.
//
// Each module binds one concern so an application composes only what it
// needs:
//
//	boot := app.NewBootstrapper(kernel, app.WithModules(
//	    providers.ConfigModule{Config: cfg},
//	    providers.MetricsModule{Metrics: metrics, Runtime: true},
//	    providers.RoutingModule{},
//	    providers.AdminModule{},
//	))
//
// The modules expect the collaborators an app.Kernel binds (root Context,
// event bus, logger). RoutingModule and AdminModule work best with the
// container injector, which also binds itself.
package providers
