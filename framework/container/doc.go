// Package container is the default injector: a Key-addressed IoC container
// built from a module.ResolvedBindingSet.
//
// # Scopes
//
//	binding.Bind[*Config]().ToInstance(cfg)                     // singleton
//	binding.Bind[Cache]().AsSingleton().ToConstructor(NewRedis) // built once, lazily
//	binding.Bind[*Handler]().ToConstructor(NewHandler)          // prototype, new every Get
//	binding.Bind[*User]().In(binding.Request).ToProvider(...)   // one per RequestScope
//
// # Resolving
//
//	c := container.New()
//	c.Bind(...)
//	cache, err := injector.Get[Cache](c)
//
//	scope := c.BeginRequest()
//	defer scope.Close()
//	user, err := injector.Get[*User](scope)
//
// Constructor parameters are resolved by type. A constructor that (directly
// or not) needs its own key fails with *CircularDependencyError instead of
// recursing forever.
//
// # Bootstrap
//
// Register the factory once in the composition root:
//
//	injector.Register(container.NewFactory(container.WithEagerSingletons()))
//
// The injector it creates is bound to itself, so components can depend on
// injector.Injector.
package container
