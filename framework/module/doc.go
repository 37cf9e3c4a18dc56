// Package module groups bindings into named modules and resolves a set of
// modules into one ordered, de-duplicated binding set.
//
// # Declaring modules
//
//	storage := module.New("storage", func(b *module.Binder) {
//	    b.Install(
//	        binding.Bind[*sql.DB]().AsSingleton().ToProvider(openDB),
//	        binding.Bind[Repo]().ToConstructor(NewRepo),
//	    )
//	}, module.DependsOn("config"))
//
// Modules may also be plain types implementing Module; embed BaseModule to
// get empty Dependencies and Bindings for free.
//
// # Resolution
//
//	set, err := module.NewResolver(logger).Resolve(core, []module.Module{config, storage})
//
// Resolution runs in three steps:
//
//  1. Module names are checked for uniqueness (DuplicateModuleError).
//  2. Modules are ordered so each follows its dependencies. Ties keep the
//     order modules were supplied in, so the result is reproducible.
//     Leftovers produce a DependencyError matching either
//     ErrUnresolvableDependency or ErrCyclicDependency.
//  3. Bindings are merged in that order. For the same Key, the later module
//     wins; the key keeps the position of its first insertion.
//
// The core module is always first and its keys cannot be rebound.
//
// # Discovery
//
// Plugin packages can register modules from init with Register; the
// bootstrapper reads them back through Default().
package module
