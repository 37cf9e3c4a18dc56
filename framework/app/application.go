package app

import (
	"github.com/km-arc/go-bootstrap/framework/events"
	"github.com/km-arc/go-bootstrap/framework/injector"
	"github.com/km-arc/go-bootstrap/framework/module"
)

// Application is what the Bootstrapper drives. Initialize, Startup and Ready
// are called once each, in that order, after AttachInjector.
type Application interface {
	Initialize() error
	Startup() error
	Ready() error

	// AttachInjector hands the application its injector. It is called
	// exactly once, before Initialize.
	AttachInjector(inj injector.Injector)
}

// ModuleSource is implemented by applications that ship default modules.
// They are placed ahead of every other loaded module, right after the core
// module.
type ModuleSource interface {
	DefaultModules() []module.Module
}

// EventSource is implemented by applications that expose an event bus. The
// Bootstrapper publishes BootstrapStart and BootstrapEnd on it.
type EventSource interface {
	Events() *events.Bus
}

// ModuleLoader yields modules discovered outside the Bootstrapper's options.
// *module.Registry implements it.
type ModuleLoader interface {
	LoadModules() ([]module.Module, error)
}
