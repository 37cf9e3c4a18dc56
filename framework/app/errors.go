package app

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration wraps every fatal setup problem: duplicate or
	// unresolvable modules, invalid bindings, a missing or ambiguous
	// injector factory. The underlying sentinel stays matchable:
	//
	//	errors.Is(err, app.ErrConfiguration)         // true
	//	errors.Is(err, module.ErrCyclicDependency)  // also true
	ErrConfiguration = errors.New("app: configuration error")

	// ErrInvalidState is returned when Bootstrap or Run is called out of order.
	ErrInvalidState = errors.New("app: invalid bootstrap state")
)

func configError(err error) error {
	return fmt.Errorf("%w: %w", ErrConfiguration, err)
}

// InjectorConstructionError reports a factory that failed or panicked while
// building the injector.
type InjectorConstructionError struct {
	Factory string
	Err     error

	// Stack is the sanitized stack of the innermost error in Err's chain
	// that recorded one (github.com/pkg/errors). A factory that returns a
	// plain error only gets frames from where the error was first wrapped,
	// so return pkg/errors values to keep the factory's own frames.
	Stack []string
}

func (e *InjectorConstructionError) Error() string {
	return fmt.Sprintf("app: injector factory %q failed: %v", e.Factory, e.Err)
}

func (e *InjectorConstructionError) Unwrap() error { return e.Err }

// Phase names a lifecycle step.
type Phase string

const (
	PhaseInitialize Phase = "initialize"
	PhaseStartup    Phase = "startup"
	PhaseReady      Phase = "ready"
)

// LifecycleError reports the lifecycle phase that failed. It unwraps to the
// application's own error.
type LifecycleError struct {
	Phase Phase
	Err   error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("app: %s failed: %v", e.Phase, e.Err)
}

func (e *LifecycleError) Unwrap() error { return e.Err }
