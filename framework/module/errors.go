package module

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/km-arc/go-bootstrap/framework/binding"
)

var (
	// ErrDuplicateModule is matched by *DuplicateModuleError.
	ErrDuplicateModule = errors.New("module: duplicate module name")

	// ErrUnresolvableDependency is matched by a *DependencyError whose
	// modules depend on a name absent from the resolution set.
	ErrUnresolvableDependency = errors.New("module: unresolvable dependency")

	// ErrCyclicDependency is matched by a *DependencyError whose modules
	// form one or more cycles.
	ErrCyclicDependency = errors.New("module: cyclic dependency")

	// ErrInvalidBinding wraps a binding.Validate failure with module context.
	ErrInvalidBinding = errors.New("module: invalid binding")

	// ErrCoreOverride is returned when a module rebinds a key owned by the
	// core module.
	ErrCoreOverride = errors.New("module: core binding cannot be overridden")
)

// DuplicateModuleError names both modules that claimed the same name.
type DuplicateModuleError struct {
	Name   string
	First  Module
	Second Module
}

func (e *DuplicateModuleError) Error() string {
	// Example: module: duplicate module name "cache" (*app.CacheModule and *module.funcModule)
	return fmt.Sprintf("%s %s (%T and %T)", ErrDuplicateModule, strconv.Quote(e.Name), e.First, e.Second)
}

func (e *DuplicateModuleError) Unwrap() error { return ErrDuplicateModule }

// DependencyError reports modules left over after ordering, either because a
// dependency is missing or because they depend on each other.
type DependencyError struct {
	// Modules lists the unresolved modules in declaration order.
	Modules []string

	// Missing maps a module to the dependencies absent from the set.
	// Empty for a pure cycle.
	Missing map[string][]string
}

func (e *DependencyError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("%s between modules [%s]", ErrCyclicDependency, strings.Join(e.Modules, ", "))
	}
	parts := make([]string, 0, len(e.Missing))
	for _, name := range e.Modules {
		if deps, ok := e.Missing[name]; ok {
			parts = append(parts, fmt.Sprintf("%s -> [%s]", name, strings.Join(deps, ", ")))
		}
	}
	return fmt.Sprintf("%s: %s; unresolved modules [%s]",
		ErrUnresolvableDependency, strings.Join(parts, "; "), strings.Join(e.Modules, ", "))
}

func (e *DependencyError) Unwrap() error {
	if len(e.Missing) == 0 {
		return ErrCyclicDependency
	}
	return ErrUnresolvableDependency
}

// BindingError carries the module and key of a rejected binding.
type BindingError struct {
	Module string
	Key    binding.Key
	Err    error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("%s %s in module %s: %v", ErrInvalidBinding, e.Key, strconv.Quote(e.Module), e.Err)
}

func (e *BindingError) Unwrap() []error { return []error{ErrInvalidBinding, e.Err} }
