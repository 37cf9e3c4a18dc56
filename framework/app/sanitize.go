package app

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// frames from these packages say nothing about the failing code
var elidedPrefixes = []string{
	"runtime.",
	"testing.",
	"reflect.",
	reflect.TypeFor[Bootstrapper]().PkgPath() + ".",
}

// withStack attaches a stack to err unless some error in its chain already
// carries one.
func withStack(err error) error {
	var st stackTracer
	if errors.As(err, &st) {
		return err
	}
	return pkgerrors.WithStack(err)
}

// sanitizedStack renders the innermost stack in err's chain as
// "function (file:line)" lines, dropping runtime and bootstrap plumbing.
func sanitizedStack(err error) []string {
	var st stackTracer
	if !errors.As(err, &st) {
		return nil
	}
	var out []string
	for _, f := range st.StackTrace() {
		pc := uintptr(f) - 1
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		name := fn.Name()
		if elided(name) {
			continue
		}
		file, line := fn.FileLine(pc)
		out = append(out, fmt.Sprintf("%s (%s:%d)", name, file, line))
	}
	return out
}

func elided(name string) bool {
	for _, p := range elidedPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
