package starlark

import (
	"fmt"

	"github.com/robbyt/go-replkit/platform/host"
	starlarkLib "go.starlark.net/starlark"
)

// DefaultPrinter renders Starlark values with their canonical source-like
// representation. Verbose mode appends the type name, for inspector-style
// display.
type DefaultPrinter struct{}

func (p *DefaultPrinter) Format(value any, verbose bool) (string, error) {
	switch v := value.(type) {
	case nil:
		return starlarkLib.None.String(), nil
	case starlarkLib.Value:
		if verbose {
			return fmt.Sprintf("%s (%s)", v.String(), v.Type()), nil
		}
		return v.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// safeFormat calls the printer with panic isolation. A panicking String on a
// user-defined type is reported as a formatting error, not a crash.
func safeFormat(p host.ValuePrinter, value any, verbose bool) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("printer panic: %v", r)
		}
	}()
	return p.Format(value, verbose)
}
