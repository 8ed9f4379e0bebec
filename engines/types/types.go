// Package types provides identifiers for the supported evaluation engines.
package types

import "fmt"

// Type is the identifier for an evaluation engine.
type Type string

const (
	// Starlark engine: https://github.com/google/starlark-go
	Starlark Type = "starlark"

	// Unsupported is the zero value for unrecognized engine names.
	Unsupported Type = ""
)

func (t Type) String() string {
	return string(t)
}

// Parse converts a string to an engine Type.
func Parse(name string) (Type, error) {
	switch Type(name) {
	case Starlark:
		return Starlark, nil
	default:
		return Unsupported, fmt.Errorf("unsupported engine type: %q", name)
	}
}
