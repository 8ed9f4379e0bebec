package starlark

import (
	starlarkJSON "go.starlark.net/lib/json"
	starlarkMath "go.starlark.net/lib/math"
	starlarkTime "go.starlark.net/lib/time"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// Module namespace constants. These are the names a host module provider may
// reference; registration installs the module into the session under its name.
const (
	namespaceJSON = "json" // Provides JSON encoding/decoding functions
	namespaceMath = "math" // Provides mathematical functions and constants
	namespaceTime = "time" // Provides time-related functions
)

// helperVersion is exposed as the `version` member of the helper module.
const helperVersion = "0.2.0"

// lookupModule resolves a reference-module name to its module value. Unknown
// names are a per-module bootstrap failure, recorded and aggregated by the
// session rather than aborting bootstrap.
func lookupModule(name string) (starlarkLib.Value, bool) {
	switch name {
	case namespaceJSON:
		return starlarkJSON.Module, true
	case namespaceMath:
		return starlarkMath.Module, true
	case namespaceTime:
		return starlarkTime.Module, true
	default:
		return nil, false
	}
}

// moduleMembers returns the member dictionary of a registered module value,
// used when an import promotes a module's members to unqualified visibility.
func moduleMembers(v starlarkLib.Value) (starlarkLib.StringDict, bool) {
	if m, ok := v.(*starlarkstruct.Module); ok {
		return m.Members, true
	}
	return nil, false
}

// helperModule is the designated base/helper module. Its members are splatted
// into the session universe at bootstrap so evaluated code can reach them
// without qualification.
func helperModule() *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "shell",
		Members: starlarkLib.StringDict{
			"version":  starlarkLib.String(helperVersion),
			"typename": starlarkLib.NewBuiltin("typename", typenameBuiltin),
		},
	}
}

// typenameBuiltin returns the Starlark type name of its single argument.
func typenameBuiltin(
	thread *starlarkLib.Thread,
	b *starlarkLib.Builtin,
	args starlarkLib.Tuple,
	kwargs []starlarkLib.Tuple,
) (starlarkLib.Value, error) {
	var v starlarkLib.Value
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	return starlarkLib.String(v.Type()), nil
}
