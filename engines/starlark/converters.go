package starlark

import (
	"fmt"

	starlarkLib "go.starlark.net/starlark"
)

// convertToInterface converts a Starlark value to a native Go value, for
// callers that want the produced result without depending on Starlark types.
func convertToInterface(v starlarkLib.Value) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch v := v.(type) {
	case starlarkLib.NoneType:
		return nil, nil
	case starlarkLib.Bool:
		return bool(v), nil
	case starlarkLib.Int:
		i, ok := v.Int64()
		if !ok {
			// Preserve arbitrary-precision ints as text rather than losing
			// digits.
			return v.String(), nil
		}
		return i, nil
	case starlarkLib.Float:
		return float64(v), nil
	case starlarkLib.String:
		return string(v), nil
	case starlarkLib.Tuple:
		list := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := convertToInterface(v.Index(i))
			if err != nil {
				return nil, fmt.Errorf("failed to convert tuple element: %w", err)
			}
			list = append(list, elem)
		}
		return list, nil
	case *starlarkLib.List:
		list := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := convertToInterface(v.Index(i))
			if err != nil {
				return nil, fmt.Errorf("failed to convert list element: %w", err)
			}
			list = append(list, elem)
		}
		return list, nil
	case *starlarkLib.Dict:
		dict := make(map[string]any, len(v.Keys()))
		for _, k := range v.Keys() {
			val, found, err := v.Get(k)
			if err != nil || !found {
				continue
			}

			kStr, ok := k.(starlarkLib.String)
			if !ok {
				// Non-string keys are rendered to text so the map stays
				// string-keyed.
				kStr = starlarkLib.String(k.String())
			}

			vv, err := convertToInterface(val)
			if err != nil {
				return nil, fmt.Errorf("failed to convert dict value: %w", err)
			}
			dict[string(kStr)] = vv
		}
		return dict, nil
	case *starlarkLib.Set:
		list := make([]any, 0, v.Len())
		it := v.Iterate()
		defer it.Done()
		var elem starlarkLib.Value
		for it.Next(&elem) {
			ev, err := convertToInterface(elem)
			if err != nil {
				return nil, fmt.Errorf("failed to convert set element: %w", err)
			}
			list = append(list, ev)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported Starlark type %T", v)
	}
}
