package starlark

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robbyt/go-replkit/platform/diag"
)

var ErrContentNil = errors.New("starlark fragment is empty")
var ErrNoStatements = errors.New("starlark fragment contains no statements")
var ErrIncomplete = errors.New("starlark fragment is syntactically incomplete")
var ErrSessionNil = errors.New("starlark session is nil")
var ErrUnitNil = errors.New("starlark executable unit is nil")
var ErrUnitConsumed = errors.New("starlark executable unit was already invoked")
var ErrExecutionInFlight = errors.New("another execution is already in progress")

// CompileError carries the diagnostics of a failed compilation. It is
// returned by Compiler.Compile so the caller can distinguish a compile
// failure from an incomplete fragment.
type CompileError struct {
	Diagnostics []diag.Diagnostic
}

func (e *CompileError) Error() string {
	if len(e.Diagnostics) == 0 {
		return "starlark compile error"
	}
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = d.Message
	}
	return fmt.Sprintf("starlark compile error: %s", strings.Join(msgs, "; "))
}
