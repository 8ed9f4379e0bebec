package starlark

import (
	"context"

	"github.com/robbyt/go-replkit/platform"
	"github.com/robbyt/go-replkit/platform/diag"
	"go.starlark.net/resolve"
	starlarkLib "go.starlark.net/starlark"
)

// capture builds the Completed outcome for a finished execution. A fragment
// ending in an expression statement produced a value; a declaration or void
// statement did not. Printer failures become diagnostics, never errors: a
// malformed rendering on a user-defined value must not fail the cycle it
// describes.
func (be *Evaluator) capture(value starlarkLib.Value, hasValue bool) platform.Outcome {
	out := platform.Outcome{Kind: platform.Completed, HasValue: hasValue}
	if !hasValue {
		return out
	}
	if value == nil {
		value = starlarkLib.None
	}

	text, err := safeFormat(be.session.printer, value, false)
	if err != nil {
		out.Diagnostics = append(out.Diagnostics, diag.Warningf(
			diag.CodeFormat, "failed to format result value: %v", err))
		text = "<unprintable>"
	}
	out.Value = text

	raw, err := convertToInterface(value)
	if err != nil {
		be.logger.Debug("result value has no native Go representation",
			"type", value.Type(), "error", err)
	} else {
		out.Raw = raw
	}
	return out
}

// classify maps an execution error to its outcome kind. Interruption is
// detected via the evaluator's own interrupt flag and the caller's context,
// the only two paths that cancel the thread, so a cancelled chunk reports
// Interrupted instead of leaking the abort as a runtime fault. The error
// text is never consulted: user code may fail with a message that merely
// mentions cancellation, and that is still a runtime failure.
func (be *Evaluator) classify(ctx context.Context, err error) platform.Outcome {
	if be.interrupted.Load() || ctx.Err() != nil {
		return platform.Outcome{Kind: platform.Interrupted, Err: err}
	}

	if list, ok := err.(resolve.ErrorList); ok {
		// Resolution normally fails at compile time; reaching here means the
		// environment changed under the unit, but the failure class is still
		// a compile failure.
		return platform.Outcome{
			Kind:        platform.CompileFailure,
			Err:         err,
			Diagnostics: errorDiagnostics(diag.CodeResolve, list),
		}
	}

	d := diag.Errorf(diag.CodeRuntime, "%v", err)
	if evalErr, ok := err.(*starlarkLib.EvalError); ok {
		d = diag.Errorf(diag.CodeRuntime, "%s", evalErr.Backtrace())
	}
	return platform.Outcome{
		Kind:        platform.RuntimeFailure,
		Err:         err,
		Diagnostics: []diag.Diagnostic{d},
	}
}
