package platform

import (
	"fmt"

	"github.com/robbyt/go-replkit/platform/diag"
)

// OutcomeKind tags the result of one evaluate cycle.
type OutcomeKind string

const (
	// Completed means the fragment compiled and executed; HasValue reports
	// whether the fragment ended in an expression statement.
	Completed OutcomeKind = "completed"

	// Incomplete means the fragment is syntactically unfinished; the caller
	// should append more input to Remainder and resubmit.
	Incomplete OutcomeKind = "incomplete"

	// CompileFailure means the fragment failed to parse or resolve; the
	// Diagnostics field carries the details.
	CompileFailure OutcomeKind = "compile-failure"

	// Interrupted means the execution was cancelled externally. The session
	// remains usable.
	Interrupted OutcomeKind = "interrupted"

	// RuntimeFailure means user code failed during execution. The session
	// remains usable and prior bindings are unchanged.
	RuntimeFailure OutcomeKind = "runtime-failure"

	// InternalFault means an unexpected engine defect was caught at the
	// evaluate-cycle boundary and surfaced as a non-fatal failure.
	InternalFault OutcomeKind = "internal-fault"
)

// Outcome is the tagged result of evaluating one fragment. Exactly one is
// produced per request; it does not alias live session state.
type Outcome struct {
	Kind OutcomeKind

	// HasValue distinguishes "no value produced" from "value produced" for
	// Completed outcomes. A fragment ending in a declaration or void
	// statement completes without a value.
	HasValue bool

	// Value is the pretty-printed produced value, when HasValue is true.
	Value string

	// Raw is the produced value converted to a native Go type, when
	// HasValue is true. May be nil for None.
	Raw any

	// Remainder carries the submitted text back to the caller for Incomplete
	// outcomes, so it can be concatenated with further input.
	Remainder string

	// Diagnostics produced during this cycle, already forwarded to host
	// logging by the reporter.
	Diagnostics []diag.Diagnostic

	// Err is the underlying failure for Interrupted, RuntimeFailure, and
	// InternalFault outcomes.
	Err error
}

// Failed reports whether the outcome is any of the failure kinds. Incomplete
// is not a failure; it is a request for more input.
func (o Outcome) Failed() bool {
	switch o.Kind {
	case CompileFailure, Interrupted, RuntimeFailure, InternalFault:
		return true
	default:
		return false
	}
}

func (o Outcome) String() string {
	if o.Kind == Completed && o.HasValue {
		return fmt.Sprintf("Outcome{%s, value=%s}", o.Kind, o.Value)
	}
	return fmt.Sprintf("Outcome{%s}", o.Kind)
}
