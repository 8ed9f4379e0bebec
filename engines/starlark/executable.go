package starlark

import (
	"sync/atomic"

	machineTypes "github.com/robbyt/go-replkit/engines/types"
	"go.starlark.net/syntax"
)

// Executable is a compiled unit: one validated fragment, split into its
// leading statements and an optional trailing expression whose value the
// fragment produces. It is owned by the evaluator for the duration of one
// invocation and may be invoked at most once.
type Executable struct {
	src      string
	stmts    *syntax.File
	expr     syntax.Expr
	declared []string
	fileOpts *syntax.FileOptions
	consumed atomic.Bool
}

func newExecutable(
	src string,
	stmts *syntax.File,
	expr syntax.Expr,
	declared []string,
	fileOpts *syntax.FileOptions,
) *Executable {
	if stmts == nil || fileOpts == nil {
		return nil
	}
	return &Executable{
		src:      src,
		stmts:    stmts,
		expr:     expr,
		declared: declared,
		fileOpts: fileOpts,
	}
}

// GetSource returns the normalized fragment text this unit was compiled from.
func (e *Executable) GetSource() string {
	return e.src
}

// GetMachineType returns the engine this unit runs on.
func (e *Executable) GetMachineType() machineTypes.Type {
	return machineTypes.Starlark
}

// YieldsValue reports whether the fragment ends in an expression statement,
// i.e. whether executing it produces a value.
func (e *Executable) YieldsValue() bool {
	return e.expr != nil
}

// DeclaredNames returns the top-level names the fragment binds, in source
// order.
func (e *Executable) DeclaredNames() []string {
	out := make([]string, len(e.declared))
	copy(out, e.declared)
	return out
}

// markConsumed flips the one-shot flag. Returns false if the unit was
// already invoked.
func (e *Executable) markConsumed() bool {
	return e.consumed.CompareAndSwap(false, true)
}
