// Package replkit is an embedded interactive-evaluation engine: it accepts
// short fragments of source text, incrementally compiles each one against an
// accumulated session (previously declared bindings, imports, and helper
// members), executes the result, and reports either a produced value or a
// classified diagnostic. It is the engine behind a live shell inside a larger
// host application; the console front-end, reload mechanism, and value
// pretty-printing are host collaborators declared in platform/host.
package replkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-replkit/engines/starlark"
	"github.com/robbyt/go-replkit/internal/helpers"
	"github.com/robbyt/go-replkit/platform"
	"github.com/robbyt/go-replkit/platform/diag"
	"github.com/robbyt/go-replkit/platform/host"
)

// Shell is one interactive evaluation session. It is explicitly constructed
// and owned by the host; nothing in the engine is process-global. Callers
// drive it with Evaluate one fragment at a time; SnapshotBindings and
// Interrupt may be called from other goroutines.
type Shell struct {
	session   *starlark.Session
	compiler  *starlark.Compiler
	evaluator *starlark.Evaluator
	reporter  *diag.Reporter
	reload    host.ReloadLock

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a Shell with the provided options. Bootstrap (reference-module
// registration, default imports, helper members) runs lazily on the first
// Evaluate, and is retried until it completes cleanly.
func New(opts ...Option) (*Shell, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	cfg.applyDefaults()

	handler, logger := helpers.SetupLogger(cfg.handler, "replkit", "Shell")
	reporter := diag.NewReporter(handler)

	session := starlark.NewSession(
		handler, cfg.provider, reporter, cfg.printer, cfg.imports, cfg.maxValueLen)

	compiler, err := starlark.NewCompiler(handler, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create compiler: %w", err)
	}

	evaluator, err := starlark.NewEvaluator(handler, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluator: %w", err)
	}

	return &Shell{
		session:    session,
		compiler:   compiler,
		evaluator:  evaluator,
		reporter:   reporter,
		reload:     cfg.reloadLock,
		logHandler: handler,
		logger:     logger,
	}, nil
}

func (sh *Shell) String() string {
	return "replkit.Shell"
}

// Evaluate runs one full cycle: normalize, compile against session state,
// execute, capture. The host reload lock is held for the whole cycle, since
// a live reload can invalidate the in-flight compiled unit. Every failure is
// caught at this boundary and returned in-band; the session remains usable
// for the next request after any outcome.
func (sh *Shell) Evaluate(ctx context.Context, raw string) platform.Outcome {
	sh.reload.Lock()
	defer sh.reload.Unlock()

	src := Normalize(raw)

	unit, err := sh.compiler.Compile(src)
	if err != nil {
		return sh.compileOutcome(raw, err)
	}

	outcome, err := sh.evaluator.Eval(ctx, unit)
	if err != nil {
		// Misuse or engine defect; non-fatal by design.
		return sh.internalFault(err)
	}

	sh.reporter.ReportAll(outcome.Diagnostics)
	if outcome.Kind == platform.Interrupted {
		sh.logger.Info("execution interrupted", "error", outcome.Err)
	}
	return outcome
}

// compileOutcome maps a compile-stage error to its outcome.
func (sh *Shell) compileOutcome(raw string, err error) platform.Outcome {
	switch {
	case errors.Is(err, starlark.ErrIncomplete):
		// Hand the submitted text back so the caller can concatenate the
		// next line and resubmit.
		return platform.Outcome{Kind: platform.Incomplete, Remainder: raw}
	case errors.Is(err, starlark.ErrNoStatements):
		// A fragment with no usable syntax unit and no outstanding
		// continuation is a defect state, not a silent no-op.
		return sh.internalFault(err)
	}

	var compileErr *starlark.CompileError
	if errors.As(err, &compileErr) {
		sh.reporter.ReportAll(compileErr.Diagnostics)
		return platform.Outcome{
			Kind:        platform.CompileFailure,
			Err:         err,
			Diagnostics: compileErr.Diagnostics,
		}
	}
	return sh.internalFault(err)
}

// internalFault surfaces an unexpected defect as a non-fatal outcome, logged
// at error severity, so the session is not torn down.
func (sh *Shell) internalFault(err error) platform.Outcome {
	d := diag.Errorf(diag.CodeInternal, "internal evaluation fault: %v", err)
	sh.reporter.Report(d)
	return platform.Outcome{
		Kind:        platform.InternalFault,
		Err:         err,
		Diagnostics: []diag.Diagnostic{d},
	}
}

// SnapshotBindings copies the session's current bindings into an ordered
// list of {name, declared type, formatted value}. It reads live state and is
// not serialized against a concurrent Evaluate; the snapshot is consistent
// (never mid-commit) but may predate or postdate an execution in flight.
func (sh *Shell) SnapshotBindings() []platform.Binding {
	return sh.session.Snapshot()
}

// Interrupt requests cooperative cancellation of the execution currently in
// flight. Returns false when nothing is executing.
func (sh *Shell) Interrupt(reason string) bool {
	return sh.evaluator.Interrupt(reason)
}

// Bootstrap runs one bootstrap pass immediately instead of waiting for the
// first Evaluate, returning the diagnostics the pass produced. Safe to call
// repeatedly; already-installed items yield only suppressed duplicates.
func (sh *Shell) Bootstrap() []diag.Diagnostic {
	return sh.session.Bootstrap()
}

// Reset discards all user bindings and re-runs bootstrap, the equivalent of
// the host's "clear session" action.
func (sh *Shell) Reset() {
	sh.reload.Lock()
	defer sh.reload.Unlock()
	sh.session.Reset()
}
