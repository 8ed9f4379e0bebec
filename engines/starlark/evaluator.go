package starlark

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robbyt/go-replkit/internal/helpers"
	"github.com/robbyt/go-replkit/platform"
	"golang.org/x/sync/semaphore"

	starlarkLib "go.starlark.net/starlark"
)

// Evaluator executes compiled units against the session, one at a time.
//
// Session state and chunk execution are not reentrant, so the evaluator
// enforces mutual exclusion: at most one Eval is in progress globally. A
// concurrent call is a caller misuse and is flagged with
// ErrExecutionInFlight rather than queued. Before invoking, the evaluator
// records the Starlark thread that will perform the invocation and raises the
// invoking flag, so an external Interrupt can target the right thread; both
// are cleared on exit regardless of outcome.
type Evaluator struct {
	session *Session

	// sem is the single-flight gate. TryAcquire keeps a second caller from
	// queueing behind a running execution.
	sem *semaphore.Weighted

	invoking    atomic.Bool
	interrupted atomic.Bool
	thread      atomic.Pointer[starlarkLib.Thread]

	logHandler slog.Handler
	logger     *slog.Logger
}

// NewEvaluator creates an evaluator bound to a session.
func NewEvaluator(handler slog.Handler, session *Session) (*Evaluator, error) {
	if session == nil {
		return nil, ErrSessionNil
	}
	handler, logger := helpers.SetupLogger(handler, "starlark", "Evaluator")

	return &Evaluator{
		session:    session,
		sem:        semaphore.NewWeighted(1),
		logHandler: handler,
		logger:     logger,
	}, nil
}

func (be *Evaluator) String() string {
	return "starlark.Evaluator"
}

// Invoking reports whether an execution is currently in flight.
func (be *Evaluator) Invoking() bool {
	return be.invoking.Load()
}

// Interrupt cancels the execution currently in flight, targeting the thread
// recorded at invocation start. Cancellation is cooperative: the running
// chunk observes it at its next instruction and Eval reports Interrupted,
// leaving the engine reusable. Returns false when nothing is executing.
func (be *Evaluator) Interrupt(reason string) bool {
	t := be.thread.Load()
	if t == nil || !be.invoking.Load() {
		return false
	}
	if reason == "" {
		reason = "interrupt requested"
	}
	be.interrupted.Store(true)
	t.Cancel(reason)
	return true
}

// Eval invokes a compiled unit and captures its result. The unit is consumed
// by the call: invoking it a second time is an ErrUnitConsumed misuse.
//
// The returned error covers only caller misuse (nil or consumed unit,
// concurrent call); every execution-level failure is reported in-band as an
// outcome so the session survives it.
func (be *Evaluator) Eval(ctx context.Context, unit *Executable) (platform.Outcome, error) {
	logger := be.logger.WithGroup("Eval")
	if unit == nil {
		return platform.Outcome{}, ErrUnitNil
	}
	if !unit.markConsumed() {
		return platform.Outcome{}, ErrUnitConsumed
	}
	if !be.sem.TryAcquire(1) {
		return platform.Outcome{}, ErrExecutionInFlight
	}
	defer be.sem.Release(1)

	be.interrupted.Store(false)

	thread := &starlarkLib.Thread{
		Name: "repl",
		Print: func(t *starlarkLib.Thread, msg string) {
			logger.InfoContext(ctx, msg, "starlark-thread", t.Name)
		},
	}

	// Propagate context cancellation to the running chunk. The watcher must
	// not outlive this call, or a late ctx cancellation would cancel an
	// unrelated execution on a reused thread name.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	// Publish the thread before raising the invoking flag: Interrupt checks
	// the flag after loading the thread, so this order means a caller that
	// observes invoking always finds a cancellable thread.
	be.thread.Store(thread)
	defer be.thread.Store(nil)
	be.invoking.Store(true)
	defer be.invoking.Store(false)

	// Execute against a copy; the swap in commit is the atomic point at
	// which the fragment's bindings become session state.
	globals := be.session.cloneGlobals()
	startTime := time.Now()

	if len(unit.stmts.Stmts) > 0 {
		if err := starlarkLib.ExecREPLChunk(unit.stmts, thread, globals); err != nil {
			return be.classify(ctx, err), nil
		}
	}

	var value starlarkLib.Value
	if unit.expr != nil {
		v, err := starlarkLib.EvalExprOptions(unit.fileOpts, thread, unit.expr, globals)
		if err != nil {
			return be.classify(ctx, err), nil
		}
		value = v
	}

	be.session.commit(globals, unit.declared)
	logger.DebugContext(ctx, "execution complete",
		"execTime", time.Since(startTime), "yieldsValue", unit.expr != nil)

	return be.capture(value, unit.expr != nil), nil
}
