package starlark

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robbyt/go-replkit/mocks"
	"github.com/robbyt/go-replkit/platform"
	"github.com/robbyt/go-replkit/platform/diag"
	"github.com/robbyt/go-replkit/platform/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Session, *Compiler, *Evaluator) {
	t.Helper()
	session, compiler := newTestCompiler(t)
	evaluator, err := NewEvaluator(testHandler(), session)
	require.NoError(t, err, "Failed to create evaluator")
	return session, compiler, evaluator
}

func compileFragment(t *testing.T, compiler *Compiler, src string) *Executable {
	t.Helper()
	unit, err := compiler.Compile(src)
	require.NoError(t, err, "Failed to compile fragment %q", src)
	return unit
}

func TestNewEvaluatorNilSession(t *testing.T) {
	t.Parallel()
	_, err := NewEvaluator(testHandler(), nil)
	assert.ErrorIs(t, err, ErrSessionNil)
}

func TestEvalProducesValue(t *testing.T) {
	t.Parallel()
	_, compiler, evaluator := newTestEngine(t)

	unit := compileFragment(t, compiler, "21 * 2")
	outcome, err := evaluator.Eval(context.Background(), unit)
	require.NoError(t, err)
	require.Equal(t, platform.Completed, outcome.Kind)
	assert.True(t, outcome.HasValue)
	assert.Equal(t, "42", outcome.Value)
	assert.EqualValues(t, 42, outcome.Raw)
}

func TestEvalDeclarationCommits(t *testing.T) {
	t.Parallel()
	session, compiler, evaluator := newTestEngine(t)

	unit := compileFragment(t, compiler, "x = 5")
	outcome, err := evaluator.Eval(context.Background(), unit)
	require.NoError(t, err)
	require.Equal(t, platform.Completed, outcome.Kind)
	assert.False(t, outcome.HasValue)

	snapshot := session.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "x", snapshot[0].Name)
}

func TestEvalNoneIsStillAValue(t *testing.T) {
	t.Parallel()
	_, compiler, evaluator := newTestEngine(t)

	unit := compileFragment(t, compiler, "print(\"hi\")")
	outcome, err := evaluator.Eval(context.Background(), unit)
	require.NoError(t, err)
	require.Equal(t, platform.Completed, outcome.Kind)
	assert.True(t, outcome.HasValue, "an expression statement yields a value even when it is None")
	assert.Equal(t, "None", outcome.Value)
	assert.Nil(t, outcome.Raw)
}

func TestEvalRuntimeFailureDiscardsFragmentBindings(t *testing.T) {
	t.Parallel()
	session, compiler, evaluator := newTestEngine(t)

	unit := compileFragment(t, compiler, "y = 1\nfail(\"boom\")")
	outcome, err := evaluator.Eval(context.Background(), unit)
	require.NoError(t, err)
	require.Equal(t, platform.RuntimeFailure, outcome.Kind)
	require.NotEmpty(t, outcome.Diagnostics)
	assert.Equal(t, diag.CodeRuntime, outcome.Diagnostics[0].Code)
	assert.Contains(t, outcome.Diagnostics[0].Message, "boom")

	assert.Empty(t, session.Snapshot(), "a failed fragment commits nothing")
	assert.False(t, session.isGlobal("y"))
}

func TestEvalFailureMessageMentioningCancellation(t *testing.T) {
	t.Parallel()
	_, compiler, evaluator := newTestEngine(t)

	// A failure raised by user code is a runtime failure regardless of its
	// message text; only the interrupt flag and the caller's context mark an
	// execution as interrupted.
	unit := compileFragment(t, compiler, "fail(\"upload cancelled by peer\")")
	outcome, err := evaluator.Eval(context.Background(), unit)
	require.NoError(t, err)
	require.Equal(t, platform.RuntimeFailure, outcome.Kind)
	require.NotEmpty(t, outcome.Diagnostics)
	assert.Equal(t, diag.CodeRuntime, outcome.Diagnostics[0].Code)
	assert.Contains(t, outcome.Diagnostics[0].Message, "upload cancelled by peer")
}

func TestEvalUnitInvokedAtMostOnce(t *testing.T) {
	t.Parallel()
	_, compiler, evaluator := newTestEngine(t)

	unit := compileFragment(t, compiler, "1 + 1")
	_, err := evaluator.Eval(context.Background(), unit)
	require.NoError(t, err)

	_, err = evaluator.Eval(context.Background(), unit)
	assert.ErrorIs(t, err, ErrUnitConsumed)
}

func TestEvalNilUnit(t *testing.T) {
	t.Parallel()
	_, _, evaluator := newTestEngine(t)

	_, err := evaluator.Eval(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnitNil)
}

func TestEvalSingleFlight(t *testing.T) {
	t.Parallel()
	_, compiler, evaluator := newTestEngine(t)

	looping := compileFragment(t, compiler, "while True:\n  pass")
	other := compileFragment(t, compiler, "1 + 1")

	done := make(chan platform.Outcome, 1)
	go func() {
		outcome, _ := evaluator.Eval(context.Background(), looping)
		done <- outcome
	}()

	require.Eventually(t, evaluator.Invoking, 5*time.Second, 10*time.Millisecond)

	// A concurrent call is flagged, not queued.
	_, err := evaluator.Eval(context.Background(), other)
	assert.ErrorIs(t, err, ErrExecutionInFlight)

	require.True(t, evaluator.Interrupt("test"))
	select {
	case outcome := <-done:
		assert.Equal(t, platform.Interrupted, outcome.Kind)
		assert.Error(t, outcome.Err)
	case <-time.After(5 * time.Second):
		t.Fatal("interrupted execution did not return")
	}
	assert.False(t, evaluator.Invoking(), "invoking flag cleared on exit")
}

func TestInterruptWithNothingRunning(t *testing.T) {
	t.Parallel()
	_, _, evaluator := newTestEngine(t)
	assert.False(t, evaluator.Interrupt("nothing to do"))
}

func TestEvalFormatterFailureIsolated(t *testing.T) {
	t.Parallel()
	printer := &mocks.ValuePrinter{}
	printer.On("Format", mock.Anything, false).Return("", errors.New("printer broken"))

	handler := testHandler()
	session := NewSession(handler, host.NewStaticModuleProvider(),
		diag.NewReporter(handler), printer, nil, 0)
	compiler, err := NewCompiler(handler, session)
	require.NoError(t, err)
	evaluator, err := NewEvaluator(handler, session)
	require.NoError(t, err)

	unit := compileFragment(t, compiler, "40 + 2")
	outcome, err := evaluator.Eval(context.Background(), unit)
	require.NoError(t, err)

	// The execution outcome is unaffected by the formatting failure; the
	// failure is reported as a diagnostic instead.
	require.Equal(t, platform.Completed, outcome.Kind)
	assert.True(t, outcome.HasValue)
	assert.Equal(t, "<unprintable>", outcome.Value)
	require.NotEmpty(t, outcome.Diagnostics)
	assert.Equal(t, diag.CodeFormat, outcome.Diagnostics[0].Code)
}

func TestEvalSequentialFragmentsShareState(t *testing.T) {
	t.Parallel()
	_, compiler, evaluator := newTestEngine(t)
	ctx := context.Background()

	for _, src := range []string{
		"total = 0",
		"for i in range(5):\n  total += i",
	} {
		unit := compileFragment(t, compiler, src)
		outcome, err := evaluator.Eval(ctx, unit)
		require.NoError(t, err)
		require.Equal(t, platform.Completed, outcome.Kind, "fragment %q", src)
	}

	unit := compileFragment(t, compiler, "total")
	outcome, err := evaluator.Eval(ctx, unit)
	require.NoError(t, err)
	assert.Equal(t, "10", outcome.Value)
}
