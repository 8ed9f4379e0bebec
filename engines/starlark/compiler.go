package starlark

import (
	"io"
	"log/slog"
	"strings"

	"github.com/robbyt/go-replkit/internal/helpers"
	"github.com/robbyt/go-replkit/platform/diag"
	"go.starlark.net/resolve"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// replFilename is the pseudo-filename attached to fragment diagnostics.
const replFilename = "<repl>"

// replFileOptions enables the dialect features an interactive session needs:
// while loops, top-level control flow, set literals, recursion, and
// reassignment of names carried over from earlier fragments.
func replFileOptions() *syntax.FileOptions {
	return &syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
		Recursion:       true,
	}
}

// Compiler incrementally compiles fragments against the session's
// accumulated environment. Compilation validates the fragment (parse plus
// static resolution against the current bindings) and produces a one-shot
// Executable; it commits nothing to the session.
type Compiler struct {
	session  *Session
	fileOpts *syntax.FileOptions

	logHandler slog.Handler
	logger     *slog.Logger
}

// NewCompiler creates a compiler bound to a session.
func NewCompiler(handler slog.Handler, session *Session) (*Compiler, error) {
	if session == nil {
		return nil, ErrSessionNil
	}
	handler, logger := helpers.SetupLogger(handler, "starlark", "Compiler")

	return &Compiler{
		session:    session,
		fileOpts:   replFileOptions(),
		logHandler: handler,
		logger:     logger,
	}, nil
}

func (c *Compiler) String() string {
	return "starlark.Compiler"
}

// Compile validates one normalized fragment against the current session
// state and returns an executable unit.
//
// Error returns:
//   - ErrIncomplete when the fragment is a syntactically unfinished
//     statement; the caller should concatenate more input and resubmit.
//   - *CompileError with diagnostics when the fragment fails to parse or
//     references undefined names.
//   - ErrNoStatements when the fragment parses but contains no usable
//     syntax unit; the caller treats this as a defect state, not a no-op.
func (c *Compiler) Compile(src string) (*Executable, error) {
	logger := c.logger.WithGroup("compile")
	if strings.TrimSpace(src) == "" {
		return nil, ErrNoStatements
	}

	// Bootstrap lazily so the first fragment sees the full environment.
	c.session.ensureBootstrap()

	f, err := c.fileOpts.Parse(replFilename, src, 0)
	if err != nil {
		if c.probeIncomplete(src) {
			logger.Debug("fragment is incomplete, awaiting more input")
			return nil, ErrIncomplete
		}
		logger.Debug("parse failed", "error", err)
		return nil, &CompileError{Diagnostics: errorDiagnostics(diag.CodeParse, err)}
	}
	if len(f.Stmts) == 0 {
		return nil, ErrNoStatements
	}

	// Static resolution runs on a throwaway parse of the same text, so the
	// tree handed to execution is still unresolved. Resolution against the
	// live environment is what makes compilation incremental: names from
	// prior fragments are in scope, everything else is an error now rather
	// than at run time.
	check, err := c.fileOpts.Parse(replFilename, src, 0)
	if err != nil {
		return nil, &CompileError{Diagnostics: errorDiagnostics(diag.CodeParse, err)}
	}
	if err := resolve.REPLChunk(
		check,
		c.session.isGlobal,
		starlarkLib.StringDict(nil).Has,
		starlarkLib.Universe.Has,
	); err != nil {
		logger.Debug("resolution failed", "error", err)
		return nil, &CompileError{Diagnostics: errorDiagnostics(diag.CodeResolve, err)}
	}

	// Split off a trailing expression statement; its value is the
	// fragment's result.
	var expr syntax.Expr
	if es, ok := f.Stmts[len(f.Stmts)-1].(*syntax.ExprStmt); ok {
		expr = es.X
		f.Stmts = f.Stmts[:len(f.Stmts)-1]
	}

	unit := newExecutable(src, f, expr, topLevelBindings(f), c.fileOpts)
	if unit == nil {
		return nil, ErrContentNil
	}
	logger.Debug("fragment compiled",
		"statements", len(f.Stmts), "yieldsValue", expr != nil)
	return unit, nil
}

// probeIncomplete decides incomplete-vs-error by grammar completeness: the
// fragment's lines are fed to the compound-statement parser, and the fragment
// is incomplete exactly when the parser asks for a line past the end of the
// input.
func (c *Compiler) probeIncomplete(src string) bool {
	lines := strings.SplitAfter(src, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	next := 0
	exhausted := false
	readline := func() ([]byte, error) {
		if next >= len(lines) {
			exhausted = true
			return nil, io.EOF
		}
		line := lines[next]
		next++
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		return []byte(line), nil
	}

	for {
		exhausted = false
		if _, err := c.fileOpts.ParseCompoundStmt(replFilename, readline); err != nil {
			return exhausted
		}
		if next >= len(lines) {
			// Every statement parsed cleanly; the full-file parse failure
			// was not a continuation, so report it as an error.
			return false
		}
	}
}

// errorDiagnostics converts a parse or resolve error into diagnostics,
// expanding multi-error resolve lists into one diagnostic each.
func errorDiagnostics(code string, err error) []diag.Diagnostic {
	if list, ok := err.(resolve.ErrorList); ok {
		out := make([]diag.Diagnostic, 0, len(list))
		for _, e := range list {
			out = append(out, diag.Errorf(code, "%v", e))
		}
		return out
	}
	return []diag.Diagnostic{diag.Errorf(code, "%v", err)}
}

// topLevelBindings collects the names a fragment binds at top level, in
// source order, so commits can keep the snapshot ordering stable.
func topLevelBindings(f *syntax.File) []string {
	var names []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if name == "" || name == "_" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	collectStmts(f.Stmts, add)
	return names
}

// collectStmts walks statements for top-level binds, recursing into control
// flow since a bind inside a top-level if/for/while is still a chunk global.
// Def bodies bind locals and are not entered.
func collectStmts(stmts []syntax.Stmt, add func(string)) {
	for _, stmt := range stmts {
		switch st := stmt.(type) {
		case *syntax.DefStmt:
			add(st.Name.Name)
		case *syntax.AssignStmt:
			collectLHS(st.LHS, add)
		case *syntax.LoadStmt:
			for _, ident := range st.To {
				add(ident.Name)
			}
		case *syntax.IfStmt:
			collectStmts(st.True, add)
			collectStmts(st.False, add)
		case *syntax.ForStmt:
			collectLHS(st.Vars, add)
			collectStmts(st.Body, add)
		case *syntax.WhileStmt:
			collectStmts(st.Body, add)
		}
	}
}

// collectLHS walks an assignment target for the identifiers it binds. Index
// and attribute targets mutate existing values and bind nothing new.
func collectLHS(x syntax.Expr, add func(string)) {
	switch e := x.(type) {
	case *syntax.Ident:
		add(e.Name)
	case *syntax.TupleExpr:
		for _, elem := range e.List {
			collectLHS(elem, add)
		}
	case *syntax.ListExpr:
		for _, elem := range e.List {
			collectLHS(elem, add)
		}
	case *syntax.ParenExpr:
		collectLHS(e.X, add)
	}
}
