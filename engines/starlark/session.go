package starlark

import (
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/robbyt/go-replkit/internal/helpers"
	"github.com/robbyt/go-replkit/platform"
	"github.com/robbyt/go-replkit/platform/diag"
	"github.com/robbyt/go-replkit/platform/host"
	starlarkLib "go.starlark.net/starlark"
)

// Session owns the accumulated state of one interactive evaluation session:
// the registered reference modules, the applied imports, the helper-module
// members, and every user binding committed by a successful fragment.
//
// State is mutated only by commit (after a fully successful execution) and by
// bootstrap; a failed fragment never alters it. Snapshot reads are guarded so
// they never observe a partially-committed state.
type Session struct {
	mu sync.RWMutex

	// globals holds ambient members (modules, imports, helper members) and
	// user bindings. It is the global environment for every chunk; the
	// Starlark universe itself stays predeclared underneath it.
	globals starlarkLib.StringDict

	// ambient marks the names installed by bootstrap, so snapshots list only
	// user bindings.
	ambient map[string]struct{}

	// order records user bindings in first-commit order.
	order []string

	provider host.ModuleProvider
	printer  host.ValuePrinter
	reporter *diag.Reporter
	imports  []string

	// maxValueLen caps snapshot value text in runes; 0 disables truncation.
	maxValueLen int

	// bootstrapped is set once a bootstrap pass finishes with no per-item
	// failures. A pass with failures leaves it unset so the next compile
	// retries; duplicate registrations on retry emit only suppressed
	// diagnostics.
	bootstrapped bool

	// lastFailedModules and lastFailedImports remember the previous pass's
	// failures (sorted), so a persistently failing item warns once rather
	// than on every retry.
	lastFailedModules []string
	lastFailedImports []string

	logHandler slog.Handler
	logger     *slog.Logger
}

// NewSession creates a session with no user bindings. Bootstrap runs lazily
// on first compile, or explicitly via Bootstrap.
func NewSession(
	handler slog.Handler,
	provider host.ModuleProvider,
	reporter *diag.Reporter,
	printer host.ValuePrinter,
	imports []string,
	maxValueLen int,
) *Session {
	handler, logger := helpers.SetupLogger(handler, "starlark", "Session")

	if provider == nil {
		provider = host.NewStaticModuleProvider()
	}
	if reporter == nil {
		reporter = diag.NewReporter(handler)
	}
	if printer == nil {
		printer = &DefaultPrinter{}
	}

	return &Session{
		globals:     make(starlarkLib.StringDict),
		ambient:     make(map[string]struct{}),
		provider:    provider,
		printer:     printer,
		reporter:    reporter,
		imports:     imports,
		maxValueLen: maxValueLen,
		logHandler:  handler,
		logger:      logger,
	}
}

func (s *Session) String() string {
	return "starlark.Session"
}

// Bootstrap runs one registration pass: reference modules from the provider,
// then the default imports, then the helper-module members. Per-item failures
// are recorded and aggregated into a single warning per category, sorted by
// name; they never abort the pass. Re-running is expected and cheap: items
// already installed produce only the suppressed duplicate diagnostics.
//
// All produced diagnostics are forwarded to the reporter and returned.
func (s *Session) Bootstrap() []diag.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bootstrapLocked()
}

// ensureBootstrap lazily bootstraps before a compile. Retries until a pass
// completes without failures, since a host's module set may stabilize late.
func (s *Session) ensureBootstrap() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bootstrapped {
		return
	}
	s.bootstrapLocked()
}

func (s *Session) bootstrapLocked() []diag.Diagnostic {
	logger := s.logger.WithGroup("bootstrap")
	var diags []diag.Diagnostic

	// Reference modules from the host provider.
	var failedModules []string
	for _, name := range s.provider.Modules() {
		if _, exists := s.globals[name]; exists {
			diags = append(diags, diag.Warningf(
				diag.CodeDupModule, "reference module %q is already registered", name))
			continue
		}
		mod, ok := lookupModule(name)
		if !ok {
			failedModules = append(failedModules, name)
			continue
		}
		s.globals[name] = mod
		s.ambient[name] = struct{}{}
	}
	if len(failedModules) > 0 {
		sort.Strings(failedModules)
		if !slices.Equal(failedModules, s.lastFailedModules) {
			diags = append(diags, diag.Warningf(
				diag.CodeModuleLoad,
				"failed to register reference modules: %s", strings.Join(failedModules, ", ")))
		}
	}
	s.lastFailedModules = failedModules

	// Default imports: promote a registered module's members to unqualified
	// visibility. An import fails while its module is unregistered, and is
	// retried on the next pass.
	var failedImports []string
	for _, name := range s.imports {
		mod, exists := s.globals[name]
		if !exists {
			failedImports = append(failedImports, name)
			continue
		}
		members, ok := moduleMembers(mod)
		if !ok {
			failedImports = append(failedImports, name)
			continue
		}
		diags = append(diags, s.installMembersLocked(members)...)
	}
	if len(failedImports) > 0 {
		sort.Strings(failedImports)
		if !slices.Equal(failedImports, s.lastFailedImports) {
			diags = append(diags, diag.Warningf(
				diag.CodeImportLoad,
				"failed to apply default imports: %s", strings.Join(failedImports, ", ")))
		}
	}
	s.lastFailedImports = failedImports

	// Helper module: its members are implicitly reachable without
	// qualification.
	diags = append(diags, s.installMembersLocked(helperModule().Members)...)

	s.bootstrapped = len(failedModules) == 0 && len(failedImports) == 0
	if !s.bootstrapped {
		logger.Debug("bootstrap pass finished with failures",
			"failedModules", len(failedModules), "failedImports", len(failedImports))
	}

	s.reporter.ReportAll(diags)
	return diags
}

// installMembersLocked splats a member dictionary into the session globals in
// sorted name order. Names already present produce a suppressed duplicate
// diagnostic and keep their current value.
func (s *Session) installMembersLocked(members starlarkLib.StringDict) []diag.Diagnostic {
	var diags []diag.Diagnostic
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, exists := s.globals[name]; exists {
			diags = append(diags, diag.Warningf(
				diag.CodeDupImport, "imported member %q is already visible", name))
			continue
		}
		s.globals[name] = members[name]
		s.ambient[name] = struct{}{}
	}
	return diags
}

// isGlobal reports whether a name is bound in the session's global
// environment. Used during compile-time resolution.
func (s *Session) isGlobal(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.globals.Has(name)
}

// cloneGlobals returns a shallow copy of the global environment for one
// execution. Running against the copy keeps a failed or interrupted fragment
// from leaking partial bindings into the session.
func (s *Session) cloneGlobals() starlarkLib.StringDict {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.globals)
}

// commit replaces the global environment with the post-execution copy and
// records any names the fragment declared, in source order. Called only after
// a fully successful execution, so the swap is the fragment's atomic commit
// point.
func (s *Session) commit(globals starlarkLib.StringDict, declared []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range declared {
		if _, wasAmbient := s.ambient[name]; wasAmbient {
			// A user binding now shadows an ambient member; surface it in
			// snapshots from here on.
			delete(s.ambient, name)
			s.order = append(s.order, name)
			continue
		}
		if !s.inOrderLocked(name) {
			s.order = append(s.order, name)
		}
	}
	s.globals = globals
}

func (s *Session) inOrderLocked(name string) bool {
	for _, existing := range s.order {
		if existing == name {
			return true
		}
	}
	return false
}

// Snapshot copies the current user bindings into an ordered list of
// {name, type, formatted value}. It never mutates session state and the
// result does not alias live storage.
func (s *Session) Snapshot() []platform.Binding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]platform.Binding, 0, len(s.order))
	for _, name := range s.order {
		v, exists := s.globals[name]
		if !exists || v == nil {
			continue
		}
		text, err := safeFormat(s.printer, v, false)
		if err != nil {
			s.reporter.Report(diag.Warningf(
				diag.CodeFormat, "failed to format binding %q: %v", name, err))
			text = "<unprintable>"
		}
		out = append(out, platform.Binding{
			Name:  name,
			Type:  v.Type(),
			Value: truncate(text, s.maxValueLen),
		})
	}
	return out
}

// Reset discards every user binding and re-runs bootstrap from scratch.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.globals = make(starlarkLib.StringDict)
	s.ambient = make(map[string]struct{})
	s.order = nil
	s.bootstrapped = false
	s.lastFailedModules = nil
	s.lastFailedImports = nil
	s.bootstrapLocked()
}

// truncate caps text to max runes, appending an ellipsis marker when cut.
// max <= 0 disables truncation.
func truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + "…"
}
