package diag

import "fmt"

// Severity classifies how a diagnostic is forwarded to host logging.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic codes emitted by the engine. The reporter filters by exact code,
// so these values are part of the engine's contract with the host.
const (
	// CodeParse is reported when a fragment fails to parse.
	CodeParse = "parse-error"

	// CodeResolve is reported when a fragment references undefined names or
	// otherwise fails static resolution.
	CodeResolve = "resolve-error"

	// CodeRuntime is reported when user code fails during execution.
	CodeRuntime = "runtime-error"

	// CodeFormat is reported when the pretty-printer fails on a produced value.
	CodeFormat = "format-error"

	// CodeModuleLoad aggregates reference modules that failed to register
	// during bootstrap.
	CodeModuleLoad = "module-load"

	// CodeImportLoad aggregates default imports that failed to apply during
	// bootstrap.
	CodeImportLoad = "import-load"

	// CodeDupModule marks re-registration of an already-known reference
	// module. Always suppressed; see Reporter.
	CodeDupModule = "dup-module"

	// CodeDupImport marks re-application of an already-visible import member.
	// Always suppressed; see Reporter.
	CodeDupImport = "dup-import"

	// CodeInternal marks an unexpected engine defect surfaced as a non-fatal
	// failure.
	CodeInternal = "internal-fault"
)

// Diagnostic is a single classified message produced during compilation,
// execution, or bootstrap. Diagnostics are ephemeral; they are reported and
// discarded, never stored by the engine.
type Diagnostic struct {
	Code     string
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Code, d.Severity, d.Message)
}

// Errorf creates an error-severity diagnostic with a formatted message.
func Errorf(code string, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
}

// Warningf creates a warning-severity diagnostic with a formatted message.
func Warningf(code string, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

// Infof creates an info-severity diagnostic with a formatted message.
func Infof(code string, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityInfo, Message: fmt.Sprintf(format, args...)}
}
