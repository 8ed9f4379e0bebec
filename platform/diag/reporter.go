package diag

import (
	"log/slog"
	"os"
)

// suppressedCodes are duplicate-registration diagnostics produced as a normal,
// noisy byproduct of re-registering overlapping reference modules during
// bootstrap or reload. They are filtered by exact code, unconditionally, so
// that repeated bootstraps do not flood the host console.
var suppressedCodes = map[string]struct{}{
	CodeDupModule: {},
	CodeDupImport: {},
}

// Reporter classifies diagnostics by severity and forwards them to host
// logging. The two duplicate-registration codes are never forwarded.
type Reporter struct {
	logHandler slog.Handler
	logger     *slog.Logger
}

// NewReporter creates a Reporter that forwards diagnostics to the provided
// slog handler. A nil handler falls back to a text handler on stderr.
func NewReporter(handler slog.Handler) *Reporter {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}

	return &Reporter{
		logHandler: handler,
		logger:     slog.New(handler.WithGroup("diag")),
	}
}

func (r *Reporter) String() string {
	return "diag.Reporter"
}

// Suppressed reports whether diagnostics with the given code are filtered.
func Suppressed(code string) bool {
	_, ok := suppressedCodes[code]
	return ok
}

// Report forwards a single diagnostic to host logging at matching severity.
// Suppressed codes are dropped without logging.
func (r *Reporter) Report(d Diagnostic) {
	if Suppressed(d.Code) {
		return
	}

	switch d.Severity {
	case SeverityError:
		r.logger.Error(d.Message, "code", d.Code)
	case SeverityWarning:
		r.logger.Warn(d.Message, "code", d.Code)
	default:
		r.logger.Info(d.Message, "code", d.Code)
	}
}

// ReportAll forwards each diagnostic in order.
func (r *Reporter) ReportAll(ds []Diagnostic) {
	for _, d := range ds {
		r.Report(d)
	}
}
