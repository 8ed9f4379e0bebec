package replkit

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/robbyt/go-replkit/platform/host"
)

// defaultImports are applied, in order, during every bootstrap pass. Each
// promotes the members of a registered reference module to unqualified
// visibility.
var defaultImports = []string{"math"}

// defaultModules are the reference modules offered when the host supplies no
// provider of its own.
var defaultModules = []string{"json", "math", "time"}

// defaultMaxSnapshotValueLen caps binding-snapshot value text, in runes.
const defaultMaxSnapshotValueLen = 128

type config struct {
	handler     slog.Handler
	logger      *slog.Logger
	provider    host.ModuleProvider
	reloadLock  host.ReloadLock
	printer     host.ValuePrinter
	imports     []string
	maxValueLen int

	// maxValueLenSet distinguishes an explicit 0 (unlimited) from unset.
	maxValueLenSet bool
}

// Option configures a Shell during construction.
type Option func(*config) error

// WithLogHandler sets the slog handler every component logs through. This is
// the preferred logging option; host log severities map directly onto slog
// levels.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *config) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		c.handler = handler
		c.logger = nil
		return nil
	}
}

// WithLogger sets a specific logger instead of a handler, for hosts that
// already manage their own logger grouping.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		c.handler = nil
		return nil
	}
}

// WithModuleProvider sets the host collaborator that enumerates candidate
// reference modules for bootstrap.
func WithModuleProvider(provider host.ModuleProvider) Option {
	return func(c *config) error {
		if provider == nil {
			return fmt.Errorf("module provider cannot be nil")
		}
		c.provider = provider
		return nil
	}
}

// WithReloadLock sets the host's reload lock, held for the duration of every
// evaluate cycle.
func WithReloadLock(lock host.ReloadLock) Option {
	return func(c *config) error {
		if lock == nil {
			return fmt.Errorf("reload lock cannot be nil")
		}
		c.reloadLock = lock
		return nil
	}
}

// WithPrinter sets the pretty-printer used for result values and binding
// snapshots.
func WithPrinter(printer host.ValuePrinter) Option {
	return func(c *config) error {
		if printer == nil {
			return fmt.Errorf("printer cannot be nil")
		}
		c.printer = printer
		return nil
	}
}

// WithImports replaces the default import set applied at bootstrap.
func WithImports(imports ...string) Option {
	return func(c *config) error {
		c.imports = imports
		return nil
	}
}

// WithMaxSnapshotValueLen caps snapshot value text at n runes; 0 disables
// truncation.
func WithMaxSnapshotValueLen(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return fmt.Errorf("max snapshot value length cannot be negative")
		}
		c.maxValueLen = n
		c.maxValueLenSet = true
		return nil
	}
}

// applyDefaults fills in every collaborator the host did not supply.
func (c *config) applyDefaults() {
	if c.handler == nil && c.logger == nil {
		c.handler = slog.NewTextHandler(os.Stderr, nil)
	}
	if c.handler == nil && c.logger != nil {
		c.handler = c.logger.Handler()
	}
	if c.provider == nil {
		c.provider = host.NewStaticModuleProvider(defaultModules...)
	}
	if c.reloadLock == nil {
		c.reloadLock = &host.MutexReloadLock{}
	}
	if c.imports == nil {
		c.imports = defaultImports
	}
	if !c.maxValueLenSet {
		c.maxValueLen = defaultMaxSnapshotValueLen
	}
}
