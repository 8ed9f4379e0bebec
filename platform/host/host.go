// Package host declares the contracts the engine consumes from its embedding
// application: the reference-module provider, the reload lock, and the value
// pretty-printer. Host logging is consumed as a plain slog.Handler.
package host

import "sync"

// ModuleProvider produces the list of candidate reference-module names
// available for compilation reference. Consumed once per bootstrap attempt.
type ModuleProvider interface {
	Modules() []string
}

// StaticModuleProvider is a ModuleProvider backed by a fixed name list.
type StaticModuleProvider struct {
	names []string
}

// NewStaticModuleProvider creates a provider that always returns the given
// module names.
func NewStaticModuleProvider(names ...string) *StaticModuleProvider {
	return &StaticModuleProvider{names: names}
}

func (p *StaticModuleProvider) Modules() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// ReloadLock is held for the duration of a full evaluate cycle, because the
// host's live-reload mechanism can invalidate in-flight compiled artifacts.
// Acquired before and released after, unconditionally.
type ReloadLock interface {
	Lock()
	Unlock()
}

// MutexReloadLock is a process-local ReloadLock for hosts without a reload
// mechanism of their own.
type MutexReloadLock struct {
	mu sync.Mutex
}

func (l *MutexReloadLock) Lock()   { l.mu.Lock() }
func (l *MutexReloadLock) Unlock() { l.mu.Unlock() }

// NopReloadLock is a ReloadLock that does nothing.
type NopReloadLock struct{}

func (NopReloadLock) Lock()   {}
func (NopReloadLock) Unlock() {}
