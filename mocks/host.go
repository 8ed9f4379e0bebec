// Package mocks provides testify mock implementations of the host
// collaborator interfaces, for testing engine behavior against a scripted
// host.
package mocks

import (
	"github.com/stretchr/testify/mock"
)

// ModuleProvider is a mock implementation of host.ModuleProvider.
type ModuleProvider struct {
	mock.Mock
}

// Modules is a mock implementation of the Modules method.
func (m *ModuleProvider) Modules() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

// ReloadLock is a mock implementation of host.ReloadLock.
type ReloadLock struct {
	mock.Mock
}

// Lock is a mock implementation of the Lock method.
func (m *ReloadLock) Lock() {
	m.Called()
}

// Unlock is a mock implementation of the Unlock method.
func (m *ReloadLock) Unlock() {
	m.Called()
}

// ValuePrinter is a mock implementation of host.ValuePrinter.
type ValuePrinter struct {
	mock.Mock
}

// Format is a mock implementation of the Format method.
func (m *ValuePrinter) Format(value any, verbose bool) (string, error) {
	args := m.Called(value, verbose)
	return args.String(0), args.Error(1)
}
