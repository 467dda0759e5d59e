// Package repo provides registry stores and the outcome audit sink
package repo

import (
	"context"
	"sync"

	"shelfscan/internal/services/scan/domain"
)

// Memory keeps the snapshot in process, used when no backend is configured and in tests
type Memory struct {
	mu   sync.Mutex
	snap domain.RegistrySnapshot
	n    int
}

// NewMemory returns a store seeded with snap
func NewMemory(snap domain.RegistrySnapshot) *Memory {
	return &Memory{snap: clone(snap)}
}

// Load implements domain.RegistryStore
func (m *Memory) Load(context.Context) (domain.RegistrySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.snap), nil
}

// Save implements domain.RegistryStore
func (m *Memory) Save(_ context.Context, snap domain.RegistrySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = clone(snap)
	m.n++
	return nil
}

// Saves returns how many times Save was called
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}

func clone(s domain.RegistrySnapshot) domain.RegistrySnapshot {
	return domain.RegistrySnapshot{
		Confirmed: append([]string(nil), s.Confirmed...),
		Invalid:   append([]string(nil), s.Invalid...),
	}
}
