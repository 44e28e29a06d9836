package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/datableed/decision-engine/pkg/progress"
)

// MockStore is an in-memory ProgressStore for tests, with failure injection.
type MockStore struct {
	mu        sync.RWMutex
	documents map[string]*progress.SessionProgress
	saveCount int
	pingErr   error
	saveErr   error
}

var _ ProgressStore = (*MockStore)(nil)

// NewMockStore creates an empty mock progress store.
func NewMockStore() *MockStore {
	return &MockStore{
		documents: make(map[string]*progress.SessionProgress),
	}
}

// SetPingError configures the mock to fail pings.
func (m *MockStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

// SetSaveError configures the mock to fail saves.
func (m *MockStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// SaveCount returns how many saves have been attempted.
func (m *MockStore) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCount
}

func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingErr
}

func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) SaveProgress(ctx context.Context, character string, p *progress.SessionProgress) error {
	if p == nil {
		return errors.New("progress cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCount++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.documents[character] = p.Clone()
	return nil
}

func (m *MockStore) LoadProgress(ctx context.Context, character string) (*progress.SessionProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.documents[character]
	if !ok {
		return nil, nil
	}
	c := p.Clone()
	c.Normalize()
	return c, nil
}

func (m *MockStore) LoadAllProgress(ctx context.Context) (map[string]*progress.SessionProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make(map[string]*progress.SessionProgress, len(m.documents))
	for name, p := range m.documents {
		all[name] = p.Clone()
	}
	return all, nil
}

func (m *MockStore) DeleteProgress(ctx context.Context, character string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, character)
	return nil
}
