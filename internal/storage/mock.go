package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tbranagh/storyloom/pkg/session"
	"github.com/tbranagh/storyloom/pkg/sheet"
	"github.com/tbranagh/storyloom/pkg/world"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*session.Record
	worlds    map[string]*world.Document
	sheets    map[string]*sheet.Sheet
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID]*session.Record),
		worlds:   make(map[string]*world.Document),
		sheets:   make(map[string]*sheet.Sheet),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// AddWorld registers a world document under a filename
func (m *MockStorage) AddWorld(filename string, doc *world.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.worlds[filename] = doc
}

// AddSheet registers a character sheet under a name
func (m *MockStorage) AddSheet(name string, s *sheet.Sheet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[name] = s
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveSession(ctx context.Context, id uuid.UUID, rec *session.Record) error {
	if rec == nil {
		return errors.New("session record cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = rec
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*session.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id], nil
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockStorage) ListWorlds(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	worlds := make(map[string]string, len(m.worlds))
	for filename, doc := range m.worlds {
		worlds[doc.Metadata.Title] = filename
	}
	return worlds, nil
}

func (m *MockStorage) GetWorld(ctx context.Context, filename string) (*world.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.worlds[filename]
	if !ok {
		return nil, fmt.Errorf("world not found: %s", filename)
	}
	return doc, nil
}

func (m *MockStorage) GetSheet(ctx context.Context, name string) (*sheet.Sheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sheets[name]
	if !ok {
		return nil, fmt.Errorf("sheet not found: %s", name)
	}
	return s, nil
}
