// Package notes stores the free-form notes added through the add-note tool.
package notes

import (
	"sync"

	"github.com/pario-ai/vndb-mcp/pkg/models"
)

// Store keeps notes keyed by name. Adding a note under an existing name
// replaces its content and keeps its position. List returns notes in the
// order they were first added.
type Store interface {
	Put(name, content string) error
	Get(name string) (string, bool, error)
	List() ([]models.Note, error)
	Clear() (int, error)
	Close() error
}

// Open returns a SQLite store for a non-empty path and an in-memory store
// otherwise.
func Open(dbPath string) (Store, error) {
	if dbPath == "" {
		return NewMemory(), nil
	}
	return NewSQLite(dbPath)
}

// Memory is a process-local Store.
type Memory struct {
	mu      sync.Mutex
	order   []string
	content map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{content: make(map[string]string)}
}

// Put adds or replaces a note.
func (m *Memory) Put(name, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.content[name]; !ok {
		m.order = append(m.order, name)
	}
	m.content[name] = content
	return nil
}

// Get returns the content of a note.
func (m *Memory) Get(name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.content[name]
	return c, ok, nil
}

// List returns all notes in insertion order.
func (m *Memory) List() ([]models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Note, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, models.Note{Name: name, Content: m.content[name]})
	}
	return out, nil
}

// Clear removes every note and returns how many were removed.
func (m *Memory) Clear() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.order)
	m.order = nil
	m.content = make(map[string]string)
	return n, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
