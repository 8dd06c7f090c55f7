// internal/store/memory.go
//
// In-memory registry of live terminals, one per browser session.
//
// Characteristics:
//   - Stores *session.Terminal values keyed by terminal ID.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts, which is the point: a terminal
//     never outlives its server.
//   - Prune drops terminals idle since a cutoff so abandoned tabs do not pile up.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/neuroterm/internal/session"
)

// ErrNotFound is returned by Get for unknown IDs.
var ErrNotFound = errors.New("terminal not found")

// Store defines the registry interface for terminals.
type Store interface {
	// Save adds or replaces a terminal.
	Save(ctx context.Context, t *session.Terminal) error

	// Get retrieves a terminal by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*session.Terminal, error)

	// Delete removes a terminal. Unknown IDs are not an error.
	Delete(ctx context.Context, id string) error

	// Prune removes terminals whose last activity is before cutoff and
	// returns how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

type memory struct {
	mu        sync.RWMutex
	terminals map[string]*session.Terminal
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{terminals: make(map[string]*session.Terminal)}
}

func (m *memory) Save(ctx context.Context, t *session.Terminal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminals[t.ID()] = t
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*session.Terminal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.terminals[id]; ok {
		return t, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	t, ok := m.terminals[id]
	delete(m.terminals, id)
	m.mu.Unlock()
	if ok {
		t.Close()
	}
	return nil
}

func (m *memory) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	var stale []*session.Terminal

	m.mu.Lock()
	for id, t := range m.terminals {
		if t.LastActive().Before(cutoff) {
			stale = append(stale, t)
			delete(m.terminals, id)
		}
	}
	m.mu.Unlock()

	// Close outside the lock: it waits for in-flight riddle requests.
	for _, t := range stale {
		t.Close()
	}
	return len(stale), nil
}
