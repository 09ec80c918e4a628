package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore stores audit entries in memory for tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	entries []*Entry
}

// NewMemory constructs an empty in-memory audit store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyEntry := *entry
	copyEntry.ID = s.nextID
	if copyEntry.CreatedAt.IsZero() {
		copyEntry.CreatedAt = time.Now()
	}
	s.nextID++
	s.entries = append(s.entries, &copyEntry)
	entry.ID = copyEntry.ID
	entry.CreatedAt = copyEntry.CreatedAt
	return nil
}

func (s *InMemoryStore) ExportForLink(_ context.Context, linkID uuid.UUID) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Entry
	// entries is append-only, so insertion order is creation-time order.
	for _, entry := range s.entries {
		if entry.LinkID != nil && *entry.LinkID == linkID {
			copyEntry := *entry
			out = append(out, &copyEntry)
		}
	}
	return out, nil
}

// All returns every entry. Test helper.
func (s *InMemoryStore) All() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		copyEntry := *entry
		out = append(out, &copyEntry)
	}
	return out
}

var _ Store = (*InMemoryStore)(nil)
