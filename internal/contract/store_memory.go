package contract

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"lumina/internal/sentinel"
)

// InMemoryStore keeps contracts in process memory.
type InMemoryStore struct {
	mu        sync.RWMutex
	contracts map[uuid.UUID]*GeneratedContract
	byLink    map[uuid.UUID]uuid.UUID
}

// NewMemory constructs an empty in-memory contract store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		contracts: make(map[uuid.UUID]*GeneratedContract),
		byLink:    make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, c *GeneratedContract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existingID, ok := s.byLink[c.LinkID]; ok && existingID != c.ID {
		return sentinel.ErrConflict
	}
	cp := *c
	s.contracts[c.ID] = &cp
	s.byLink[c.LinkID] = c.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*GeneratedContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contracts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) FindByLink(_ context.Context, linkID uuid.UUID) (*GeneratedContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byLink[linkID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.contracts[id]
	return &cp, nil
}

func (s *InMemoryStore) UpdateContent(_ context.Context, id uuid.UUID, content string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Status == StatusSigned {
		return sentinel.ErrImmutable
	}
	c.Content = content
	c.UpdatedAt = updatedAt
	return nil
}

func (s *InMemoryStore) TransitionStatus(_ context.Context, id uuid.UUID, from, to Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Status != from {
		return sentinel.ErrInvalidState
	}
	c.Status = to
	c.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) SetRendered(_ context.Context, id uuid.UUID, version int, filePath, fileHash string, renderedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.Version = version
	c.FilePath = filePath
	c.FileHash = fileHash
	c.UpdatedAt = renderedAt
	return nil
}

var _ Store = (*InMemoryStore)(nil)
