package signature

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"lumina/internal/sentinel"
)

type key struct {
	contractID uuid.UUID
	role       Role
}

// InMemoryStore keeps signature records in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[key]*Record
}

// NewMemory constructs an empty in-memory signature store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[key]*Record)}
}

func (s *InMemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{contractID: rec.ContractID, role: rec.Role}
	if _, ok := s.records[k]; ok {
		return sentinel.ErrConflict
	}
	cp := *rec
	s.records[k] = &cp
	return nil
}

func (s *InMemoryStore) FindByContractRole(_ context.Context, contractID uuid.UUID, role Role) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key{contractID: contractID, role: role}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *InMemoryStore) ListByContract(_ context.Context, contractID uuid.UUID) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for k, rec := range s.records {
		if k.contractID == contractID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SignedAt.Before(out[j].SignedAt) })
	return out, nil
}

var _ Store = (*InMemoryStore)(nil)
