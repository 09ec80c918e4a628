package link

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lumina/internal/sentinel"
)

// InMemoryStore stores access links in memory for tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	links   map[uuid.UUID]*AccessLink
	byToken map[string]uuid.UUID
}

// NewMemory constructs an empty in-memory link store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		links:   make(map[uuid.UUID]*AccessLink),
		byToken: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, link *AccessLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byToken[link.Token]; ok && existing != link.ID {
		return sentinel.ErrConflict
	}
	copyLink := *link
	s.links[link.ID] = &copyLink
	s.byToken[link.Token] = link.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*AccessLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.links[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyLink := *link
	return &copyLink, nil
}

func (s *InMemoryStore) FindByToken(_ context.Context, token string) (*AccessLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byToken[token]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyLink := *s.links[id]
	return &copyLink, nil
}

func (s *InMemoryStore) ListByProvider(_ context.Context, providerID uuid.UUID) ([]*AccessLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*AccessLink
	for _, link := range s.links {
		if link.ProviderID == providerID {
			copyLink := *link
			out = append(out, &copyLink)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) TouchLastAccessed(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	link.LastAccessedAt = &at
	return nil
}

func (s *InMemoryStore) Revoke(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	link.Revoked = true
	return nil
}

func (s *InMemoryStore) RevokeAllForClient(_ context.Context, clientID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, link := range s.links {
		if link.ClientID == clientID && !link.Revoked {
			link.Revoked = true
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) UpdateExpiration(_ context.Context, id uuid.UUID, expiresAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	link.ExpiresAt = expiresAt
	return nil
}

var _ Store = (*InMemoryStore)(nil)
