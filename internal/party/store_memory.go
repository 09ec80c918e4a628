package party

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"lumina/internal/sentinel"
)

// InMemoryStore stores providers and clients in memory for tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	providers map[uuid.UUID]*Provider
	clients   map[uuid.UUID]*Client
}

// NewMemory constructs an empty in-memory party store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		providers: make(map[uuid.UUID]*Provider),
		clients:   make(map[uuid.UUID]*Client),
	}
}

func (s *InMemoryStore) SaveProvider(_ context.Context, provider *Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyProvider := *provider
	s.providers[provider.ID] = &copyProvider
	return nil
}

func (s *InMemoryStore) FindProvider(_ context.Context, id uuid.UUID) (*Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	provider, ok := s.providers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyProvider := *provider
	return &copyProvider, nil
}

func (s *InMemoryStore) SaveClient(_ context.Context, client *Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyClient := *client
	s.clients[client.ID] = &copyClient
	return nil
}

func (s *InMemoryStore) FindClient(_ context.Context, id uuid.UUID) (*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyClient := *client
	return &copyClient, nil
}
