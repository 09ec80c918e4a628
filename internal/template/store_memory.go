package template

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"lumina/internal/sentinel"
)

// InMemoryStore keeps templates and variables in process memory. Used in
// tests and single-node deployments without a database.
type InMemoryStore struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]*ContractTemplate
	variables map[uuid.UUID]*CustomVariable
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		templates: make(map[uuid.UUID]*ContractTemplate),
		variables: make(map[uuid.UUID]*CustomVariable),
	}
}

func (s *InMemoryStore) SaveTemplate(_ context.Context, tmpl *ContractTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *tmpl
	s.templates[tmpl.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindTemplate(_ context.Context, id uuid.UUID) (*ContractTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tmpl, ok := s.templates[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *tmpl
	return &cp, nil
}

func (s *InMemoryStore) ListTemplates(_ context.Context, providerID uuid.UUID) ([]*ContractTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ContractTemplate
	for _, tmpl := range s.templates {
		if tmpl.SystemOwned() || tmpl.OwnedBy(providerID) {
			cp := *tmpl
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) DeleteTemplate(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.templates, id)
	return nil
}

func (s *InMemoryStore) SaveVariable(_ context.Context, v *CustomVariable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.variables {
		if existing.ProviderID == v.ProviderID && existing.Key == v.Key && id != v.ID {
			return sentinel.ErrConflict
		}
	}
	cp := *v
	s.variables[v.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListVariables(_ context.Context, providerID uuid.UUID) ([]*CustomVariable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*CustomVariable
	for _, v := range s.variables {
		if v.ProviderID == providerID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *InMemoryStore) DeleteVariable(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.variables[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.variables, id)
	return nil
}

var _ Store = (*InMemoryStore)(nil)
