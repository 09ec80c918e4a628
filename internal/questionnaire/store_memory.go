package questionnaire

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"lumina/internal/sentinel"
)

type responseKey struct {
	linkID      uuid.UUID
	eventTypeID uuid.UUID
}

// InMemoryStore stores event types and responses in memory for tests.
type InMemoryStore struct {
	mu         sync.RWMutex
	eventTypes map[uuid.UUID]*EventType
	responses  map[responseKey]*Response
}

// NewMemory constructs an empty in-memory questionnaire store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		eventTypes: make(map[uuid.UUID]*EventType),
		responses:  make(map[responseKey]*Response),
	}
}

func (s *InMemoryStore) SaveEventType(_ context.Context, eventType *EventType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyET := *eventType
	copyET.Questions = append([]Question(nil), eventType.Questions...)
	s.eventTypes[eventType.ID] = &copyET
	return nil
}

func (s *InMemoryStore) FindEventType(_ context.Context, id uuid.UUID) (*EventType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eventType, ok := s.eventTypes[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyET := *eventType
	copyET.Questions = append([]Question(nil), eventType.Questions...)
	return &copyET, nil
}

func (s *InMemoryStore) ListEventTypes(_ context.Context, providerID uuid.UUID) ([]*EventType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*EventType
	for _, eventType := range s.eventTypes {
		if eventType.ProviderID == providerID {
			copyET := *eventType
			out = append(out, &copyET)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) DeleteEventType(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.eventTypes[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.eventTypes, id)
	return nil
}

func (s *InMemoryStore) SaveResponse(_ context.Context, response *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := responseKey{response.LinkID, response.EventTypeID}
	if _, ok := s.responses[key]; ok {
		return sentinel.ErrConflict
	}
	s.responses[key] = copyResponse(response)
	return nil
}

func (s *InMemoryStore) FindResponse(_ context.Context, linkID, eventTypeID uuid.UUID) (*Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	response, ok := s.responses[responseKey{linkID, eventTypeID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyResponse(response), nil
}

func (s *InMemoryStore) FindResponseByLink(_ context.Context, linkID uuid.UUID) (*Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, response := range s.responses {
		if key.linkID == linkID {
			return copyResponse(response), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) UpdateResponse(_ context.Context, response *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := responseKey{response.LinkID, response.EventTypeID}
	existing, ok := s.responses[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.IsValidated() {
		return sentinel.ErrImmutable
	}
	s.responses[key] = copyResponse(response)
	return nil
}

func copyResponse(r *Response) *Response {
	copyR := *r
	copyR.Answers = make(Answers, len(r.Answers))
	for k, v := range r.Answers {
		copyR.Answers[k] = v
	}
	return &copyR
}

var _ Store = (*InMemoryStore)(nil)
