package gallery

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"lumina/internal/sentinel"
)

// InMemoryStore keeps galleries and photos in process memory.
type InMemoryStore struct {
	mu        sync.RWMutex
	galleries map[uuid.UUID]*Gallery
	byLink    map[uuid.UUID]uuid.UUID
	photos    map[uuid.UUID]*Photo
}

// NewMemory constructs an empty in-memory gallery store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		galleries: make(map[uuid.UUID]*Gallery),
		byLink:    make(map[uuid.UUID]uuid.UUID),
		photos:    make(map[uuid.UUID]*Photo),
	}
}

func (s *InMemoryStore) SaveGallery(_ context.Context, g *Gallery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existingID, ok := s.byLink[g.LinkID]; ok && existingID != g.ID {
		return sentinel.ErrConflict
	}
	cp := *g
	s.galleries[g.ID] = &cp
	s.byLink[g.LinkID] = g.ID
	return nil
}

func (s *InMemoryStore) FindGallery(_ context.Context, id uuid.UUID) (*Gallery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.galleries[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *InMemoryStore) FindGalleryByLink(_ context.Context, linkID uuid.UUID) (*Gallery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byLink[linkID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.galleries[id]
	return &cp, nil
}

func (s *InMemoryStore) SetVisibility(_ context.Context, id uuid.UUID, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.galleries[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	g.Visible = visible
	return nil
}

func (s *InMemoryStore) SavePhoto(_ context.Context, p *Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.photos[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindPhoto(_ context.Context, id uuid.UUID) (*Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.photos[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemoryStore) ListPhotos(_ context.Context, galleryID uuid.UUID) ([]*Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Photo
	for _, p := range s.photos {
		if p.GalleryID == galleryID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

func (s *InMemoryStore) DeletePhoto(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.photos, id)
	return nil
}

var _ Store = (*InMemoryStore)(nil)
