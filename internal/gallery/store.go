package gallery

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence interface for galleries and photos.
type Store interface {
	SaveGallery(ctx context.Context, g *Gallery) error
	FindGallery(ctx context.Context, id uuid.UUID) (*Gallery, error)
	FindGalleryByLink(ctx context.Context, linkID uuid.UUID) (*Gallery, error)
	SetVisibility(ctx context.Context, id uuid.UUID, visible bool) error

	SavePhoto(ctx context.Context, p *Photo) error
	FindPhoto(ctx context.Context, id uuid.UUID) (*Photo, error)
	ListPhotos(ctx context.Context, galleryID uuid.UUID) ([]*Photo, error)
	DeletePhoto(ctx context.Context, id uuid.UUID) error
}
