// Package gallery manages the optional photo gallery attached to an access
// link. Galleries stay invisible to the external party until the provider
// publishes them.
package gallery

import (
	"time"

	"github.com/google/uuid"
)

// Gallery is the per-link photo collection.
type Gallery struct {
	ID        uuid.UUID
	LinkID    uuid.UUID
	Title     string
	Visible   bool
	CreatedAt time.Time
}

// Photo is one uploaded image. FilePath is relative to the storage root.
type Photo struct {
	ID          uuid.UUID
	GalleryID   uuid.UUID
	FileName    string
	ContentType string
	FilePath    string
	UploadedAt  time.Time
}
