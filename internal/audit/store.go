package audit

import (
	"context"

	"github.com/google/uuid"
)

// Store persists audit entries.
// Error contract: Append returns nil on success or a wrapped error; it never
// swallows a write failure. ExportForLink returns entries ordered by creation
// time ascending.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	ExportForLink(ctx context.Context, linkID uuid.UUID) ([]*Entry, error)
}
