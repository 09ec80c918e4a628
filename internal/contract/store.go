package contract

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence interface for contracts. Status transitions are
// compare-and-swap so concurrent validation or signing cannot skip states.
type Store interface {
	// Save inserts or overwrites the contract row for its link.
	Save(ctx context.Context, c *GeneratedContract) error
	FindByID(ctx context.Context, id uuid.UUID) (*GeneratedContract, error)
	FindByLink(ctx context.Context, linkID uuid.UUID) (*GeneratedContract, error)
	// UpdateContent rewrites the body of a not-yet-signed contract. Returns
	// sentinel.ErrImmutable when the contract is already signed.
	UpdateContent(ctx context.Context, id uuid.UUID, content string, updatedAt time.Time) error
	// TransitionStatus flips status from one state to another. Returns
	// sentinel.ErrInvalidState when the current status does not match from.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	// SetRendered records the outcome of a successful render pass.
	SetRendered(ctx context.Context, id uuid.UUID, version int, filePath, fileHash string, renderedAt time.Time) error
}
