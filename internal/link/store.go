package link

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists access links.
// Error contract: FindBy* return sentinel.ErrNotFound when no row exists;
// Save returns sentinel.ErrConflict on token collision.
type Store interface {
	Save(ctx context.Context, link *AccessLink) error
	FindByID(ctx context.Context, id uuid.UUID) (*AccessLink, error)
	FindByToken(ctx context.Context, token string) (*AccessLink, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*AccessLink, error)
	// TouchLastAccessed records a successful validation. Best-effort ordering:
	// concurrent touches may interleave, the newest timestamp wins.
	TouchLastAccessed(ctx context.Context, id uuid.UUID, at time.Time) error
	// Revoke marks a single link revoked. Irreversible.
	Revoke(ctx context.Context, id uuid.UUID) error
	// RevokeAllForClient revokes every link of a client, returning the count.
	RevokeAllForClient(ctx context.Context, clientID uuid.UUID) (int, error)
	// UpdateExpiration overwrites the expiry timestamp (nil clears it).
	UpdateExpiration(ctx context.Context, id uuid.UUID, expiresAt *time.Time) error
}
