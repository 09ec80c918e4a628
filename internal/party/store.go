package party

import (
	"context"

	"github.com/google/uuid"
)

// Store provides row access to providers and clients.
// Error contract: Find* return sentinel.ErrNotFound when no row exists.
type Store interface {
	SaveProvider(ctx context.Context, provider *Provider) error
	FindProvider(ctx context.Context, id uuid.UUID) (*Provider, error)
	SaveClient(ctx context.Context, client *Client) error
	FindClient(ctx context.Context, id uuid.UUID) (*Client, error)
}
