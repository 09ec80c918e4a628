package questionnaire

import (
	"context"

	"github.com/google/uuid"
)

// Store persists event types and questionnaire responses.
// Error contract: Find* return sentinel.ErrNotFound when no row exists;
// UpdateResponse returns sentinel.ErrImmutable when the persisted response is
// already validated (the store is the serialization point for immutability).
type Store interface {
	SaveEventType(ctx context.Context, eventType *EventType) error
	FindEventType(ctx context.Context, id uuid.UUID) (*EventType, error)
	ListEventTypes(ctx context.Context, providerID uuid.UUID) ([]*EventType, error)
	DeleteEventType(ctx context.Context, id uuid.UUID) error

	SaveResponse(ctx context.Context, response *Response) error
	FindResponse(ctx context.Context, linkID, eventTypeID uuid.UUID) (*Response, error)
	FindResponseByLink(ctx context.Context, linkID uuid.UUID) (*Response, error)
	UpdateResponse(ctx context.Context, response *Response) error
}
