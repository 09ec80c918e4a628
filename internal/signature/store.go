package signature

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence interface for signature records. Save must reject
// a second record for the same (contract, role) with sentinel.ErrConflict;
// that uniqueness guarantee is what prevents double-signing under concurrent
// requests.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	FindByContractRole(ctx context.Context, contractID uuid.UUID, role Role) (*Record, error)
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]*Record, error)
}
