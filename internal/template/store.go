package template

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence interface for templates and custom variables.
type Store interface {
	SaveTemplate(ctx context.Context, tmpl *ContractTemplate) error
	FindTemplate(ctx context.Context, id uuid.UUID) (*ContractTemplate, error)
	// ListTemplates returns the provider's own templates plus system-owned
	// ones, ordered by priority descending.
	ListTemplates(ctx context.Context, providerID uuid.UUID) ([]*ContractTemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error

	SaveVariable(ctx context.Context, v *CustomVariable) error
	ListVariables(ctx context.Context, providerID uuid.UUID) ([]*CustomVariable, error)
	DeleteVariable(ctx context.Context, id uuid.UUID) error
}
