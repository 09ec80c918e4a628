package template

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"lumina/internal/sentinel"
	dErrors "lumina/pkg/domain-errors"
)

// Service manages template and custom-variable CRUD and selects the template
// a contract generation run should use.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService constructs the template service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// CreateTemplate persists a provider-owned template.
func (s *Service) CreateTemplate(ctx context.Context, providerID uuid.UUID, eventTypeID *uuid.UUID, name, body string, priority int) (*ContractTemplate, error) {
	tmpl := &ContractTemplate{
		ID:          uuid.New(),
		ProviderID:  &providerID,
		EventTypeID: eventTypeID,
		Name:        name,
		Body:        body,
		Priority:    priority,
		CreatedAt:   time.Now(),
	}
	if err := s.store.SaveTemplate(ctx, tmpl); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save template")
	}
	return tmpl, nil
}

// UpdateTemplate overwrites an owned template's body and metadata. System
// templates are immutable.
func (s *Service) UpdateTemplate(ctx context.Context, providerID, templateID uuid.UUID, eventTypeID *uuid.UUID, name, body string, priority int) (*ContractTemplate, error) {
	tmpl, err := s.ownedTemplate(ctx, providerID, templateID)
	if err != nil {
		return nil, err
	}
	tmpl.EventTypeID = eventTypeID
	tmpl.Name = name
	tmpl.Body = body
	tmpl.Priority = priority
	if err := s.store.SaveTemplate(ctx, tmpl); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update template")
	}
	return tmpl, nil
}

// GetTemplate returns a template readable by the provider (their own or a
// system one).
func (s *Service) GetTemplate(ctx context.Context, providerID, templateID uuid.UUID) (*ContractTemplate, error) {
	tmpl, err := s.store.FindTemplate(ctx, templateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "template not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load template")
	}
	if !tmpl.SystemOwned() && !tmpl.OwnedBy(providerID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "template belongs to another provider")
	}
	return tmpl, nil
}

// ListTemplates returns the provider's templates plus system-owned ones.
func (s *Service) ListTemplates(ctx context.Context, providerID uuid.UUID) ([]*ContractTemplate, error) {
	templates, err := s.store.ListTemplates(ctx, providerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list templates")
	}
	return templates, nil
}

// DeleteTemplate removes an owned template. System templates cannot be
// deleted.
func (s *Service) DeleteTemplate(ctx context.Context, providerID, templateID uuid.UUID) error {
	if _, err := s.ownedTemplate(ctx, providerID, templateID); err != nil {
		return err
	}
	if err := s.store.DeleteTemplate(ctx, templateID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete template")
	}
	return nil
}

func (s *Service) ownedTemplate(ctx context.Context, providerID, templateID uuid.UUID) (*ContractTemplate, error) {
	tmpl, err := s.store.FindTemplate(ctx, templateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "template not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load template")
	}
	if tmpl.SystemOwned() {
		return nil, dErrors.New(dErrors.CodeForbidden, "system templates are read-only")
	}
	if !tmpl.OwnedBy(providerID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "template belongs to another provider")
	}
	return tmpl, nil
}

// SetVariable creates or updates a custom variable for the provider.
func (s *Service) SetVariable(ctx context.Context, providerID uuid.UUID, key, defaultValue string) (*CustomVariable, error) {
	existing, err := s.store.ListVariables(ctx, providerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list variables")
	}
	v := &CustomVariable{ID: uuid.New(), ProviderID: providerID, Key: key, DefaultValue: defaultValue}
	for _, e := range existing {
		if e.Key == key {
			v.ID = e.ID
			break
		}
	}
	if err := s.store.SaveVariable(ctx, v); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "variable key already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save variable")
	}
	return v, nil
}

// ListVariables returns the provider's custom variables ordered by key.
func (s *Service) ListVariables(ctx context.Context, providerID uuid.UUID) ([]*CustomVariable, error) {
	variables, err := s.store.ListVariables(ctx, providerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list variables")
	}
	return variables, nil
}

// DeleteVariable removes a custom variable owned by the provider.
func (s *Service) DeleteVariable(ctx context.Context, providerID, variableID uuid.UUID) error {
	variables, err := s.store.ListVariables(ctx, providerID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list variables")
	}
	owned := false
	for _, v := range variables {
		if v.ID == variableID {
			owned = true
			break
		}
	}
	if !owned {
		return dErrors.New(dErrors.CodeNotFound, "variable not found")
	}
	if err := s.store.DeleteVariable(ctx, variableID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete variable")
	}
	return nil
}

// Resolve selects the template for a generation run. An explicit template id
// wins over the link's preselected one, which wins over the best default for
// the event type. Defaults are ranked by priority, then provider-owned over
// system-owned, then event-type-specific over generic.
func (s *Service) Resolve(ctx context.Context, providerID uuid.UUID, explicitID, linkTemplateID, eventTypeID *uuid.UUID) (*ContractTemplate, error) {
	if explicitID != nil {
		return s.GetTemplate(ctx, providerID, *explicitID)
	}
	if linkTemplateID != nil {
		return s.GetTemplate(ctx, providerID, *linkTemplateID)
	}

	templates, err := s.store.ListTemplates(ctx, providerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list templates")
	}
	var candidates []*ContractTemplate
	for _, tmpl := range templates {
		if tmpl.MatchesEventType(eventTypeID) {
			candidates = append(candidates, tmpl)
		}
	}
	if len(candidates) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no template matches the event type")
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.SystemOwned() != b.SystemOwned() {
			return !a.SystemOwned()
		}
		return a.EventTypeID != nil && b.EventTypeID == nil
	})
	return candidates[0], nil
}
