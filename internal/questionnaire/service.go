package questionnaire

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lumina/internal/audit"
	"lumina/internal/link"
	"lumina/internal/notify"
	"lumina/internal/platform/metrics"
	"lumina/internal/sentinel"
	dErrors "lumina/pkg/domain-errors"
)

// Service manages event types and questionnaire responses.
type Service struct {
	store    Store
	auditor  *audit.Recorder
	notifier notify.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithNotifier sets the outbound notification sender.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// NewService constructs the questionnaire service.
func NewService(store Store, auditor *audit.Recorder, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:    store,
		auditor:  auditor,
		notifier: notify.NewLogNotifier(logger),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateEventType persists a new event type owned by the provider.
func (s *Service) CreateEventType(ctx context.Context, providerID uuid.UUID, name string, questions []Question) (*EventType, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "event type name is required")
	}
	for _, q := range questions {
		if q.Key == "" || q.Label == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "question key and label are required")
		}
	}

	eventType := &EventType{
		ID:         uuid.New(),
		ProviderID: providerID,
		Name:       name,
		Questions:  questions,
		CreatedAt:  time.Now(),
	}
	if err := s.store.SaveEventType(ctx, eventType); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save event type")
	}
	return eventType, nil
}

// UpdateEventType replaces the name and questions of an event type.
func (s *Service) UpdateEventType(ctx context.Context, providerID, eventTypeID uuid.UUID, name string, questions []Question) (*EventType, error) {
	eventType, err := s.GetEventType(ctx, providerID, eventTypeID)
	if err != nil {
		return nil, err
	}
	if name != "" {
		eventType.Name = name
	}
	if questions != nil {
		eventType.Questions = questions
	}
	if err := s.store.SaveEventType(ctx, eventType); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update event type")
	}
	return eventType, nil
}

// GetEventType loads an event type, enforcing provider ownership.
func (s *Service) GetEventType(ctx context.Context, providerID, eventTypeID uuid.UUID) (*EventType, error) {
	eventType, err := s.store.FindEventType(ctx, eventTypeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event type not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event type")
	}
	if eventType.ProviderID != providerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "event type belongs to another provider")
	}
	return eventType, nil
}

// ListEventTypes returns all event types of a provider.
func (s *Service) ListEventTypes(ctx context.Context, providerID uuid.UUID) ([]*EventType, error) {
	out, err := s.store.ListEventTypes(ctx, providerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list event types")
	}
	return out, nil
}

// DeleteEventType removes an event type.
func (s *Service) DeleteEventType(ctx context.Context, providerID, eventTypeID uuid.UUID) error {
	if _, err := s.GetEventType(ctx, providerID, eventTypeID); err != nil {
		return err
	}
	if err := s.store.DeleteEventType(ctx, eventTypeID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete event type")
	}
	return nil
}

// GetForPortal returns the event type questions for form rendering through a
// validated link. No ownership check: the link gate already scoped access.
func (s *Service) GetForPortal(ctx context.Context, eventTypeID uuid.UUID) (*EventType, error) {
	eventType, err := s.store.FindEventType(ctx, eventTypeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event type not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event type")
	}
	return eventType, nil
}

// GetResponse returns the response for (link, event type), or nil when none
// has been started yet.
func (s *Service) GetResponse(ctx context.Context, linkID, eventTypeID uuid.UUID) (*Response, error) {
	response, err := s.store.FindResponse(ctx, linkID, eventTypeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load response")
	}
	return response, nil
}

// GetResponseByLink returns the first response attached to a link, or nil.
// Workflow state derivation uses this snapshot.
func (s *Service) GetResponseByLink(ctx context.Context, linkID uuid.UUID) (*Response, error) {
	response, err := s.store.FindResponseByLink(ctx, linkID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load response")
	}
	return response, nil
}

// SaveDraft creates or overwrites the draft answers for (link, event type).
// A validated response is immutable and refuses further saves.
func (s *Service) SaveDraft(ctx context.Context, accessLink *link.AccessLink, eventTypeID uuid.UUID, answers Answers) (*Response, error) {
	if _, err := s.GetForPortal(ctx, eventTypeID); err != nil {
		return nil, err
	}

	now := time.Now()
	existing, err := s.GetResponse(ctx, accessLink.ID, eventTypeID)
	if err != nil {
		return nil, err
	}

	var response *Response
	if existing == nil {
		response = &Response{
			ID:          uuid.New(),
			LinkID:      accessLink.ID,
			EventTypeID: eventTypeID,
			Answers:     answers,
			Status:      StatusDraft,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.SaveResponse(ctx, response); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save response")
		}
	} else {
		if existing.IsValidated() {
			return nil, dErrors.New(dErrors.CodeStateConflict, "questionnaire already validated")
		}
		existing.Answers = answers
		existing.UpdatedAt = now
		if err := s.store.UpdateResponse(ctx, existing); err != nil {
			if errors.Is(err, sentinel.ErrImmutable) {
				return nil, dErrors.New(dErrors.CodeStateConflict, "questionnaire already validated")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update response")
		}
		response = existing
	}

	err = s.auditor.Record(ctx, &accessLink.ID,
		audit.Actor{Kind: audit.ActorClient, ID: accessLink.ClientID.String()},
		audit.ActionQuestionnaireSaved,
		audit.EntityRef{Kind: "questionnaire_response", ID: response.ID.String()},
		nil,
	)
	if err != nil {
		return nil, err
	}
	return response, nil
}

// Validate freezes the response after checking every required question has a
// non-empty answer. Answers may be submitted together with the validation
// call; they overwrite the draft first.
func (s *Service) Validate(ctx context.Context, accessLink *link.AccessLink, eventTypeID uuid.UUID, answers Answers) (*Response, error) {
	eventType, err := s.GetForPortal(ctx, eventTypeID)
	if err != nil {
		return nil, err
	}

	response, err := s.GetResponse(ctx, accessLink.ID, eventTypeID)
	if err != nil {
		return nil, err
	}
	if response != nil && response.IsValidated() {
		return nil, dErrors.New(dErrors.CodeStateConflict, "questionnaire already validated")
	}

	if answers != nil {
		response, err = s.SaveDraft(ctx, accessLink, eventTypeID, answers)
		if err != nil {
			return nil, err
		}
	}
	if response == nil {
		return nil, dErrors.New(dErrors.CodePreconditionFailed, "no questionnaire answers to validate")
	}

	if err := response.CheckComplete(eventType.Questions); err != nil {
		return nil, err
	}

	response.Status = StatusValidated
	response.UpdatedAt = time.Now()
	if err := s.store.UpdateResponse(ctx, response); err != nil {
		if errors.Is(err, sentinel.ErrImmutable) {
			return nil, dErrors.New(dErrors.CodeStateConflict, "questionnaire already validated")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate response")
	}

	err = s.auditor.Record(ctx, &accessLink.ID,
		audit.Actor{Kind: audit.ActorClient, ID: accessLink.ClientID.String()},
		audit.ActionQuestionnaireValidated,
		audit.EntityRef{Kind: "questionnaire_response", ID: response.ID.String()},
		nil,
	)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.QuestionnairesValidated.Inc()
	}
	if err := s.notifier.Notify(ctx, notify.Event{
		Kind:       notify.KindQuestionnaireValidated,
		ProviderID: accessLink.ProviderID.String(),
		LinkID:     accessLink.ID.String(),
	}); err != nil {
		s.logger.WarnContext(ctx, "notification delivery failed",
			"kind", notify.KindQuestionnaireValidated,
			"error", err,
		)
	}
	return response, nil
}
