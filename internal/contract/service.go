package contract

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"lumina/internal/audit"
	"lumina/internal/link"
	"lumina/internal/party"
	"lumina/internal/platform/metrics"
	"lumina/internal/questionnaire"
	"lumina/internal/sentinel"
	"lumina/internal/template"
	dErrors "lumina/pkg/domain-errors"
)

// RenderScheduler hands a contract off to the background render pool. The
// renderer package provides the implementation.
type RenderScheduler interface {
	Schedule(ctx context.Context, contractID uuid.UUID) (uuid.UUID, error)
}

// Service orchestrates contract generation and lifecycle transitions.
type Service struct {
	store          Store
	templates      *template.Service
	questionnaires questionnaire.Store
	parties        party.Store
	auditor        *audit.Recorder
	scheduler      RenderScheduler
	logger         *slog.Logger
	metrics        *metrics.Metrics
	clock          func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithScheduler sets the background render scheduler. Without one, Validate
// still transitions the contract but no render is queued.
func WithScheduler(scheduler RenderScheduler) Option {
	return func(s *Service) {
		s.scheduler = scheduler
	}
}

// NewService constructs the contract service.
func NewService(store Store, templates *template.Service, questionnaires questionnaire.Store, parties party.Store, auditor *audit.Recorder, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:          store,
		templates:      templates,
		questionnaires: questionnaires,
		parties:        parties,
		auditor:        auditor,
		logger:         logger,
		clock:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Generate produces the contract content for a link. It requires a validated
// questionnaire response. Regenerating while the contract is still a draft
// overwrites the previous content; once the contract has moved past draft the
// call fails.
func (s *Service) Generate(ctx context.Context, accessLink *link.AccessLink, explicitTemplateID *uuid.UUID) (*GeneratedContract, error) {
	response, err := s.validatedResponse(ctx, accessLink)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindByLink(ctx, accessLink.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contract")
	}
	if existing != nil && existing.Status != StatusDraft {
		return nil, dErrors.New(dErrors.CodeStateConflict, "contract has left draft state")
	}

	tmpl, err := s.templates.Resolve(ctx, accessLink.ProviderID, explicitTemplateID, accessLink.TemplateID, &response.EventTypeID)
	if err != nil {
		return nil, err
	}

	content, err := s.buildContent(ctx, accessLink, response, tmpl)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	generated := &GeneratedContract{
		ID:          uuid.New(),
		LinkID:      accessLink.ID,
		TemplateID:  &tmpl.ID,
		Content:     content,
		Status:      StatusDraft,
		GeneratedAt: now,
		UpdatedAt:   now,
	}
	action := audit.ActionContractGenerated
	if existing != nil {
		// Keep the row identity so rendered versions stay attached.
		generated.ID = existing.ID
		generated.Version = existing.Version
		generated.FilePath = existing.FilePath
		generated.FileHash = existing.FileHash
		action = audit.ActionContractUpdated
	}
	if err := s.store.Save(ctx, generated); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save contract")
	}

	err = s.auditor.Record(ctx, &accessLink.ID,
		audit.Actor{Kind: audit.ActorProvider, ID: accessLink.ProviderID.String()},
		action,
		audit.EntityRef{Kind: "contract", ID: generated.ID.String()},
		map[string]string{"template_id": tmpl.ID.String()},
	)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ContractsGenerated.Inc()
	}
	return generated, nil
}

func (s *Service) validatedResponse(ctx context.Context, accessLink *link.AccessLink) (*questionnaire.Response, error) {
	response, err := s.questionnaires.FindResponseByLink(ctx, accessLink.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodePreconditionFailed, "questionnaire has not been validated")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load response")
	}
	if !response.IsValidated() {
		return nil, dErrors.New(dErrors.CodePreconditionFailed, "questionnaire has not been validated")
	}
	return response, nil
}

func (s *Service) buildContent(ctx context.Context, accessLink *link.AccessLink, response *questionnaire.Response, tmpl *template.ContractTemplate) (string, error) {
	provider, err := s.parties.FindProvider(ctx, accessLink.ProviderID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load provider")
	}
	client, err := s.parties.FindClient(ctx, accessLink.ClientID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	eventType, err := s.questionnaires.FindEventType(ctx, response.EventTypeID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event type")
	}
	variables, err := s.templates.ListVariables(ctx, accessLink.ProviderID)
	if err != nil {
		return "", err
	}

	fixed := NewFixedFields(provider, client, eventType.Name, s.clock())
	return GenerateContent(tmpl.Body, fixed, eventType.Questions, response.Answers, variables), nil
}

// Get returns a contract after checking provider ownership of its link.
func (s *Service) Get(ctx context.Context, accessLink *link.AccessLink) (*GeneratedContract, error) {
	c, err := s.store.FindByLink(ctx, accessLink.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no contract for this link")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contract")
	}
	return c, nil
}

// GetByID returns a contract by its id.
func (s *Service) GetByID(ctx context.Context, contractID uuid.UUID) (*GeneratedContract, error) {
	c, err := s.store.FindByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contract not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contract")
	}
	return c, nil
}

// UpdateContent replaces the contract body with manually edited text. Only
// drafts can be edited: validation freezes the content so the rendered
// document a signer seals always matches it.
func (s *Service) UpdateContent(ctx context.Context, accessLink *link.AccessLink, content string) (*GeneratedContract, error) {
	c, err := s.Get(ctx, accessLink)
	if err != nil {
		return nil, err
	}
	switch c.Status {
	case StatusDraft:
	case StatusPendingSignature:
		return nil, dErrors.New(dErrors.CodeStateConflict, "contract is awaiting signature and can no longer be edited")
	default:
		return nil, dErrors.New(dErrors.CodeStateConflict, "signed contracts cannot be edited")
	}
	if err := s.store.UpdateContent(ctx, c.ID, content, s.clock()); err != nil {
		if errors.Is(err, sentinel.ErrImmutable) {
			return nil, dErrors.New(dErrors.CodeStateConflict, "signed contracts cannot be edited")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update contract")
	}

	err = s.auditor.Record(ctx, &accessLink.ID,
		audit.Actor{Kind: audit.ActorProvider, ID: accessLink.ProviderID.String()},
		audit.ActionContractUpdated,
		audit.EntityRef{Kind: "contract", ID: c.ID.String()},
		nil,
	)
	if err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, c.ID)
}

// Validate moves a draft to pending_signature and queues the first render.
func (s *Service) Validate(ctx context.Context, accessLink *link.AccessLink) (*GeneratedContract, error) {
	c, err := s.Get(ctx, accessLink)
	if err != nil {
		return nil, err
	}
	if err := s.store.TransitionStatus(ctx, c.ID, StatusDraft, StatusPendingSignature); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeStateConflict, "contract is not a draft")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate contract")
	}

	// Validation without a queued render would leave the contract awaiting a
	// signature on a document that will never exist. Roll the transition back
	// so the caller can retry the whole operation.
	if s.scheduler != nil {
		jobID, err := s.scheduler.Schedule(ctx, c.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to queue contract render",
				"contract_id", c.ID,
				"error", err,
			)
			if rbErr := s.store.TransitionStatus(ctx, c.ID, StatusPendingSignature, StatusDraft); rbErr != nil {
				s.logger.ErrorContext(ctx, "failed to roll back contract status after scheduling failure",
					"contract_id", c.ID,
					"error", rbErr,
				)
			}
			return nil, err
		}
		s.logger.InfoContext(ctx, "contract render queued",
			"contract_id", c.ID,
			"job_id", jobID,
		)
	}

	err = s.auditor.Record(ctx, &accessLink.ID,
		audit.Actor{Kind: audit.ActorProvider, ID: accessLink.ProviderID.String()},
		audit.ActionContractValidated,
		audit.EntityRef{Kind: "contract", ID: c.ID.String()},
		nil,
	)
	if err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, c.ID)
}

// MarkRendered records a finished render pass and audits it. Called by the
// render worker after the file write succeeds.
func (s *Service) MarkRendered(ctx context.Context, contractID uuid.UUID, version int, filePath, fileHash string, renderedAt time.Time) error {
	if err := s.store.SetRendered(ctx, contractID, version, filePath, fileHash, renderedAt); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record render")
	}
	c, err := s.store.FindByID(ctx, contractID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contract")
	}
	return s.auditor.Record(ctx, &c.LinkID,
		audit.Actor{Kind: audit.ActorSystem, ID: "renderer"},
		audit.ActionContractRendered,
		audit.EntityRef{Kind: "contract", ID: contractID.String()},
		map[string]string{
			"version": strconv.Itoa(version),
			"hash":    fileHash,
		},
	)
}
