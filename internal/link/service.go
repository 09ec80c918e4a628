package link

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"lumina/internal/audit"
	"lumina/internal/platform/metrics"
	"lumina/internal/sentinel"
	dErrors "lumina/pkg/domain-errors"
	"lumina/pkg/secrets"
)

// Service issues and validates access links. Validate is the sole gate for
// every external-party operation.
type Service struct {
	store   Store
	auditor *audit.Recorder
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithClock overrides the time source. Tests use this to simulate expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService constructs the link service.
func NewService(store Store, auditor *audit.Recorder, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:   store,
		auditor: auditor,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateParams describe a new engagement link.
type CreateParams struct {
	ProviderID    uuid.UUID
	ClientID      uuid.UUID
	ExpiresInDays *int
	EventTypeID   *uuid.UUID
	TemplateID    *uuid.UUID
}

// Create persists a new link with a freshly generated opaque token.
// Expiry is computed as now + ExpiresInDays when provided, else the link never
// expires.
func (s *Service) Create(ctx context.Context, params CreateParams) (*AccessLink, error) {
	if params.ProviderID == uuid.Nil || params.ClientID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeValidation, "provider and client are required")
	}
	if params.ExpiresInDays != nil && *params.ExpiresInDays <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "expires_in_days must be positive")
	}

	token, err := secrets.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	newLink := &AccessLink{
		ID:          uuid.New(),
		ProviderID:  params.ProviderID,
		ClientID:    params.ClientID,
		Token:       token,
		EventTypeID: params.EventTypeID,
		TemplateID:  params.TemplateID,
		CreatedAt:   now,
	}
	if params.ExpiresInDays != nil {
		expiresAt := now.AddDate(0, 0, *params.ExpiresInDays)
		newLink.ExpiresAt = &expiresAt
	}

	if err := s.store.Save(ctx, newLink); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save access link")
	}

	if err := s.auditor.Record(ctx, &newLink.ID,
		audit.Actor{Kind: audit.ActorProvider, ID: params.ProviderID.String()},
		audit.ActionLinkCreated,
		audit.EntityRef{Kind: "access_link", ID: newLink.ID.String()},
		nil,
	); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.LinksCreated.Inc()
	}
	return newLink, nil
}

// Validate resolves a token to a usable link. It fails with invalid_token when
// no row matches, the link is revoked, or it has expired. On success the
// last-access timestamp is updated as an observable side effect; the returned
// snapshot does not reflect it.
func (s *Service) Validate(ctx context.Context, token string) (*AccessLink, error) {
	if token == "" {
		s.countValidation("missing")
		return nil, dErrors.New(dErrors.CodeInvalidToken, "missing token")
	}

	found, err := s.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.countValidation("unknown")
			return nil, dErrors.New(dErrors.CodeInvalidToken, "unknown token")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up token")
	}

	now := s.now()
	if found.Revoked {
		s.countValidation("revoked")
		return nil, dErrors.New(dErrors.CodeInvalidToken, "link revoked")
	}
	if !found.IsUsable(now) {
		s.countValidation("expired")
		return nil, dErrors.New(dErrors.CodeInvalidToken, "link expired")
	}

	// The touch is best effort: a failure must not lock the external party
	// out of an otherwise valid link.
	if err := s.store.TouchLastAccessed(ctx, found.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to touch link last access",
			"link_id", found.ID,
			"error", err,
		)
	}

	s.countValidation("ok")
	return found, nil
}

// Get returns a link by ID, enforcing provider ownership.
func (s *Service) Get(ctx context.Context, providerID, linkID uuid.UUID) (*AccessLink, error) {
	found, err := s.store.FindByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "link not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load link")
	}
	if found.ProviderID != providerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "link belongs to another provider")
	}
	return found, nil
}

// List returns all links issued by a provider.
func (s *Service) List(ctx context.Context, providerID uuid.UUID) ([]*AccessLink, error) {
	links, err := s.store.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list links")
	}
	return links, nil
}

// Revoke irreversibly disables a link. Subsequent Validate calls fail
// permanently.
func (s *Service) Revoke(ctx context.Context, providerID, linkID uuid.UUID) error {
	found, err := s.Get(ctx, providerID, linkID)
	if err != nil {
		return err
	}

	if err := s.store.Revoke(ctx, found.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke link")
	}

	if s.metrics != nil {
		s.metrics.LinksRevoked.Inc()
	}
	return s.auditor.Record(ctx, &found.ID,
		audit.Actor{Kind: audit.ActorProvider, ID: providerID.String()},
		audit.ActionLinkRevoked,
		audit.EntityRef{Kind: "access_link", ID: found.ID.String()},
		nil,
	)
}

// RevokeAllForClient revokes every active link of a client.
func (s *Service) RevokeAllForClient(ctx context.Context, providerID, clientID uuid.UUID) (int, error) {
	count, err := s.store.RevokeAllForClient(ctx, clientID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke client links")
	}
	if count > 0 && s.metrics != nil {
		s.metrics.LinksRevoked.Add(float64(count))
	}
	err = s.auditor.Record(ctx, nil,
		audit.Actor{Kind: audit.ActorProvider, ID: providerID.String()},
		audit.ActionLinkRevoked,
		audit.EntityRef{Kind: "client", ID: clientID.String()},
		map[string]string{"revoked_count": strconv.Itoa(count)},
	)
	if err != nil {
		return count, err
	}
	return count, nil
}

// UpdateExpiration recomputes expiry from "now", not from original issuance
// time. A nil days clears the expiry entirely.
func (s *Service) UpdateExpiration(ctx context.Context, providerID, linkID uuid.UUID, days *int) (*AccessLink, error) {
	found, err := s.Get(ctx, providerID, linkID)
	if err != nil {
		return nil, err
	}
	if days != nil && *days <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "days must be positive")
	}

	var expiresAt *time.Time
	if days != nil {
		t := s.now().AddDate(0, 0, *days)
		expiresAt = &t
	}
	if err := s.store.UpdateExpiration(ctx, found.ID, expiresAt); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update link expiration")
	}
	found.ExpiresAt = expiresAt

	err = s.auditor.Record(ctx, &found.ID,
		audit.Actor{Kind: audit.ActorProvider, ID: providerID.String()},
		audit.ActionLinkExpirationChanged,
		audit.EntityRef{Kind: "access_link", ID: found.ID.String()},
		nil,
	)
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *Service) countValidation(result string) {
	if s.metrics != nil {
		s.metrics.TokenValidations.WithLabelValues(result).Inc()
	}
}
