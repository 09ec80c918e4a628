package link

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"lumina/internal/audit"
	dErrors "lumina/pkg/domain-errors"
)

type LinkServiceSuite struct {
	suite.Suite

	ctx        context.Context
	store      *InMemoryStore
	auditStore *audit.InMemoryStore
	svc        *Service
	providerID uuid.UUID
	clientID   uuid.UUID
	clock      time.Time
}

func TestLinkServiceSuite(t *testing.T) {
	suite.Run(t, new(LinkServiceSuite))
}

func (s *LinkServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemory()
	s.auditStore = audit.NewMemory()
	s.providerID = uuid.New()
	s.clientID = uuid.New()
	s.clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	recorder := audit.NewRecorder(s.auditStore, slog.Default(), nil)
	s.svc = NewService(s.store, recorder, slog.Default(), WithClock(func() time.Time { return s.clock }))
}

func (s *LinkServiceSuite) createLink(days *int) *AccessLink {
	created, err := s.svc.Create(s.ctx, CreateParams{
		ProviderID:    s.providerID,
		ClientID:      s.clientID,
		ExpiresInDays: days,
	})
	s.Require().NoError(err)
	return created
}

func (s *LinkServiceSuite) TestCreateGeneratesOpaqueToken() {
	days := 7
	created := s.createLink(&days)

	s.Len(created.Token, 64)
	s.Require().NotNil(created.ExpiresAt)
	s.Equal(s.clock.AddDate(0, 0, 7), *created.ExpiresAt)

	other := s.createLink(nil)
	s.NotEqual(created.Token, other.Token)
	s.Nil(other.ExpiresAt, "no expiry when days omitted")
}

func (s *LinkServiceSuite) TestValidateHappyPathTouchesLastAccess() {
	created := s.createLink(nil)

	got, err := s.svc.Validate(s.ctx, created.Token)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)

	// The touch is a side effect visible on re-read, not on the returned snapshot.
	s.Nil(got.LastAccessedAt)
	stored, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.LastAccessedAt)
	s.Equal(s.clock, *stored.LastAccessedAt)
}

func (s *LinkServiceSuite) TestValidateFailsAfterRevoke() {
	created := s.createLink(nil)
	s.Require().NoError(s.svc.Revoke(s.ctx, s.providerID, created.ID))

	_, err := s.svc.Validate(s.ctx, created.Token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
}

func (s *LinkServiceSuite) TestValidateFailsWhenExpired() {
	days := 7
	created := s.createLink(&days)

	s.clock = s.clock.AddDate(0, 0, 8)
	_, err := s.svc.Validate(s.ctx, created.Token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
}

func (s *LinkServiceSuite) TestValidateUnknownToken() {
	_, err := s.svc.Validate(s.ctx, "deadbeef")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
}

func (s *LinkServiceSuite) TestRevokeAllForClient() {
	first := s.createLink(nil)
	second := s.createLink(nil)

	count, err := s.svc.RevokeAllForClient(s.ctx, s.providerID, s.clientID)
	s.Require().NoError(err)
	s.Equal(2, count)

	for _, token := range []string{first.Token, second.Token} {
		_, err := s.svc.Validate(s.ctx, token)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	}
}

func (s *LinkServiceSuite) TestUpdateExpirationRecomputesFromNow() {
	days := 7
	created := s.createLink(&days)

	// Two days pass, then the provider extends by 3 days: expiry must be
	// now+3d, not issuance+3d.
	s.clock = s.clock.AddDate(0, 0, 2)
	extend := 3
	updated, err := s.svc.UpdateExpiration(s.ctx, s.providerID, created.ID, &extend)
	s.Require().NoError(err)
	s.Require().NotNil(updated.ExpiresAt)
	s.Equal(s.clock.AddDate(0, 0, 3), *updated.ExpiresAt)

	// Clearing expiry makes the link permanent.
	cleared, err := s.svc.UpdateExpiration(s.ctx, s.providerID, created.ID, nil)
	s.Require().NoError(err)
	s.Nil(cleared.ExpiresAt)
}

func (s *LinkServiceSuite) TestOwnershipEnforced() {
	created := s.createLink(nil)
	otherProvider := uuid.New()

	err := s.svc.Revoke(s.ctx, otherProvider, created.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *LinkServiceSuite) TestAuditTrailRecorded() {
	created := s.createLink(nil)
	s.Require().NoError(s.svc.Revoke(s.ctx, s.providerID, created.ID))

	entries, err := s.auditStore.ExportForLink(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(audit.ActionLinkCreated, entries[0].Action)
	s.Equal(audit.ActionLinkRevoked, entries[1].Action)
}
