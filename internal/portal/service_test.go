package portal

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"lumina/internal/audit"
	"lumina/internal/contract"
	"lumina/internal/gallery"
	"lumina/internal/link"
	"lumina/internal/party"
	"lumina/internal/platform/requestcontext"
	"lumina/internal/questionnaire"
	"lumina/internal/renderer"
	"lumina/internal/signature"
	"lumina/internal/storage"
	"lumina/internal/template"
	"lumina/internal/workflow"
	dErrors "lumina/pkg/domain-errors"
)

// PortalLifecycleSuite walks a full engagement end to end through the portal
// and provider services the way the HTTP layer drives them.
type PortalLifecycleSuite struct {
	suite.Suite

	ctx    context.Context
	cancel context.CancelFunc

	portal        *Service
	links         *link.Service
	contracts     *contract.Service
	galleries     *gallery.Service
	contractStore *contract.InMemoryStore
	auditStore    *audit.InMemoryStore
	pool          *renderer.Pool

	provider  *party.Provider
	client    *party.Client
	eventType *questionnaire.EventType
}

func TestPortalLifecycleSuite(t *testing.T) {
	suite.Run(t, new(PortalLifecycleSuite))
}

func (s *PortalLifecycleSuite) SetupTest() {
	baseCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.ctx = requestcontext.WithClientMetadata(baseCtx, "198.51.100.7", "Mozilla/5.0 (X11; Linux x86_64) Firefox/121.0")
	s.T().Cleanup(cancel)

	logger := slog.Default()
	s.auditStore = audit.NewMemory()
	recorder := audit.NewRecorder(s.auditStore, logger, nil)

	parties := party.NewMemory()
	s.provider = &party.Provider{ID: uuid.New(), Name: "Atelier Lumen", Email: "studio@lumen.example"}
	s.client = &party.Client{ID: uuid.New(), ProviderID: s.provider.ID, Name: "Dupont", Email: "dupont@example.com"}
	s.Require().NoError(parties.SaveProvider(s.ctx, s.provider))
	s.Require().NoError(parties.SaveClient(s.ctx, s.client))

	questionnaireStore := questionnaire.NewMemory()
	questionnaires := questionnaire.NewService(questionnaireStore, recorder, logger)

	var err error
	s.eventType, err = questionnaires.CreateEventType(s.ctx, s.provider.ID, "Wedding", []questionnaire.Question{
		{Key: "venue", Label: "Venue", Type: questionnaire.QuestionText, Required: true},
		{Key: "guests", Label: "Guest count", Type: questionnaire.QuestionText, Required: false},
	})
	s.Require().NoError(err)

	templates := template.NewService(template.NewMemory(), logger)
	_, err = templates.CreateTemplate(s.ctx, s.provider.ID, &s.eventType.ID, "wedding default",
		"# Object\nAgreement between {{provider_name}} and {{client_name}} for the event at {{venue}}.", 0)
	s.Require().NoError(err)

	linkStore := link.NewMemory()
	s.links = link.NewService(linkStore, recorder, logger)

	files, err := storage.NewFileStore(s.T().TempDir())
	s.Require().NoError(err)

	engine := renderer.NewEngine()
	s.contractStore = contract.NewMemory()
	s.contracts = contract.NewService(s.contractStore, templates, questionnaireStore, parties, recorder, logger)
	s.pool = renderer.NewPool(engine, s.contracts, linkStore, files,
		renderer.PoolConfig{Workers: 1, QueueCap: 8, Retention: time.Minute}, logger)
	go s.pool.Run(baseCtx)

	// Re-create the contract service with the scheduler attached.
	s.contracts = contract.NewService(s.contractStore, templates, questionnaireStore, parties, recorder, logger,
		contract.WithScheduler(s.pool))

	signatures := signature.NewService(signature.NewMemory(), s.contractStore, parties, files, engine, recorder, logger)
	s.galleries = gallery.NewService(gallery.NewMemory(), files, recorder, logger)

	s.portal = NewService(s.links, questionnaires, s.contracts, signatures, s.galleries, recorder, files, logger)
}

func (s *PortalLifecycleSuite) waitForRender(contractID uuid.UUID, version int) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		c, err := s.contractStore.FindByID(s.ctx, contractID)
		s.Require().NoError(err)
		if c.Version >= version {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	s.FailNow("render did not complete")
}

func (s *PortalLifecycleSuite) countAction(action string) int {
	n := 0
	for _, entry := range s.auditStore.All() {
		if entry.Action == action {
			n++
		}
	}
	return n
}

func (s *PortalLifecycleSuite) TestFullEngagementLifecycle() {
	days := 7
	accessLink, err := s.links.Create(s.ctx, link.CreateParams{
		ProviderID:    s.provider.ID,
		ClientID:      s.client.ID,
		ExpiresInDays: &days,
		EventTypeID:   &s.eventType.ID,
	})
	s.Require().NoError(err)
	s.Require().NotNil(accessLink.ExpiresAt)

	// First portal visit: questionnaire state, access recorded.
	snap, err := s.portal.Resolve(s.ctx, accessLink.Token)
	s.Require().NoError(err)
	s.Equal(workflow.ClientQuestionnaire, snap.State)
	s.Require().NotNil(snap.EventType)
	s.Equal(1, s.countAction(audit.ActionLinkAccessed))

	// The client answers and validates.
	_, err = s.portal.SaveQuestionnaire(s.ctx, accessLink.Token, nil, questionnaire.Answers{
		"venue": {Values: []string{"Paris"}},
	})
	s.Require().NoError(err)
	_, err = s.portal.ValidateQuestionnaire(s.ctx, accessLink.Token, nil, nil)
	s.Require().NoError(err)

	snap, err = s.portal.Resolve(s.ctx, accessLink.Token)
	s.Require().NoError(err)
	s.Equal(workflow.ClientWaitingContract, snap.State)

	// Provider generates and validates the contract; the render pool
	// produces version 1.
	generated, err := s.contracts.Generate(s.ctx, accessLink, nil)
	s.Require().NoError(err)
	s.Contains(generated.Content, "Agreement between Atelier Lumen and Dupont for the event at Paris.")

	// Draft contracts stay invisible to the portal.
	_, err = s.portal.Contract(s.ctx, accessLink.Token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.contracts.Validate(s.ctx, accessLink)
	s.Require().NoError(err)
	s.waitForRender(generated.ID, 1)

	snap, err = s.portal.Resolve(s.ctx, accessLink.Token)
	s.Require().NoError(err)
	s.Equal(workflow.ClientSignContract, snap.State)

	_, pdfBytes, err := s.portal.ContractPDF(s.ctx, accessLink.Token)
	s.Require().NoError(err)
	s.True(len(pdfBytes) > 0)

	// Signing seals the document and re-renders with the attestation page.
	rec, err := s.portal.Sign(s.ctx, accessLink.Token, "")
	s.Require().NoError(err)
	s.NotEmpty(rec.AuditToken)
	s.Equal("198.51.100.7", rec.IP)

	signed, err := s.contractStore.FindByID(s.ctx, generated.ID)
	s.Require().NoError(err)
	s.Equal(contract.StatusSigned, signed.Status)
	s.Equal(2, signed.Version)
	s.Equal(1, s.countAction(audit.ActionContractSigned))

	snap, err = s.portal.Resolve(s.ctx, accessLink.Token)
	s.Require().NoError(err)
	s.Equal(workflow.ClientCompleted, snap.State)

	// Publishing the gallery flips the portal state.
	_, err = s.galleries.Create(s.ctx, accessLink, "Wedding photos")
	s.Require().NoError(err)
	_, err = s.galleries.SetVisibility(s.ctx, accessLink, true)
	s.Require().NoError(err)

	snap, err = s.portal.Resolve(s.ctx, accessLink.Token)
	s.Require().NoError(err)
	s.Equal(workflow.ClientGalleryAvailable, snap.State)

	// The export carries the whole engagement plus the ordered trail.
	export, err := s.portal.ExportData(s.ctx, accessLink.Token)
	s.Require().NoError(err)
	s.Require().NotNil(export.Contract)
	s.Len(export.Signatures, 1)
	s.True(len(export.AuditTrail) >= 6)
	for i := 1; i < len(export.AuditTrail); i++ {
		s.False(export.AuditTrail[i].CreatedAt.Before(export.AuditTrail[i-1].CreatedAt))
	}
}

func (s *PortalLifecycleSuite) TestRevokedTokenIsRejected() {
	accessLink, err := s.links.Create(s.ctx, link.CreateParams{
		ProviderID: s.provider.ID,
		ClientID:   s.client.ID,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.links.Revoke(s.ctx, s.provider.ID, accessLink.ID))

	_, err = s.portal.Resolve(s.ctx, accessLink.Token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
}

func (s *PortalLifecycleSuite) TestUnknownTokenIsRejected() {
	_, err := s.portal.Resolve(s.ctx, "not-a-real-token")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
}
