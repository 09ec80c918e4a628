package contract

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"lumina/internal/audit"
	"lumina/internal/link"
	"lumina/internal/party"
	"lumina/internal/questionnaire"
	"lumina/internal/template"
	dErrors "lumina/pkg/domain-errors"
)

var providerFixture = party.Provider{
	ID:    uuid.New(),
	Name:  "Atelier Lumen",
	Email: "studio@lumen.example",
}

var clientFixture = party.Client{
	ID:         uuid.New(),
	ProviderID: providerFixture.ID,
	Name:       "Dupont",
	Email:      "dupont@example.com",
}

type stubScheduler struct {
	scheduled []uuid.UUID
	fail      error
}

func (s *stubScheduler) Schedule(_ context.Context, contractID uuid.UUID) (uuid.UUID, error) {
	if s.fail != nil {
		return uuid.Nil, s.fail
	}
	s.scheduled = append(s.scheduled, contractID)
	return uuid.New(), nil
}

type ContractServiceSuite struct {
	suite.Suite

	ctx        context.Context
	store      *InMemoryStore
	responses  *questionnaire.InMemoryStore
	templates  *template.Service
	scheduler  *stubScheduler
	svc        *Service
	accessLink *link.AccessLink
	eventType  *questionnaire.EventType
}

func TestContractServiceSuite(t *testing.T) {
	suite.Run(t, new(ContractServiceSuite))
}

func (s *ContractServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemory()
	s.responses = questionnaire.NewMemory()
	s.scheduler = &stubScheduler{}

	parties := party.NewMemory()
	providerCopy := providerFixture
	clientCopy := clientFixture
	s.Require().NoError(parties.SaveProvider(s.ctx, &providerCopy))
	s.Require().NoError(parties.SaveClient(s.ctx, &clientCopy))

	s.templates = template.NewService(template.NewMemory(), slog.Default())
	recorder := audit.NewRecorder(audit.NewMemory(), slog.Default(), nil)

	s.svc = NewService(s.store, s.templates, s.responses, parties, recorder, slog.Default(),
		WithScheduler(s.scheduler),
	)

	s.eventType = &questionnaire.EventType{
		ID:         uuid.New(),
		ProviderID: providerFixture.ID,
		Name:       "Wedding",
		Questions: []questionnaire.Question{
			{Key: "venue", Label: "Venue", Type: questionnaire.QuestionText, Required: true},
		},
		CreatedAt: time.Now(),
	}
	s.Require().NoError(s.responses.SaveEventType(s.ctx, s.eventType))

	s.accessLink = &link.AccessLink{
		ID:          uuid.New(),
		ProviderID:  providerFixture.ID,
		ClientID:    clientFixture.ID,
		EventTypeID: &s.eventType.ID,
	}

	_, err := s.templates.CreateTemplate(s.ctx, providerFixture.ID, &s.eventType.ID,
		"default", "Agreement between {{provider_name}} and {{client_name}} for {{venue}}.", 0)
	s.Require().NoError(err)
}

func (s *ContractServiceSuite) validateQuestionnaire() {
	response := &questionnaire.Response{
		ID:          uuid.New(),
		LinkID:      s.accessLink.ID,
		EventTypeID: s.eventType.ID,
		Answers: questionnaire.Answers{
			"venue": {Values: []string{"Paris"}},
		},
		Status:    questionnaire.StatusValidated,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.Require().NoError(s.responses.SaveResponse(s.ctx, response))
}

func (s *ContractServiceSuite) TestGenerateRequiresValidatedQuestionnaire() {
	_, err := s.svc.Generate(s.ctx, s.accessLink, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

func (s *ContractServiceSuite) TestGenerateSubstitutesAndAppendsSummary() {
	s.validateQuestionnaire()

	c, err := s.svc.Generate(s.ctx, s.accessLink, nil)
	s.Require().NoError(err)
	s.Equal(StatusDraft, c.Status)
	s.Contains(c.Content, "Agreement between Atelier Lumen and Dupont for Paris.")
	s.Contains(c.Content, "|Venue|Paris|")
}

func (s *ContractServiceSuite) TestRegenerateOverwritesDraft() {
	s.validateQuestionnaire()

	first, err := s.svc.Generate(s.ctx, s.accessLink, nil)
	s.Require().NoError(err)

	second, err := s.svc.Generate(s.ctx, s.accessLink, nil)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	stored, err := s.store.FindByLink(s.ctx, s.accessLink.ID)
	s.Require().NoError(err)
	s.Equal(StatusDraft, stored.Status)
}

func (s *ContractServiceSuite) TestGenerateBlockedAfterValidation() {
	s.validateQuestionnaire()

	_, err := s.svc.Generate(s.ctx, s.accessLink, nil)
	s.Require().NoError(err)
	_, err = s.svc.Validate(s.ctx, s.accessLink)
	s.Require().NoError(err)

	_, err = s.svc.Generate(s.ctx, s.accessLink, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
}

func (s *ContractServiceSuite) TestExplicitTemplateWins() {
	s.validateQuestionnaire()

	explicit, err := s.templates.CreateTemplate(s.ctx, providerFixture.ID, nil, "explicit", "Explicit body.", 0)
	s.Require().NoError(err)

	c, err := s.svc.Generate(s.ctx, s.accessLink, &explicit.ID)
	s.Require().NoError(err)
	s.Require().NotNil(c.TemplateID)
	s.Equal(explicit.ID, *c.TemplateID)
}

func (s *ContractServiceSuite) TestValidateQueuesRender() {
	s.validateQuestionnaire()

	c, err := s.svc.Generate(s.ctx, s.accessLink, nil)
	s.Require().NoError(err)

	validated, err := s.svc.Validate(s.ctx, s.accessLink)
	s.Require().NoError(err)
	s.Equal(StatusPendingSignature, validated.Status)
	s.Equal([]uuid.UUID{c.ID}, s.scheduler.scheduled)

	// Validating twice is a state conflict.
	_, err = s.svc.Validate(s.ctx, s.accessLink)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
}

func (s *ContractServiceSuite) TestValidateRollsBackWhenSchedulingFails() {
	s.validateQuestionnaire()

	c, err := s.svc.Generate(s.ctx, s.accessLink, nil)
	s.Require().NoError(err)

	s.scheduler.fail = dErrors.New(dErrors.CodeConflict, "render queue is full")
	_, err = s.svc.Validate(s.ctx, s.accessLink)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	// The transition is rolled back, so the contract stays a retryable draft.
	stored, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(StatusDraft, stored.Status)

	s.scheduler.fail = nil
	validated, err := s.svc.Validate(s.ctx, s.accessLink)
	s.Require().NoError(err)
	s.Equal(StatusPendingSignature, validated.Status)
	s.Equal([]uuid.UUID{c.ID}, s.scheduler.scheduled)
}

func (s *ContractServiceSuite) TestPendingContractCannotBeEdited() {
	s.validateQuestionnaire()

	c, err := s.svc.Generate(s.ctx, s.accessLink, nil)
	s.Require().NoError(err)
	_, err = s.svc.Validate(s.ctx, s.accessLink)
	s.Require().NoError(err)

	_, err = s.svc.UpdateContent(s.ctx, s.accessLink, "edited after validation")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))

	stored, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.Content, stored.Content)
}

func (s *ContractServiceSuite) TestSignedContractIsImmutable() {
	s.validateQuestionnaire()

	c, err := s.svc.Generate(s.ctx, s.accessLink, nil)
	s.Require().NoError(err)
	_, err = s.svc.Validate(s.ctx, s.accessLink)
	s.Require().NoError(err)
	s.Require().NoError(s.store.TransitionStatus(s.ctx, c.ID, StatusPendingSignature, StatusSigned))

	_, err = s.svc.UpdateContent(s.ctx, s.accessLink, "edited")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
}
