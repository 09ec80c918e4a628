package questionnaire

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"lumina/internal/audit"
	"lumina/internal/link"
	dErrors "lumina/pkg/domain-errors"
)

func TestAnswerUnmarshalShapes(t *testing.T) {
	var answers Answers
	payload := []byte(`{"q1": "hello", "q2": ["A", "B"], "q3": ""}`)
	require.NoError(t, json.Unmarshal(payload, &answers))

	assert.Equal(t, "hello", answers["q1"].Join())
	assert.Equal(t, "A, B", answers["q2"].Join())
	assert.True(t, answers["q3"].IsEmpty())
	assert.False(t, answers["q2"].IsEmpty())

	// Round-trip preserves the submitted shape.
	out, err := json.Marshal(answers["q2"])
	require.NoError(t, err)
	assert.JSONEq(t, `["A","B"]`, string(out))
}

type QuestionnaireServiceSuite struct {
	suite.Suite

	ctx        context.Context
	store      *InMemoryStore
	svc        *Service
	providerID uuid.UUID
	accessLink *link.AccessLink
	eventType  *EventType
}

func TestQuestionnaireServiceSuite(t *testing.T) {
	suite.Run(t, new(QuestionnaireServiceSuite))
}

func (s *QuestionnaireServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemory()
	s.providerID = uuid.New()

	recorder := audit.NewRecorder(audit.NewMemory(), slog.Default(), nil)
	s.svc = NewService(s.store, recorder, slog.Default())

	eventType, err := s.svc.CreateEventType(s.ctx, s.providerID, "Wedding", []Question{
		{Key: "venue", Label: "Venue", Type: QuestionText, Required: true},
		{Key: "guests", Label: "Guest count", Type: QuestionText, Required: false},
	})
	s.Require().NoError(err)
	s.eventType = eventType

	s.accessLink = &link.AccessLink{
		ID:         uuid.New(),
		ProviderID: s.providerID,
		ClientID:   uuid.New(),
	}
}

func (s *QuestionnaireServiceSuite) TestSaveDraftThenValidate() {
	draft, err := s.svc.SaveDraft(s.ctx, s.accessLink, s.eventType.ID, Answers{
		"venue": {Values: []string{"Paris"}},
	})
	s.Require().NoError(err)
	s.Equal(StatusDraft, draft.Status)

	validated, err := s.svc.Validate(s.ctx, s.accessLink, s.eventType.ID, nil)
	s.Require().NoError(err)
	s.Equal(StatusValidated, validated.Status)
}

func (s *QuestionnaireServiceSuite) TestValidateRejectsMissingRequiredAnswer() {
	_, err := s.svc.SaveDraft(s.ctx, s.accessLink, s.eventType.ID, Answers{
		"guests": {Values: []string{"80"}},
	})
	s.Require().NoError(err)

	_, err = s.svc.Validate(s.ctx, s.accessLink, s.eventType.ID, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *QuestionnaireServiceSuite) TestValidatedResponseIsImmutable() {
	_, err := s.svc.Validate(s.ctx, s.accessLink, s.eventType.ID, Answers{
		"venue": {Values: []string{"Lyon"}},
	})
	s.Require().NoError(err)

	_, err = s.svc.SaveDraft(s.ctx, s.accessLink, s.eventType.ID, Answers{
		"venue": {Values: []string{"Marseille"}},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))

	_, err = s.svc.Validate(s.ctx, s.accessLink, s.eventType.ID, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
}

func (s *QuestionnaireServiceSuite) TestValidateWithoutAnswersFails() {
	_, err := s.svc.Validate(s.ctx, s.accessLink, s.eventType.ID, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

func (s *QuestionnaireServiceSuite) TestEventTypeOwnership() {
	_, err := s.svc.GetEventType(s.ctx, uuid.New(), s.eventType.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
