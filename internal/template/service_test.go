package template

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	dErrors "lumina/pkg/domain-errors"
)

type TemplateServiceSuite struct {
	suite.Suite

	ctx        context.Context
	store      *InMemoryStore
	svc        *Service
	providerID uuid.UUID
	eventType  uuid.UUID
}

func TestTemplateServiceSuite(t *testing.T) {
	suite.Run(t, new(TemplateServiceSuite))
}

func (s *TemplateServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemory()
	s.svc = NewService(s.store, slog.Default())
	s.providerID = uuid.New()
	s.eventType = uuid.New()
}

func (s *TemplateServiceSuite) systemTemplate(eventTypeID *uuid.UUID, priority int) *ContractTemplate {
	tmpl := &ContractTemplate{
		ID:          uuid.New(),
		EventTypeID: eventTypeID,
		Name:        "system",
		Body:        "system body",
		Priority:    priority,
	}
	s.Require().NoError(s.store.SaveTemplate(s.ctx, tmpl))
	return tmpl
}

func (s *TemplateServiceSuite) TestExplicitTemplateWins() {
	linkTmpl, err := s.svc.CreateTemplate(s.ctx, s.providerID, nil, "preselected", "a", 0)
	s.Require().NoError(err)
	explicit, err := s.svc.CreateTemplate(s.ctx, s.providerID, nil, "explicit", "b", 0)
	s.Require().NoError(err)

	resolved, err := s.svc.Resolve(s.ctx, s.providerID, &explicit.ID, &linkTmpl.ID, nil)
	s.Require().NoError(err)
	s.Equal(explicit.ID, resolved.ID)
}

func (s *TemplateServiceSuite) TestLinkTemplateBeatsDefaults() {
	s.systemTemplate(nil, 100)
	linkTmpl, err := s.svc.CreateTemplate(s.ctx, s.providerID, nil, "preselected", "a", 0)
	s.Require().NoError(err)

	resolved, err := s.svc.Resolve(s.ctx, s.providerID, nil, &linkTmpl.ID, nil)
	s.Require().NoError(err)
	s.Equal(linkTmpl.ID, resolved.ID)
}

func (s *TemplateServiceSuite) TestDefaultRanking() {
	system := s.systemTemplate(&s.eventType, 5)
	generic, err := s.svc.CreateTemplate(s.ctx, s.providerID, nil, "generic", "g", 5)
	s.Require().NoError(err)
	specific, err := s.svc.CreateTemplate(s.ctx, s.providerID, &s.eventType, "specific", "sp", 5)
	s.Require().NoError(err)

	// Equal priority: provider-owned beats system-owned, specific beats
	// generic.
	resolved, err := s.svc.Resolve(s.ctx, s.providerID, nil, nil, &s.eventType)
	s.Require().NoError(err)
	s.Equal(specific.ID, resolved.ID)

	s.Require().NoError(s.svc.DeleteTemplate(s.ctx, s.providerID, specific.ID))
	resolved, err = s.svc.Resolve(s.ctx, s.providerID, nil, nil, &s.eventType)
	s.Require().NoError(err)
	s.Equal(generic.ID, resolved.ID)

	s.Require().NoError(s.svc.DeleteTemplate(s.ctx, s.providerID, generic.ID))
	resolved, err = s.svc.Resolve(s.ctx, s.providerID, nil, nil, &s.eventType)
	s.Require().NoError(err)
	s.Equal(system.ID, resolved.ID)
}

func (s *TemplateServiceSuite) TestHigherPriorityWinsOverOwnership() {
	system := s.systemTemplate(nil, 10)
	_, err := s.svc.CreateTemplate(s.ctx, s.providerID, nil, "mine", "m", 1)
	s.Require().NoError(err)

	resolved, err := s.svc.Resolve(s.ctx, s.providerID, nil, nil, nil)
	s.Require().NoError(err)
	s.Equal(system.ID, resolved.ID)
}

func (s *TemplateServiceSuite) TestSystemTemplatesAreImmutable() {
	system := s.systemTemplate(nil, 0)

	_, err := s.svc.UpdateTemplate(s.ctx, s.providerID, system.ID, nil, "renamed", "x", 0)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	err = s.svc.DeleteTemplate(s.ctx, s.providerID, system.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *TemplateServiceSuite) TestForeignTemplateIsHidden() {
	other, err := s.svc.CreateTemplate(s.ctx, uuid.New(), nil, "theirs", "t", 0)
	s.Require().NoError(err)

	_, err = s.svc.GetTemplate(s.ctx, s.providerID, other.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *TemplateServiceSuite) TestVariableUpsert() {
	v1, err := s.svc.SetVariable(s.ctx, s.providerID, "studio_name", "Atelier Lumen")
	s.Require().NoError(err)

	v2, err := s.svc.SetVariable(s.ctx, s.providerID, "studio_name", "Atelier Nord")
	s.Require().NoError(err)
	s.Equal(v1.ID, v2.ID)

	variables, err := s.svc.ListVariables(s.ctx, s.providerID)
	s.Require().NoError(err)
	s.Require().Len(variables, 1)
	s.Equal("Atelier Nord", variables[0].DefaultValue)
}
