// Package portal orchestrates the token-gated surface used by external
// parties. Every operation starts by resolving the opaque token to a usable
// link; nothing else identifies the caller.
package portal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"lumina/internal/audit"
	"lumina/internal/contract"
	"lumina/internal/gallery"
	"lumina/internal/link"
	"lumina/internal/questionnaire"
	"lumina/internal/signature"
	"lumina/internal/storage"
	"lumina/internal/workflow"
	dErrors "lumina/pkg/domain-errors"
)

// Service wires the portal operations together.
type Service struct {
	links          *link.Service
	questionnaires *questionnaire.Service
	contracts      *contract.Service
	signatures     *signature.Service
	galleries      *gallery.Service
	auditor        *audit.Recorder
	files          storage.Store
	logger         *slog.Logger
}

// NewService constructs the portal service.
func NewService(links *link.Service, questionnaires *questionnaire.Service, contracts *contract.Service, signatures *signature.Service, galleries *gallery.Service, auditor *audit.Recorder, files storage.Store, logger *slog.Logger) *Service {
	return &Service{
		links:          links,
		questionnaires: questionnaires,
		contracts:      contracts,
		signatures:     signatures,
		galleries:      galleries,
		auditor:        auditor,
		files:          files,
		logger:         logger,
	}
}

// Snapshot is everything the portal needs to render its landing view.
type Snapshot struct {
	Link      *link.AccessLink
	State     workflow.ClientState
	EventType *questionnaire.EventType
	Response  *questionnaire.Response
	Contract  *contract.GeneratedContract
	Gallery   *gallery.Gallery
}

// Resolve validates the token, records the access and assembles the state
// snapshot.
func (s *Service) Resolve(ctx context.Context, token string) (*Snapshot, error) {
	accessLink, err := s.links.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	err = s.auditor.Record(ctx, &accessLink.ID,
		audit.Actor{Kind: audit.ActorClient, ID: accessLink.ClientID.String()},
		audit.ActionLinkAccessed,
		audit.EntityRef{Kind: "access_link", ID: accessLink.ID.String()},
		nil,
	)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, accessLink)
}

// resolveQuiet validates the token without recording an access entry. Used by
// the sub-operations so one page load does not produce a dozen entries.
func (s *Service) resolveQuiet(ctx context.Context, token string) (*link.AccessLink, error) {
	return s.links.Validate(ctx, token)
}

func (s *Service) snapshot(ctx context.Context, accessLink *link.AccessLink) (*Snapshot, error) {
	response, err := s.questionnaires.GetResponseByLink(ctx, accessLink.ID)
	if err != nil {
		return nil, err
	}

	c, err := s.contracts.Get(ctx, accessLink)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, err
	}

	g, err := s.galleries.GetForPortal(ctx, accessLink)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Link:     accessLink,
		State:    workflow.DeriveClientState(response, c, g),
		Response: response,
		Contract: c,
		Gallery:  g,
	}

	eventTypeID := accessLink.EventTypeID
	if eventTypeID == nil && response != nil {
		eventTypeID = &response.EventTypeID
	}
	if eventTypeID != nil {
		eventType, err := s.questionnaires.GetForPortal(ctx, *eventTypeID)
		if err != nil {
			return nil, err
		}
		snap.EventType = eventType
	}
	return snap, nil
}

func (s *Service) eventTypeFor(accessLink *link.AccessLink, requested *uuid.UUID) (uuid.UUID, error) {
	if requested != nil {
		return *requested, nil
	}
	if accessLink.EventTypeID != nil {
		return *accessLink.EventTypeID, nil
	}
	return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "no event type attached to this link")
}

// Questionnaire returns the question set and the current response for one
// event type, so the portal can render the form with prior answers filled in.
func (s *Service) Questionnaire(ctx context.Context, token string, eventTypeID uuid.UUID) (*questionnaire.EventType, *questionnaire.Response, error) {
	accessLink, err := s.resolveQuiet(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	eventType, err := s.questionnaires.GetForPortal(ctx, eventTypeID)
	if err != nil {
		return nil, nil, err
	}
	response, err := s.questionnaires.GetResponse(ctx, accessLink.ID, eventTypeID)
	if err != nil {
		return nil, nil, err
	}
	return eventType, response, nil
}

// SaveQuestionnaire stores draft answers.
func (s *Service) SaveQuestionnaire(ctx context.Context, token string, eventTypeID *uuid.UUID, answers questionnaire.Answers) (*questionnaire.Response, error) {
	accessLink, err := s.resolveQuiet(ctx, token)
	if err != nil {
		return nil, err
	}
	id, err := s.eventTypeFor(accessLink, eventTypeID)
	if err != nil {
		return nil, err
	}
	return s.questionnaires.SaveDraft(ctx, accessLink, id, answers)
}

// ValidateQuestionnaire freezes the answers, optionally saving a final batch
// first.
func (s *Service) ValidateQuestionnaire(ctx context.Context, token string, eventTypeID *uuid.UUID, answers questionnaire.Answers) (*questionnaire.Response, error) {
	accessLink, err := s.resolveQuiet(ctx, token)
	if err != nil {
		return nil, err
	}
	id, err := s.eventTypeFor(accessLink, eventTypeID)
	if err != nil {
		return nil, err
	}
	return s.questionnaires.Validate(ctx, accessLink, id, answers)
}

// Contract returns the link's contract once it is out of draft. Drafts stay
// provider-side.
func (s *Service) Contract(ctx context.Context, token string) (*contract.GeneratedContract, error) {
	accessLink, err := s.resolveQuiet(ctx, token)
	if err != nil {
		return nil, err
	}
	c, err := s.contracts.Get(ctx, accessLink)
	if err != nil {
		return nil, err
	}
	if c.Status == contract.StatusDraft {
		return nil, dErrors.New(dErrors.CodeNotFound, "no contract for this link")
	}
	return c, nil
}

// ContractPDF streams the last rendered document.
func (s *Service) ContractPDF(ctx context.Context, token string) (*contract.GeneratedContract, []byte, error) {
	c, err := s.Contract(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if c.FilePath == "" {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "document not rendered yet")
	}
	content, err := s.files.Read(c.FilePath)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read document")
	}
	return c, content, nil
}

// Sign captures the external party's signature on the contract.
func (s *Service) Sign(ctx context.Context, token, imagePayload string) (*signature.Record, error) {
	accessLink, err := s.resolveQuiet(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.signatures.Sign(ctx, accessLink, signature.RoleClient, imagePayload)
}

// Gallery returns the published gallery and its photos, or a not-found when
// nothing is published.
func (s *Service) Gallery(ctx context.Context, token string) (*gallery.Gallery, []*gallery.Photo, error) {
	accessLink, err := s.resolveQuiet(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	g, err := s.galleries.GetForPortal(ctx, accessLink)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "no gallery available")
	}
	photos, err := s.galleries.ListPhotos(ctx, g.ID)
	if err != nil {
		return nil, nil, err
	}
	return g, photos, nil
}

// Photo streams one published photo.
func (s *Service) Photo(ctx context.Context, token string, photoID uuid.UUID) (*gallery.Photo, []byte, error) {
	accessLink, err := s.resolveQuiet(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	return s.galleries.ServePhoto(ctx, accessLink, photoID, true)
}

// Export is the data-subject export: the full state of the engagement plus
// the ordered audit trail.
type Export struct {
	Link       *link.AccessLink
	State      workflow.ClientState
	Response   *questionnaire.Response
	Contract   *contract.GeneratedContract
	Signatures []*signature.Record
	AuditTrail []*audit.Entry
}

// ExportData assembles the export and records that it happened.
func (s *Service) ExportData(ctx context.Context, token string) (*Export, error) {
	accessLink, err := s.resolveQuiet(ctx, token)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx, accessLink)
	if err != nil {
		return nil, err
	}

	export := &Export{
		Link:     accessLink,
		State:    snap.State,
		Response: snap.Response,
		Contract: snap.Contract,
	}
	if snap.Contract != nil {
		records, err := s.signatures.List(ctx, snap.Contract.ID)
		if err != nil {
			return nil, err
		}
		export.Signatures = records
	}

	err = s.auditor.Record(ctx, &accessLink.ID,
		audit.Actor{Kind: audit.ActorClient, ID: accessLink.ClientID.String()},
		audit.ActionDataExported,
		audit.EntityRef{Kind: "access_link", ID: accessLink.ID.String()},
		nil,
	)
	if err != nil {
		return nil, err
	}

	trail, err := s.auditor.ExportForLink(ctx, accessLink.ID)
	if err != nil {
		return nil, fmt.Errorf("export audit trail: %w", err)
	}
	export.AuditTrail = trail
	return export, nil
}
