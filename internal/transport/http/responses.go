package http

import (
	"time"

	"github.com/google/uuid"

	"lumina/internal/audit"
	"lumina/internal/contract"
	"lumina/internal/gallery"
	"lumina/internal/link"
	"lumina/internal/questionnaire"
	"lumina/internal/renderer"
	"lumina/internal/signature"
	"lumina/internal/template"
)

type linkResponse struct {
	ID             uuid.UUID  `json:"id"`
	ClientID       uuid.UUID  `json:"client_id"`
	Token          string     `json:"token"`
	EventTypeID    *uuid.UUID `json:"event_type_id,omitempty"`
	TemplateID     *uuid.UUID `json:"template_id,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Revoked        bool       `json:"revoked"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toLinkResponse(l *link.AccessLink) linkResponse {
	return linkResponse{
		ID:             l.ID,
		ClientID:       l.ClientID,
		Token:          l.Token,
		EventTypeID:    l.EventTypeID,
		TemplateID:     l.TemplateID,
		ExpiresAt:      l.ExpiresAt,
		Revoked:        l.Revoked,
		LastAccessedAt: l.LastAccessedAt,
		CreatedAt:      l.CreatedAt,
	}
}

type eventTypeResponse struct {
	ID        uuid.UUID                `json:"id"`
	Name      string                   `json:"name"`
	Questions []questionnaire.Question `json:"questions"`
	CreatedAt time.Time                `json:"created_at"`
}

func toEventTypeResponse(e *questionnaire.EventType) eventTypeResponse {
	return eventTypeResponse{ID: e.ID, Name: e.Name, Questions: e.Questions, CreatedAt: e.CreatedAt}
}

type responseEnvelope struct {
	ID          uuid.UUID             `json:"id"`
	EventTypeID uuid.UUID             `json:"event_type_id"`
	Answers     questionnaire.Answers `json:"answers"`
	Status      string                `json:"status"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func toResponseEnvelope(r *questionnaire.Response) *responseEnvelope {
	if r == nil {
		return nil
	}
	return &responseEnvelope{
		ID:          r.ID,
		EventTypeID: r.EventTypeID,
		Answers:     r.Answers,
		Status:      r.Status,
		UpdatedAt:   r.UpdatedAt,
	}
}

type templateResponse struct {
	ID          uuid.UUID  `json:"id"`
	EventTypeID *uuid.UUID `json:"event_type_id,omitempty"`
	Name        string     `json:"name"`
	Body        string     `json:"body"`
	Priority    int        `json:"priority"`
	SystemOwned bool       `json:"system_owned"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toTemplateResponse(t *template.ContractTemplate) templateResponse {
	return templateResponse{
		ID:          t.ID,
		EventTypeID: t.EventTypeID,
		Name:        t.Name,
		Body:        t.Body,
		Priority:    t.Priority,
		SystemOwned: t.SystemOwned(),
		CreatedAt:   t.CreatedAt,
	}
}

type variableResponse struct {
	ID           uuid.UUID `json:"id"`
	Key          string    `json:"key"`
	DefaultValue string    `json:"default_value"`
}

func toVariableResponse(v *template.CustomVariable) variableResponse {
	return variableResponse{ID: v.ID, Key: v.Key, DefaultValue: v.DefaultValue}
}

type contractResponse struct {
	ID          uuid.UUID `json:"id"`
	Status      string    `json:"status"`
	Content     string    `json:"content,omitempty"`
	Version     int       `json:"version"`
	FileHash    string    `json:"file_hash,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toContractResponse(c *contract.GeneratedContract, includeContent bool) *contractResponse {
	if c == nil {
		return nil
	}
	resp := &contractResponse{
		ID:          c.ID,
		Status:      string(c.Status),
		Version:     c.Version,
		FileHash:    c.FileHash,
		GeneratedAt: c.GeneratedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if includeContent {
		resp.Content = c.Content
	}
	return resp
}

type signatureResponse struct {
	ID           uuid.UUID `json:"id"`
	Role         string    `json:"role"`
	DocumentHash string    `json:"document_hash"`
	AuditToken   string    `json:"audit_token"`
	SignedAt     time.Time `json:"signed_at"`
}

func toSignatureResponse(rec *signature.Record) signatureResponse {
	return signatureResponse{
		ID:           rec.ID,
		Role:         string(rec.Role),
		DocumentHash: rec.DocumentHash,
		AuditToken:   rec.AuditToken,
		SignedAt:     rec.SignedAt,
	}
}

type galleryResponse struct {
	ID      uuid.UUID       `json:"id"`
	Title   string          `json:"title"`
	Visible bool            `json:"visible"`
	Photos  []photoResponse `json:"photos,omitempty"`
}

type photoResponse struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func toGalleryResponse(g *gallery.Gallery, photos []*gallery.Photo) *galleryResponse {
	if g == nil {
		return nil
	}
	resp := &galleryResponse{ID: g.ID, Title: g.Title, Visible: g.Visible}
	for _, p := range photos {
		resp.Photos = append(resp.Photos, photoResponse{
			ID:          p.ID,
			FileName:    p.FileName,
			ContentType: p.ContentType,
			UploadedAt:  p.UploadedAt,
		})
	}
	return resp
}

type auditEntryResponse struct {
	ID        int64             `json:"id"`
	ActorKind string            `json:"actor_kind"`
	ActorID   string            `json:"actor_id"`
	IP        string            `json:"ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Action    string            `json:"action"`
	Entity    string            `json:"entity"`
	EntityID  string            `json:"entity_id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func toAuditResponse(entries []*audit.Entry) []auditEntryResponse {
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ID:        e.ID,
			ActorKind: e.Actor.Kind,
			ActorID:   e.Actor.ID,
			IP:        e.Actor.IP,
			UserAgent: e.Actor.UserAgent,
			Action:    e.Action,
			Entity:    e.Entity.Kind,
			EntityID:  e.Entity.ID,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

type renderJobResponse struct {
	ID         uuid.UUID `json:"id"`
	ContractID uuid.UUID `json:"contract_id"`
	Status     string    `json:"status"`
	Version    int       `json:"version,omitempty"`
	Error      string    `json:"error,omitempty"`
}

func toRenderJobResponse(job renderer.Job) renderJobResponse {
	return renderJobResponse{
		ID:         job.ID,
		ContractID: job.ContractID,
		Status:     string(job.Status),
		Version:    job.Version,
		Error:      job.Error,
	}
}

type portalSnapshotResponse struct {
	State     string             `json:"state"`
	EventType *eventTypeResponse `json:"event_type,omitempty"`
	Response  *responseEnvelope  `json:"questionnaire,omitempty"`
	Contract  *contractResponse  `json:"contract,omitempty"`
	Gallery   *galleryResponse   `json:"gallery,omitempty"`
}
