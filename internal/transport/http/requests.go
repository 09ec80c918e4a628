package http

import (
	"github.com/google/uuid"

	"lumina/internal/questionnaire"
)

type createLinkRequest struct {
	ClientID      uuid.UUID  `json:"client_id" validate:"required"`
	ExpiresInDays *int       `json:"expires_in_days" validate:"omitempty,gt=0"`
	EventTypeID   *uuid.UUID `json:"event_type_id"`
	TemplateID    *uuid.UUID `json:"template_id"`
}

type updateExpirationRequest struct {
	// Days recomputes expiry from now; null clears it.
	Days *int `json:"days" validate:"omitempty,gt=0"`
}

type questionPayload struct {
	Key      string   `json:"key" validate:"required,notblank"`
	Label    string   `json:"label" validate:"required,notblank"`
	Type     string   `json:"type" validate:"required,oneof=text textarea select multiselect date"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
}

type eventTypeRequest struct {
	Name      string            `json:"name" validate:"required,notblank"`
	Questions []questionPayload `json:"questions" validate:"required,min=1,dive"`
}

type templateRequest struct {
	Name        string     `json:"name" validate:"required,notblank"`
	Body        string     `json:"body" validate:"required"`
	EventTypeID *uuid.UUID `json:"event_type_id"`
	Priority    int        `json:"priority"`
}

type customVariableRequest struct {
	Key          string `json:"key" validate:"required,notblank"`
	DefaultValue string `json:"default_value"`
}

type saveQuestionnaireRequest struct {
	Answers questionnaire.Answers `json:"answers" validate:"required"`
}

type validateQuestionnaireRequest struct {
	Answers questionnaire.Answers `json:"answers"`
}

type generateContractRequest struct {
	TemplateID *uuid.UUID `json:"template_id"`
}

type updateContractRequest struct {
	Content string `json:"content" validate:"required"`
}

type signRequest struct {
	SignatureImage string `json:"signature_image"`
}

type createGalleryRequest struct {
	Title string `json:"title"`
}

type galleryVisibilityRequest struct {
	Visible bool `json:"visible"`
}
