// Package contract turns a resolved template plus questionnaire answers into
// a contract document and tracks it through draft, pending_signature and
// signed states.
package contract

import (
	"time"

	"github.com/google/uuid"
)

// Status is the contract lifecycle state. Transitions are monotonic:
// draft -> pending_signature -> signed.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusPendingSignature Status = "pending_signature"
	StatusSigned           Status = "signed"
)

// GeneratedContract is the single contract attached to an access link.
// Version counts successful renders; FilePath and FileHash describe the last
// rendered binary.
type GeneratedContract struct {
	ID          uuid.UUID
	LinkID      uuid.UUID
	TemplateID  *uuid.UUID
	Content     string
	Status      Status
	Version     int
	FilePath    string
	FileHash    string
	GeneratedAt time.Time
	UpdatedAt   time.Time
}

// Editable reports whether the content may still be changed. Signed contracts
// are frozen; pending ones may still be corrected before signature.
func (c GeneratedContract) Editable() bool {
	return c.Status != StatusSigned
}
