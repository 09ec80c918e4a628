// Package audit is the compliance record of record. Entries are append-only:
// nothing in this package mutates or deletes a written row, and write failures
// always propagate to the caller.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action kinds recorded by the document lifecycle engine.
const (
	ActionLinkCreated            = "link_created"
	ActionLinkAccessed           = "link_accessed"
	ActionLinkRevoked            = "link_revoked"
	ActionLinkExpirationChanged  = "link_expiration_changed"
	ActionQuestionnaireSaved     = "questionnaire_saved"
	ActionQuestionnaireValidated = "questionnaire_validated"
	ActionContractGenerated      = "contract_generated"
	ActionContractUpdated        = "contract_updated"
	ActionContractValidated      = "contract_validated"
	ActionContractRendered       = "contract_rendered"
	ActionContractSigned         = "contract_signed"
	ActionGalleryVisibilitySet   = "gallery_visibility_set"
	ActionPhotoUploaded          = "photo_uploaded"
	ActionDataExported           = "data_exported"
)

// Actor kinds.
const (
	ActorProvider = "provider"
	ActorClient   = "client"
	ActorSystem   = "system"
)

// Actor identifies who performed an action, with request origin details.
type Actor struct {
	Kind      string
	ID        string
	IP        string
	UserAgent string
}

// EntityRef points at the entity an entry concerns.
type EntityRef struct {
	Kind string
	ID   string
}

// Entry is a single immutable audit record.
type Entry struct {
	ID        int64
	LinkID    *uuid.UUID
	Actor     Actor
	Action    string
	Entity    EntityRef
	Metadata  map[string]string
	CreatedAt time.Time
}
