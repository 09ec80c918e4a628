// Package link issues and validates the opaque access tokens that gate every
// external-party operation.
package link

import (
	"time"

	"github.com/google/uuid"
)

// AccessLink pairs a provider with an external client behind an opaque token.
// Links are never deleted: the audit trail references them. The only mutations
// are revocation, expiry changes, and the last-access touch.
type AccessLink struct {
	ID             uuid.UUID
	ProviderID     uuid.UUID
	ClientID       uuid.UUID
	Token          string
	EventTypeID    *uuid.UUID
	TemplateID     *uuid.UUID
	ExpiresAt      *time.Time
	Revoked        bool
	LastAccessedAt *time.Time
	CreatedAt      time.Time
}

// IsUsable reports whether the link can gate portal access at the given time:
// not revoked and either unexpiring or not yet expired.
func (l AccessLink) IsUsable(now time.Time) bool {
	if l.Revoked {
		return false
	}
	if l.ExpiresAt != nil && !l.ExpiresAt.After(now) {
		return false
	}
	return true
}
