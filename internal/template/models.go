// Package template manages contract templates and provider-defined custom
// variables. Templates hold raw markup with {{placeholder}} tokens; resolution
// order and ownership rules live in Resolve.
package template

import (
	"time"

	"github.com/google/uuid"
)

// ContractTemplate is a reusable contract body. A nil ProviderID marks a
// system-owned template, which is immutable and undeletable. A nil EventTypeID
// makes the template generic (usable for any event type).
type ContractTemplate struct {
	ID          uuid.UUID
	ProviderID  *uuid.UUID
	EventTypeID *uuid.UUID
	Name        string
	Body        string
	Priority    int
	CreatedAt   time.Time
}

// SystemOwned reports whether the template ships with the platform rather
// than belonging to a provider.
func (t ContractTemplate) SystemOwned() bool {
	return t.ProviderID == nil
}

// OwnedBy reports whether the given provider may edit or delete the template.
func (t ContractTemplate) OwnedBy(providerID uuid.UUID) bool {
	return t.ProviderID != nil && *t.ProviderID == providerID
}

// MatchesEventType reports whether the template applies to the given event
// type. Generic templates match everything.
func (t ContractTemplate) MatchesEventType(eventTypeID *uuid.UUID) bool {
	if t.EventTypeID == nil {
		return true
	}
	return eventTypeID != nil && *t.EventTypeID == *eventTypeID
}

// CustomVariable is a provider-defined key with a default value. Keys are
// unique per provider and substituted last during contract generation.
type CustomVariable struct {
	ID           uuid.UUID
	ProviderID   uuid.UUID
	Key          string
	DefaultValue string
}
