// Package party exposes read access to provider and client rows. Full
// client/session CRUD lives outside this service; the document engine only
// consumes names and contact details for contract generation and ownership
// checks.
package party

import (
	"time"

	"github.com/google/uuid"
)

// Provider is the issuing side of an access link.
type Provider struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Address    string
	Phone      string
	SecretHash string
	CreatedAt  time.Time
}

// Client is the external party an access link is issued to.
type Client struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	Name       string
	Email      string
	Address    string
	Phone      string
	CreatedAt  time.Time
}
