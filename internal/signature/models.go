// Package signature captures electronic signatures and seals the signed
// document with its content digest.
package signature

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies which party a signature belongs to. One signature per
// (contract, role).
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
)

// Record is an immutable signature. DocumentHash is the hex SHA-256 of the
// rendered PDF bytes at signing time; AuditToken is an opaque reference
// printed on the attestation page.
type Record struct {
	ID           uuid.UUID
	ContractID   uuid.UUID
	Role         Role
	Payload      string
	DocumentHash string
	AuditToken   string
	IP           string
	UserAgent    string
	SignedAt     time.Time
}
