// Package secrets provides generation and verification of opaque credentials:
// portal access tokens handed to external parties and provider API secrets.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	dErrors "lumina/pkg/domain-errors"
)

// tokenRandomBytes is the amount of additional entropy appended to the uuid
// part of an access token. 16 bytes keeps the token comfortably above the
// 128-bit unguessability floor even if the uuid were fully known.
const tokenRandomBytes = 16

// GenerateToken creates an opaque portal access token: a random identifier
// concatenated with cryptographically random bytes, hex-encoded. Tokens are
// unique with overwhelming probability and carry no structure a caller could
// exploit.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate token entropy")
	}
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return id + hex.EncodeToString(buf), nil
}

// SHA256Hex returns the hex-encoded SHA-256 digest of content. Used to seal
// document bytes at signature time.
func SHA256Hex(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Generate creates a cryptographically secure random secret.
// Returns a base64-encoded string suitable for provider API secrets.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash creates a bcrypt hash of the provided secret.
// Use this to securely store secrets for later verification.
func Hash(secret string) (string, error) {
	if secret == "" {
		return "", dErrors.New(dErrors.CodeValidation, "secret cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "secret is too long")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not hash secret")
	}
	return string(hashed), nil
}

// Verify checks if a plaintext secret matches a bcrypt hash.
func Verify(secret, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid secret")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not verify secret")
	}
	return nil
}
