// Package requestcontext carries per-request metadata (request ID, client IP,
// user agent, authenticated provider) through context so services can enrich
// audit entries and signature records without depending on net/http.
package requestcontext

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}
type clientMetadataKey struct{}
type providerIDKey struct{}

// ClientMetadata captures request origin details used for signature records
// and audit entries.
type ClientMetadata struct {
	IP        string
	UserAgent string
}

// WithRequestID returns a context carrying the given request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID retrieves the request ID from the context, or "" when absent.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithClientMetadata returns a context carrying client IP and user agent.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientMetadataKey{}, ClientMetadata{IP: ip, UserAgent: userAgent})
}

// GetClientMetadata retrieves client metadata from the context.
func GetClientMetadata(ctx context.Context) ClientMetadata {
	if md, ok := ctx.Value(clientMetadataKey{}).(ClientMetadata); ok {
		return md
	}
	return ClientMetadata{}
}

// WithProviderID returns a context carrying the authenticated provider ID.
func WithProviderID(ctx context.Context, providerID uuid.UUID) context.Context {
	return context.WithValue(ctx, providerIDKey{}, providerID)
}

// ProviderID retrieves the authenticated provider ID, or uuid.Nil when absent.
func ProviderID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(providerIDKey{}).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
