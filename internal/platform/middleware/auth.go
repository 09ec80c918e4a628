package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"lumina/internal/platform/requestcontext"
)

// ProviderClaims are the JWT claims carried by provider API tokens.
type ProviderClaims struct {
	jwt.RegisteredClaims
}

// ProviderAuth validates provider bearer tokens (HS256 JWT, sub = provider ID)
// and places the provider ID into the request context. Portal routes are token
// gated separately and do not use this middleware.
type ProviderAuth struct {
	signingKey []byte
	logger     *slog.Logger
}

// NewProviderAuth creates the provider auth middleware.
func NewProviderAuth(signingKey string, logger *slog.Logger) *ProviderAuth {
	return &ProviderAuth{signingKey: []byte(signingKey), logger: logger}
}

// Handler rejects requests without a valid provider bearer token.
func (a *ProviderAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		raw, ok := bearerToken(r)
		if !ok {
			a.logger.WarnContext(ctx, "unauthorized access - missing bearer token",
				"request_id", requestID,
				"path", r.URL.Path,
			)
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		providerID, err := a.parse(raw)
		if err != nil {
			a.logger.WarnContext(ctx, "unauthorized access - invalid bearer token",
				"request_id", requestID,
				"error", err,
			)
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "invalid bearer token")
			return
		}

		next.ServeHTTP(w, r.WithContext(requestcontext.WithProviderID(ctx, providerID)))
	})
}

func (a *ProviderAuth) parse(raw string) (uuid.UUID, error) {
	var claims ProviderClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}

	providerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject: %w", err)
	}
	return providerID, nil
}

// MintProviderToken issues an HS256 provider token. Shared with cmd/keygen so
// local tooling and the middleware agree on claims.
func MintProviderToken(signingKey string, providerID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ProviderClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   providerID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(signingKey))
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":%q,"error_description":%q}`, errCode, errDesc))
}
