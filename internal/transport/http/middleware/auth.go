package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cashflow-api/internal/domain"
	jwtinfra "github.com/cashflow-api/internal/infrastructure/jwt"
)

type contextKey string

const IdentityKey contextKey = "identity"

type tokenVerifier interface {
	Verify(token string) (*jwtinfra.Claims, error)
}

type identityResolver interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Auth returns middleware that validates the Bearer JWT, resolves its subject
// to a stored user and injects the caller's domain.Identity into the context.
// It makes no authorization decisions.
func Auth(tokens tokenVerifier, users identityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticate(r, tokens, users)
			if err != nil {
				writeAuthError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), IdentityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate resolves the request's bearer token to a stored user. Rejections
// wrap domain.ErrMissingToken, ErrTokenExpired, ErrInvalidToken or
// ErrUnknownIdentity; any other error is a store failure.
func authenticate(r *http.Request, tokens tokenVerifier, users identityResolver) (domain.Identity, error) {
	tokenStr, ok := bearerToken(r)
	if !ok {
		return domain.Identity{}, domain.ErrMissingToken
	}
	claims, err := tokens.Verify(tokenStr)
	if err != nil {
		return domain.Identity{}, err
	}
	if claims.Purpose != jwtinfra.PurposeAccess {
		return domain.Identity{}, fmt.Errorf("token purpose %q: %w", claims.Purpose, domain.ErrInvalidToken)
	}
	u, err := users.Get(r.Context(), claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Identity{}, fmt.Errorf("subject %s: %w", claims.UserID, domain.ErrUnknownIdentity)
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("resolve identity %s: %w", claims.UserID, err)
	}
	return domain.Identity{UserID: u.UserID, Email: u.Email}, nil
}

// IdentityFromContext extracts the authenticated caller from the request context.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(domain.Identity)
	return id, ok
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}
