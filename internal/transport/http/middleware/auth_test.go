package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cashflow-api/internal/config"
	"github.com/cashflow-api/internal/domain"
	jwtinfra "github.com/cashflow-api/internal/infrastructure/jwt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret"

func newTestProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	p, err := jwtinfra.NewProvider(&config.Config{
		JWTSecret:        testSecret,
		JWTExpiry:        24 * time.Hour,
		ResetTokenExpiry: time.Hour,
	})
	require.NoError(t, err)
	return p
}

type stubUsers map[string]*domain.User

func (s stubUsers) Get(_ context.Context, userID string) (*domain.User, error) {
	if u, ok := s[userID]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

type failingUsers struct{}

func (failingUsers) Get(context.Context, string) (*domain.User, error) {
	return nil, errors.New("connection reset")
}

var knownUsers = stubUsers{"u1": {UserID: "u1", Email: "ana@example.com"}}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func serve(t *testing.T, h http.Handler, authz string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func TestAuth_MissingHeader(t *testing.T) {
	rr := serve(t, Auth(newTestProvider(t), knownUsers)(http.HandlerFunc(okHandler)), "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "No token provided", errorMessage(t, rr))
}

func TestAuth_NonBearerScheme(t *testing.T) {
	rr := serve(t, Auth(newTestProvider(t), knownUsers)(http.HandlerFunc(okHandler)), "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "No token provided", errorMessage(t, rr))
}

func TestAuth_BadToken(t *testing.T) {
	rr := serve(t, Auth(newTestProvider(t), knownUsers)(http.HandlerFunc(okHandler)), "Bearer not-a-real-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid token", errorMessage(t, rr))
}

func TestAuth_WrongSecret(t *testing.T) {
	claims := &jwtinfra.Claims{
		UserID:  "u1",
		Purpose: jwtinfra.PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	rr := serve(t, Auth(newTestProvider(t), knownUsers)(http.HandlerFunc(okHandler)), "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid token", errorMessage(t, rr))
}

func TestAuth_ExpiredToken(t *testing.T) {
	claims := &jwtinfra.Claims{
		UserID:  "u1",
		Purpose: jwtinfra.PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-25 * time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rr := serve(t, Auth(newTestProvider(t), knownUsers)(http.HandlerFunc(okHandler)), "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Token expired", errorMessage(t, rr))
}

func TestAuth_ResetTokenRejected(t *testing.T) {
	p := newTestProvider(t)
	signed, _, err := p.SignReset("u1")
	require.NoError(t, err)

	rr := serve(t, Auth(p, knownUsers)(http.HandlerFunc(okHandler)), "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_UnknownIdentity(t *testing.T) {
	p := newTestProvider(t)
	signed, err := p.Sign("ghost", "ghost@example.com")
	require.NoError(t, err)

	rr := serve(t, Auth(p, knownUsers)(http.HandlerFunc(okHandler)), "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid token", errorMessage(t, rr))
}

func TestAuth_StoreFailure(t *testing.T) {
	p := newTestProvider(t)
	signed, err := p.Sign("u1", "ana@example.com")
	require.NoError(t, err)

	rr := serve(t, Auth(p, failingUsers{})(http.HandlerFunc(okHandler)), "Bearer "+signed)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "server error", errorMessage(t, rr))
}

func TestAuth_ValidToken_InjectsIdentity(t *testing.T) {
	p := newTestProvider(t)
	signed, err := p.Sign("u1", "stale@example.com")
	require.NoError(t, err)

	var got domain.Identity
	var found bool
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := serve(t, Auth(p, knownUsers)(capture), "Bearer "+signed)
	assert.Equal(t, http.StatusOK, rr.Code)
	require.True(t, found)
	assert.Equal(t, "u1", got.UserID)
	// email comes from the stored credential, not the token
	assert.Equal(t, "ana@example.com", got.Email)
}

func TestAuthenticate_ClassifiesFailures(t *testing.T) {
	p := newTestProvider(t)
	reset, _, err := p.SignReset("u1")
	require.NoError(t, err)
	ghost, err := p.Sign("ghost", "ghost@example.com")
	require.NoError(t, err)

	tests := []struct {
		name  string
		authz string
		want  error
	}{
		{"no header", "", domain.ErrMissingToken},
		{"empty bearer", "Bearer ", domain.ErrMissingToken},
		{"garbage", "Bearer nope", domain.ErrInvalidToken},
		{"reset purpose", "Bearer " + reset, domain.ErrInvalidToken},
		{"deleted subject", "Bearer " + ghost, domain.ErrUnknownIdentity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authz != "" {
				req.Header.Set("Authorization", tt.authz)
			}
			_, err := authenticate(req, p, knownUsers)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthenticate_StoreFailureIsNotARejection(t *testing.T) {
	p := newTestProvider(t)
	signed, err := p.Sign("u1", "ana@example.com")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	_, err = authenticate(req, p, failingUsers{})
	require.Error(t, err)
	for _, f := range authFailures {
		assert.NotErrorIs(t, err, f.err)
	}
}

func TestAuth_ResetTokenMessage(t *testing.T) {
	p := newTestProvider(t)
	signed, _, err := p.SignReset("u1")
	require.NoError(t, err)

	rr := serve(t, Auth(p, knownUsers)(http.HandlerFunc(okHandler)), "Bearer "+signed)
	assert.Equal(t, "Invalid token", errorMessage(t, rr))
}

func TestIdentityFromContext_Absent(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)
}

func TestClientInfo_AttachesAddressAndAgent(t *testing.T) {
	var got domain.ClientInfo
	h := ClientInfo(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = domain.ClientFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:40000"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	req.Header.Set("User-Agent", "curl/8.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.9", got.IPAddress)
	assert.Equal(t, "curl/8.0", got.UserAgent)
}
