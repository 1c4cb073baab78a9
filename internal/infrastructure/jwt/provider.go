package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/cashflow-api/internal/config"
	"github.com/cashflow-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. Reset tokens must never pass the auth middleware.
const (
	PurposeAccess = "access"
	PurposeReset  = "reset"
)

// Claims holds the JWT payload fields.
type Claims struct {
	UserID  string `json:"id"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs with a shared secret.
type Provider struct {
	secret      []byte
	expiry      time.Duration
	resetExpiry time.Duration
	now         func() time.Time
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Provider{
		secret:      []byte(cfg.JWTSecret),
		expiry:      cfg.JWTExpiry,
		resetExpiry: cfg.ResetTokenExpiry,
		now:         time.Now,
	}, nil
}

// Sign issues an access token for the given user.
func (p *Provider) Sign(userID, email string) (string, error) {
	return p.sign(Claims{UserID: userID, Email: email, Purpose: PurposeAccess}, p.expiry)
}

// SignReset issues a short-lived password reset token and returns its expiry.
func (p *Provider) SignReset(userID string) (string, time.Time, error) {
	exp := p.now().Add(p.resetExpiry)
	tok, err := p.sign(Claims{UserID: userID, Purpose: PurposeReset}, p.resetExpiry)
	return tok, exp, err
}

func (p *Provider) sign(claims Claims, ttl time.Duration) (string, error) {
	now := p.now()
	claims.Subject = claims.UserID
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenStr and checks signature and expiry. Expired tokens
// yield domain.ErrTokenExpired; anything else wrong yields domain.ErrInvalidToken.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%v: %w", err, domain.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidToken)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token claims: %w", domain.ErrInvalidToken)
	}
	return claims, nil
}
