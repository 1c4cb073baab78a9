package password

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cashflow-api/internal/domain"
	jwtinfra "github.com/cashflow-api/internal/infrastructure/jwt"
	"github.com/cashflow-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type ForgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

type Service interface {
	// ForgotPassword stores a reset token on the user and emails a link to it.
	ForgotPassword(ctx context.Context, req ForgotRequest) error
	ResetPassword(ctx context.Context, req ResetRequest) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User, fields ...domain.UserField) error
}

type tokenProvider interface {
	SignReset(userID string) (string, time.Time, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type activityLogger interface {
	Log(ctx context.Context, userID, action, details string)
}

type service struct {
	users      userStore
	tokens     tokenProvider
	mailer     mailer
	activity   activityLogger
	clientURL  string
	now        func() time.Time
	bcryptCost int
}

type ServiceDeps struct {
	UserRepo    userStore
	JWTProvider tokenProvider
	Mailer      mailer
	Activity    activityLogger
	ClientURL   string
	Now         func() time.Time
	BcryptCost  int
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &service{
		users:      deps.UserRepo,
		tokens:     deps.JWTProvider,
		mailer:     deps.Mailer,
		activity:   deps.Activity,
		clientURL:  strings.TrimRight(deps.ClientURL, "/"),
		now:        now,
		bcryptCost: cost,
	}
}

func (s *service) ForgotPassword(ctx context.Context, req ForgotRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	token, expiresAt, err := s.tokens.SignReset(u.UserID)
	if err != nil {
		return err
	}
	expiresAt = expiresAt.UTC()
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiresAt
	if err := s.users.Update(ctx, u, domain.FieldResetToken, domain.FieldResetTokenExpiry); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := s.clientURL + "/reset-password?token=" + url.QueryEscape(token)
	body := fmt.Sprintf("Hello %s,\n\nUse the link below to reset your password. It expires in one hour.\n\n%s\n\nIf you did not request this, ignore this email.\n", u.FirstName, link)
	if err := s.mailer.SendEmail(u.Email, "Password Reset Request", body); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	s.activity.Log(ctx, u.UserID, domain.ActionForgotPassword, "Password reset requested")
	return nil
}

func (s *service) ResetPassword(ctx context.Context, req ResetRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	u, err := s.userForToken(ctx, req.Token)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	if err := s.users.Update(ctx, u, domain.FieldPasswordHash, domain.FieldResetToken, domain.FieldResetTokenExpiry); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	s.activity.Log(ctx, u.UserID, domain.ActionPasswordReset, "Password reset")
	return nil
}

// userForToken accepts only the most recently issued, unexpired reset token
// of the user it names.
func (s *service) userForToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidResetToken)
	}
	if claims.Purpose != jwtinfra.PurposeReset {
		return nil, fmt.Errorf("token purpose %q: %w", claims.Purpose, domain.ErrInvalidResetToken)
	}
	u, err := s.users.Get(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("reset token subject gone: %w", domain.ErrInvalidResetToken)
	}
	if err != nil {
		return nil, err
	}
	if u.ResetToken == nil || *u.ResetToken != token {
		return nil, fmt.Errorf("reset token superseded: %w", domain.ErrInvalidResetToken)
	}
	if u.ResetTokenExpiry == nil || !s.now().Before(*u.ResetTokenExpiry) {
		return nil, fmt.Errorf("reset token expired: %w", domain.ErrInvalidResetToken)
	}
	return u, nil
}
