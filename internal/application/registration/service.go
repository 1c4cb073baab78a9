package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/pkg/id"
	"github.com/cashflow-api/internal/pkg/otp"
	"github.com/cashflow-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

type ResendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type Service interface {
	// Register stores an unconfirmed signup and sends its code. It returns
	// the id the user will keep once verified.
	Register(ctx context.Context, req domain.RegisterRequest) (string, error)
	Verify(ctx context.Context, req VerifyRequest) (*domain.User, error)
	Resend(ctx context.Context, req ResendRequest) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

type activityLogger interface {
	Log(ctx context.Context, userID, action, details string)
}

type service struct {
	users      userStore
	cache      *Cache
	issuer     *Issuer
	activity   activityLogger
	otpTTL     time.Duration
	resendTTL  time.Duration
	now        func() time.Time
	bcryptCost int
}

type ServiceDeps struct {
	UserRepo  userStore
	Cache     *Cache
	Mailer    mailer
	SMSSender smsSender // optional
	Activity  activityLogger
	OTPTTL    time.Duration
	ResendTTL time.Duration
	// Now and GenerateOTP default to time.Now and otp.Generate.
	Now         func() time.Time
	GenerateOTP func() (string, error)
	BcryptCost  int
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	generate := deps.GenerateOTP
	if generate == nil {
		generate = otp.Generate
	}
	cache := deps.Cache
	if cache == nil {
		cache = NewCache()
	}
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &service{
		users: deps.UserRepo,
		cache: cache,
		issuer: &Issuer{
			cache:    cache,
			mailer:   deps.Mailer,
			sms:      deps.SMSSender,
			generate: generate,
			now:      now,
		},
		activity:   deps.Activity,
		otpTTL:     deps.OTPTTL,
		resendTTL:  deps.ResendTTL,
		now:        now,
		bcryptCost: cost,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (string, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return "", err
	}
	if err := s.ensureUnregistered(ctx, req.Email); err != nil {
		return "", err
	}

	p := domain.PendingRegistration{
		ID:        id.NewUUID(),
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}
	p, err := s.issuer.Issue(ctx, p, s.otpTTL)
	var de *deliveryError
	switch {
	case errors.As(err, &de):
		// The entry is stored; the caller can ask for a resend.
		slog.Error("failed to deliver registration code", "email", p.Email, "err", err)
	case err != nil:
		return "", err
	}
	return p.ID, nil
}

func (s *service) Verify(ctx context.Context, req VerifyRequest) (*domain.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	p, err := s.cache.Claim(req.Email, req.OTP, s.now())
	if err != nil {
		return nil, err
	}

	u, err := s.promote(ctx, p)
	if err != nil {
		if !errors.Is(err, domain.ErrDuplicateEmail) && s.cache.Restore(p) {
			slog.Warn("promotion failed, pending registration restored", "email", p.Email, "err", err)
		}
		return nil, err
	}
	s.activity.Log(ctx, u.UserID, domain.ActionEmailVerified, "Email address verified")
	return u, nil
}

func (s *service) Resend(ctx context.Context, req ResendRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return err
	}
	return s.issuer.Reissue(ctx, req.Email, s.resendTTL)
}

func (s *service) promote(ctx context.Context, p domain.PendingRegistration) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:       p.ID,
		Email:        p.Email,
		PasswordHash: string(hash),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Phone:        p.Phone,
		IsVerified:   true,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) ensureUnregistered(ctx context.Context, email string) error {
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return fmt.Errorf("email %s already registered: %w", email, domain.ErrDuplicateEmail)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("lookup user: %w", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
