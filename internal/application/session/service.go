package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/pkg/timerange"
	"github.com/cashflow-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type LoginResult struct {
	Token   string
	User    domain.UserSummary
	Session *domain.Session
}

type Service interface {
	Login(ctx context.Context, req domain.LoginRequest, fp domain.Fingerprint) (*LoginResult, error)
	// RecordLogin refreshes the caller's active session for fp or opens a new one.
	RecordLogin(ctx context.Context, userID string, fp domain.Fingerprint) (*domain.Session, error)
	List(ctx context.Context, userID, rangeName string) ([]domain.Session, error)
	Terminate(ctx context.Context, userID, sessionID string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type sessionStore interface {
	Upsert(ctx context.Context, userID string, fp domain.Fingerprint, now time.Time) (*domain.Session, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID string, since *time.Time) ([]domain.Session, error)
	Deactivate(ctx context.Context, s *domain.Session) error
}

type tokenSigner interface {
	Sign(userID, email string) (string, error)
}

type activityLogger interface {
	Log(ctx context.Context, userID, action, details string)
}

type service struct {
	users    userStore
	sessions sessionStore
	tokens   tokenSigner
	activity activityLogger
	now      func() time.Time
}

type ServiceDeps struct {
	UserRepo    userStore
	SessionRepo sessionStore
	JWTProvider tokenSigner
	Activity    activityLogger
	Now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:    deps.UserRepo,
		sessions: deps.SessionRepo,
		tokens:   deps.JWTProvider,
		activity: deps.Activity,
		now:      now,
	}
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest, fp domain.Fingerprint) (*LoginResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("unknown email: %w", domain.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("password mismatch: %w", domain.ErrInvalidCredentials)
	}
	if !u.IsVerified {
		return nil, fmt.Errorf("user %s: %w", u.UserID, domain.ErrUnverified)
	}

	token, err := s.tokens.Sign(u.UserID, u.Email)
	if err != nil {
		return nil, err
	}
	sess, err := s.RecordLogin(ctx, u.UserID, fp)
	if err != nil {
		return nil, err
	}
	s.activity.Log(ctx, u.UserID, domain.ActionLogin,
		fmt.Sprintf("Logged in from %s (%s, %s)", fp.DeviceName, fp.Browser, fp.OperatingSystem))

	return &LoginResult{Token: token, User: u.Summary(), Session: sess}, nil
}

func (s *service) RecordLogin(ctx context.Context, userID string, fp domain.Fingerprint) (*domain.Session, error) {
	sess, err := s.sessions.Upsert(ctx, userID, fp, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}
	return sess, nil
}

func (s *service) List(ctx context.Context, userID, rangeName string) ([]domain.Session, error) {
	since, err := timerange.Since(rangeName, s.now().UTC())
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListByUser(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Terminate deactivates one of the caller's sessions. Sessions owned by
// someone else are reported as not found. Terminating an inactive session is
// a no-op.
func (s *service) Terminate(ctx context.Context, userID, sessionID string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.UserID != userID {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	if !sess.Active() {
		return nil
	}
	if err := s.sessions.Deactivate(ctx, sess); err != nil {
		return err
	}
	s.activity.Log(ctx, userID, domain.ActionSessionTerminated,
		fmt.Sprintf("Terminated session on %s (%s)", sess.DeviceName, sess.Browser))
	return nil
}
