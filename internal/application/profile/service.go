package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/pkg/id"
	"github.com/cashflow-api/internal/pkg/otp"
	"github.com/cashflow-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// MaxImageSize is the largest accepted profile image, in bytes.
const MaxImageSize = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

type VerifyEmailRequest struct {
	OTP string `json:"otp" validate:"required"`
}

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
	RequestEmailChange(ctx context.Context, userID string, req domain.EmailChangeRequest) error
	VerifyEmailChange(ctx context.Context, userID string, req VerifyEmailRequest) (*domain.User, error)
	// UploadImage stores r (at most MaxImageSize bytes) as the user's picture.
	UploadImage(ctx context.Context, userID string, r io.Reader) (*domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User, fields ...domain.UserField) error
	ChangeEmail(ctx context.Context, u *domain.User, previous string) error
}

type imageStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, location string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type activityLogger interface {
	Log(ctx context.Context, userID, action, details string)
}

type service struct {
	users       userStore
	images      imageStore
	mailer      mailer
	activity    activityLogger
	emailOTPTTL time.Duration
	generate    func() (string, error)
	now         func() time.Time
	bcryptCost  int
}

type ServiceDeps struct {
	UserRepo    userStore
	ImageStore  imageStore
	Mailer      mailer
	Activity    activityLogger
	EmailOTPTTL time.Duration
	GenerateOTP func() (string, error)
	Now         func() time.Time
	BcryptCost  int
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		users:       deps.UserRepo,
		images:      deps.ImageStore,
		mailer:      deps.Mailer,
		activity:    deps.Activity,
		emailOTPTTL: deps.EmailOTPTTL,
		generate:    deps.GenerateOTP,
		now:         deps.Now,
		bcryptCost:  deps.BcryptCost,
	}
	if s.generate == nil {
		s.generate = otp.Generate
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = bcrypt.DefaultCost
	}
	return s
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.NewPassword != nil && (req.CurrentPassword == nil || *req.CurrentPassword == "") {
		return nil, fmt.Errorf("currentPassword is required to set a new password: %w", domain.ErrValidation)
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		changed []string
		fields  []domain.UserField
	)
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
		changed = append(changed, "firstName")
		fields = append(fields, domain.FieldFirstName)
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
		changed = append(changed, "lastName")
		fields = append(fields, domain.FieldLastName)
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
		changed = append(changed, "phone")
		fields = append(fields, domain.FieldPhone)
	}
	if req.NewPassword != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(*req.CurrentPassword)); err != nil {
			return nil, fmt.Errorf("current password mismatch: %w", domain.ErrInvalidCredentials)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.NewPassword), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
		changed = append(changed, "password")
		fields = append(fields, domain.FieldPasswordHash)
	}
	if len(fields) == 0 {
		return u, nil
	}

	if err := s.users.Update(ctx, u, fields...); err != nil {
		return nil, err
	}
	s.activity.Log(ctx, userID, domain.ActionProfileUpdated, "Updated "+strings.Join(changed, ", "))
	return u, nil
}

func (s *service) RequestEmailChange(ctx context.Context, userID string, req domain.EmailChangeRequest) error {
	req.NewEmail = strings.ToLower(strings.TrimSpace(req.NewEmail))
	if err := validate.Struct(req); err != nil {
		return err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if req.NewEmail == u.Email {
		return fmt.Errorf("new email matches the current one: %w", domain.ErrValidation)
	}
	switch _, err := s.users.GetByEmail(ctx, req.NewEmail); {
	case err == nil:
		return fmt.Errorf("email %s already registered: %w", req.NewEmail, domain.ErrDuplicateEmail)
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fmt.Errorf("current password mismatch: %w", domain.ErrInvalidCredentials)
	}

	code, err := s.generate()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.emailOTPTTL).UTC()
	u.PendingEmail = &req.NewEmail
	u.EmailOTP = &code
	u.EmailOTPExpiry = &expiresAt
	if err := s.users.Update(ctx, u, domain.FieldPendingEmail, domain.FieldEmailOTP, domain.FieldEmailOTPExpiry); err != nil {
		return err
	}

	minutes := int(s.emailOTPTTL.Minutes())
	body := fmt.Sprintf("Hello %s,\n\nYour email change verification code is %s. It expires in %d minutes.\n", u.FirstName, code, minutes)
	if err := s.mailer.SendEmail(req.NewEmail, "Email Change Verification", body); err != nil {
		return fmt.Errorf("send email change code: %w", err)
	}
	return nil
}

func (s *service) VerifyEmailChange(ctx context.Context, userID string, req VerifyEmailRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.PendingEmail == nil || u.EmailOTP == nil || u.EmailOTPExpiry == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNoPendingEmailChange)
	}
	if !s.now().Before(*u.EmailOTPExpiry) {
		return nil, fmt.Errorf("email change code expired: %w", domain.ErrOTPExpired)
	}
	if *u.EmailOTP != req.OTP {
		return nil, fmt.Errorf("email change code mismatch: %w", domain.ErrInvalidOTP)
	}

	previous := u.Email
	u.Email = *u.PendingEmail
	u.PendingEmail = nil
	u.EmailOTP = nil
	u.EmailOTPExpiry = nil
	if err := s.users.ChangeEmail(ctx, u, previous); err != nil {
		return nil, err
	}
	s.activity.Log(ctx, userID, domain.ActionEmailChanged, fmt.Sprintf("Email changed from %s to %s", previous, u.Email))
	return u, nil
}

func (s *service) UploadImage(ctx context.Context, userID string, r io.Reader) (*domain.User, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no image uploaded: %w", domain.ErrValidation)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("image larger than %d bytes: %w", MaxImageSize, domain.ErrValidation)
	}
	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("content type %s: %w", contentType, domain.ErrUnsupportedMedia)
	}

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("profiles/%s/%s%s", userID, id.New(), ext)
	location, err := s.images.Upload(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		return nil, err
	}

	previous := u.ProfileImage
	u.ProfileImage = &location
	if err := s.users.Update(ctx, u, domain.FieldProfileImage); err != nil {
		return nil, err
	}
	if previous != nil {
		if err := s.images.Delete(ctx, *previous); err != nil {
			slog.Warn("failed to delete previous profile image", "user_id", userID, "location", *previous, "err", err)
		}
	}
	s.activity.Log(ctx, userID, domain.ActionProfileUpdated, "Updated profile image")
	return u, nil
}
