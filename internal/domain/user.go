package domain

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User is the durable credential record.
type User struct {
	UserID           string     `json:"id" dynamodbav:"user_id"`
	Email            string     `json:"email" dynamodbav:"email"`
	PasswordHash     string     `json:"-" dynamodbav:"password_hash"`
	FirstName        string     `json:"firstName" dynamodbav:"first_name"`
	LastName         string     `json:"lastName" dynamodbav:"last_name"`
	Phone            string     `json:"phone" dynamodbav:"phone"`
	IsVerified       bool       `json:"isVerified" dynamodbav:"is_verified"`
	Status           string     `json:"status" dynamodbav:"status"`
	ProfileImage     *string    `json:"profileImage,omitempty" dynamodbav:"profile_image"`
	PendingEmail     *string    `json:"-" dynamodbav:"pending_email"`
	EmailOTP         *string    `json:"-" dynamodbav:"email_otp"`
	EmailOTPExpiry   *time.Time `json:"-" dynamodbav:"email_otp_expiry"`
	ResetToken       *string    `json:"-" dynamodbav:"reset_token"`
	ResetTokenExpiry *time.Time `json:"-" dynamodbav:"reset_token_expiry"`
	CreatedAt        time.Time  `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" dynamodbav:"updated_at"`
}

// UserField names a mutable column of User. Values match the stored
// attribute and column names.
type UserField string

const (
	FieldFirstName        UserField = "first_name"
	FieldLastName         UserField = "last_name"
	FieldPhone            UserField = "phone"
	FieldPasswordHash     UserField = "password_hash"
	FieldProfileImage     UserField = "profile_image"
	FieldPendingEmail     UserField = "pending_email"
	FieldEmailOTP         UserField = "email_otp"
	FieldEmailOTPExpiry   UserField = "email_otp_expiry"
	FieldResetToken       UserField = "reset_token"
	FieldResetTokenExpiry UserField = "reset_token_expiry"
)

// Value returns the current value of f on u, or false for an unknown field.
func (u *User) Value(f UserField) (interface{}, bool) {
	switch f {
	case FieldFirstName:
		return u.FirstName, true
	case FieldLastName:
		return u.LastName, true
	case FieldPhone:
		return u.Phone, true
	case FieldPasswordHash:
		return u.PasswordHash, true
	case FieldProfileImage:
		return u.ProfileImage, true
	case FieldPendingEmail:
		return u.PendingEmail, true
	case FieldEmailOTP:
		return u.EmailOTP, true
	case FieldEmailOTPExpiry:
		return u.EmailOTPExpiry, true
	case FieldResetToken:
		return u.ResetToken, true
	case FieldResetTokenExpiry:
		return u.ResetTokenExpiry, true
	}
	return nil, false
}

// UserSummary is the public projection returned by auth endpoints.
type UserSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:          u.UserID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.Phone,
	}
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone" validate:"required,e164"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName       *string `json:"firstName" validate:"omitempty,min=2,max=50"`
	LastName        *string `json:"lastName" validate:"omitempty,min=2,max=50"`
	Phone           *string `json:"phone" validate:"omitempty,e164"`
	CurrentPassword *string `json:"currentPassword"`
	NewPassword     *string `json:"newPassword" validate:"omitempty,min=6,max=30"`
}

type EmailChangeRequest struct {
	NewEmail        string `json:"newEmail" validate:"required,email"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
}
