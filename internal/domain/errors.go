package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrValidation            = errors.New("validation failed")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrNoPendingRegistration = errors.New("no pending registration")
	ErrInvalidOTP            = errors.New("invalid otp")
	ErrOTPExpired            = errors.New("otp expired")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUnverified            = errors.New("email not verified")
	ErrMissingToken          = errors.New("missing token")
	ErrInvalidToken          = errors.New("invalid token")
	ErrTokenExpired          = errors.New("token expired")
	ErrUnknownIdentity       = errors.New("unknown identity")
	ErrNotFound              = errors.New("not found")
	ErrInvalidResetToken     = errors.New("invalid or expired reset token")
	ErrNoPendingEmailChange  = errors.New("no pending email change")
	ErrUnsupportedMedia      = errors.New("unsupported media")
	ErrContactEmailTaken     = errors.New("contact email already in use")
	ErrDuplicateTag          = errors.New("tag name already exists")
)

// Resource-specific not-found errors. Each also matches ErrNotFound.
var (
	ErrCustomerNotFound    = fmt.Errorf("customer: %w", ErrNotFound)
	ErrVendorNotFound      = fmt.Errorf("vendor: %w", ErrNotFound)
	ErrTagNotFound         = fmt.Errorf("tag: %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction: %w", ErrNotFound)
)
