package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cashflow-api/internal/domain"
)

var errorResponses = []struct {
	err    error
	status int
	msg    string
}{
	{domain.ErrDuplicateEmail, http.StatusBadRequest, "Email already registered"},
	{domain.ErrNoPendingRegistration, http.StatusBadRequest, "Invalid or expired registration attempt. Please register again."},
	{domain.ErrInvalidOTP, http.StatusBadRequest, "Invalid OTP. Please check and try again."},
	{domain.ErrOTPExpired, http.StatusBadRequest, "OTP has expired. Please request a new one."},
	{domain.ErrInvalidResetToken, http.StatusBadRequest, "Invalid or expired reset token"},
	{domain.ErrNoPendingEmailChange, http.StatusBadRequest, "No pending email change found"},
	{domain.ErrUnsupportedMedia, http.StatusBadRequest, "Invalid file type. Only JPEG, PNG and GIF are allowed."},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{domain.ErrUnverified, http.StatusUnauthorized, "Please verify your email first"},
	{domain.ErrContactEmailTaken, http.StatusBadRequest, "Email already in use"},
	{domain.ErrDuplicateTag, http.StatusBadRequest, "Tag with this name already exists"},
	{domain.ErrCustomerNotFound, http.StatusNotFound, "Customer not found"},
	{domain.ErrVendorNotFound, http.StatusNotFound, "Vendor not found"},
	{domain.ErrTagNotFound, http.StatusNotFound, "Tag not found"},
	{domain.ErrTransactionNotFound, http.StatusNotFound, "Transaction not found"},
	{domain.ErrNotFound, http.StatusNotFound, "Not found"},
}

// statusFor maps a service error onto the HTTP status and client-facing
// message. Validation errors expose their field detail; unrecognised errors
// become a generic 500.
func statusFor(err error) (int, string) {
	if errors.Is(err, domain.ErrValidation) {
		return http.StatusBadRequest, err.Error()
	}
	for _, e := range errorResponses {
		if errors.Is(err, e.err) {
			return e.status, e.msg
		}
	}
	return http.StatusInternalServerError, "server error"
}

// respondError writes err using statusFor. Server errors are logged with
// their detail, which the client never sees.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeError(w, status, msg)
}

func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }
