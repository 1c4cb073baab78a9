package handler

import (
	"net/http"

	"github.com/cashflow-api/internal/application/password"
	"github.com/cashflow-api/internal/application/registration"
	"github.com/cashflow-api/internal/application/session"
	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/pkg/device"
)

// AuthHandler handles the public /auth endpoints: registration, login and
// password recovery.
type AuthHandler struct {
	registration registration.Service
	sessions     session.Service
	passwords    password.Service
}

func NewAuthHandler(reg registration.Service, sess session.Service, pwd password.Service) *AuthHandler {
	return &AuthHandler{registration: reg, sessions: sess, passwords: pwd}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	userID, err := h.registration.Register(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterEnvelope{
		Message: "Registration initiated. Please check your email for OTP.",
		UserID:  userID,
	})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req registration.VerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.verifyFailed(w, r, err)
		return
	}
	u, err := h.registration.Verify(r.Context(), req)
	if err != nil {
		h.verifyFailed(w, r, err)
		return
	}
	summary := u.Summary()
	writeJSON(w, http.StatusOK, VerifyEnvelope{
		Success: true,
		Message: "Email verified successfully",
		User:    &summary,
	})
}

func (h *AuthHandler) verifyFailed(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		respondError(w, r, err)
		return
	}
	writeJSON(w, status, VerifyEnvelope{Success: false, Error: msg})
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req registration.ResendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.registration.Resend(r.Context(), req); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP sent successfully"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	result, err := h.sessions.Login(r.Context(), req, device.FromRequest(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginEnvelope{Token: result.Token, User: result.User})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req password.ForgotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.passwords.ForgotPassword(r.Context(), req); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password reset instructions sent to email"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req password.ResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.passwords.ResetPassword(r.Context(), req); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password reset successfully"})
}
