package handler

import (
	"errors"
	"net/http"

	"github.com/cashflow-api/internal/application/profile"
	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/transport/http/middleware"
)

const (
	imageField = "profileImage"
	// multipart framing allowance on top of the image itself
	multipartOverhead = 1 << 20
)

// ProfileHandler handles the caller's own profile, email change and image.
type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler { return &ProfileHandler{svc: svc} }

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	u, err := h.svc.Get(r.Context(), id.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req domain.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	u, err := h.svc.Update(r.Context(), id.UserID, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Message: "Profile updated successfully", User: u})
}

func (h *ProfileHandler) RequestEmailChange(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req domain.EmailChangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.svc.RequestEmailChange(r.Context(), id.UserID, req); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Verification code sent to new email address"})
}

func (h *ProfileHandler) VerifyEmailChange(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req profile.VerifyEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	u, err := h.svc.VerifyEmailChange(r.Context(), id.UserID, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Message: "Email updated successfully", User: u})
}

func (h *ProfileHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, profile.MaxImageSize+multipartOverhead)
	if err := r.ParseMultipartForm(profile.MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "File too large. Maximum size is 5MB.")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, _, err := r.FormFile(imageField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image uploaded")
		return
	}
	defer f.Close()

	u, err := h.svc.UploadImage(r.Context(), id.UserID, f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Message: "Profile image updated successfully", User: u})
}
