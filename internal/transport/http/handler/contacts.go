package handler

import (
	"net/http"

	"github.com/cashflow-api/internal/application/contact"
	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// ContactHandler serves one address book; the router mounts one per kind.
type ContactHandler struct {
	svc  contact.Service
	kind domain.ContactKind
	noun string
}

func NewContactHandler(svc contact.Service, kind domain.ContactKind) *ContactHandler {
	noun := "Customer"
	if kind == domain.KindVendor {
		noun = "Vendor"
	}
	return &ContactHandler{svc: svc, kind: kind, noun: noun}
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	contacts, err := h.svc.List(r.Context(), id.UserID, h.kind)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req domain.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := h.svc.Create(r.Context(), id.UserID, h.kind, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req domain.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := h.svc.Update(r.Context(), id.UserID, h.kind, chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), id.UserID, h.kind, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: h.noun + " deleted successfully"})
}
