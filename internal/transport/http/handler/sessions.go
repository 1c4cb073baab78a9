package handler

import (
	"net/http"

	"github.com/cashflow-api/internal/application/session"
	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// SessionHandler handles the authenticated session endpoints.
type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	sessions, err := h.svc.List(r.Context(), id.UserID, r.URL.Query().Get("range"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *SessionHandler) Terminate(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := h.svc.Terminate(r.Context(), id.UserID, chi.URLParam(r, "sessionId")); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Session terminated successfully"})
}
