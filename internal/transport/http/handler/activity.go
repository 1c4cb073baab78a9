package handler

import (
	"net/http"

	"github.com/cashflow-api/internal/application/activity"
	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/transport/http/middleware"
)

type ActivityHandler struct {
	svc activity.Service
}

func NewActivityHandler(svc activity.Service) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	logs, err := h.svc.List(r.Context(), id.UserID, r.URL.Query().Get("range"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if logs == nil {
		logs = []domain.Activity{}
	}
	writeJSON(w, http.StatusOK, logs)
}
