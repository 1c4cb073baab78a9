package handler

import (
	"net/http"

	"github.com/cashflow-api/internal/application/dashboard"
	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/transport/http/middleware"
)

type DashboardHandler struct {
	svc dashboard.Service
}

func NewDashboardHandler(svc dashboard.Service) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	stats, err := h.svc.Stats(r.Context(), id.UserID, r.URL.Query().Get("period"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) Recent(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	limit, err := queryInt(r, "limit", dashboard.DefaultRecent)
	if err != nil {
		respondError(w, r, err)
		return
	}
	recent, err := h.svc.Recent(r.Context(), id.UserID, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if recent == nil {
		recent = []domain.RecentTransaction{}
	}
	writeJSON(w, http.StatusOK, recent)
}
