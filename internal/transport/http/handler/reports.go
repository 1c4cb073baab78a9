package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/cashflow-api/internal/application/report"
	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

type ReportHandler struct {
	svc report.Service
}

func NewReportHandler(svc report.Service) *ReportHandler { return &ReportHandler{svc: svc} }

// Transactions serves /reports/{type}: "received" lists sales, anything else
// payments.
func (h *ReportHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		respondError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", report.DefaultLimit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	rep, err := h.svc.Transactions(r.Context(), id.UserID, chi.URLParam(r, "type"), domain.ReportQuery{
		DateRange: q.Get("dateRange"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		Search:    q.Get("search"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, domain.ErrValidation)
	}
	return n, nil
}
