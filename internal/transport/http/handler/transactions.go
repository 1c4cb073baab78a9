package handler

import (
	"fmt"
	"net/http"

	"github.com/cashflow-api/internal/application/transaction"
	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/pkg/timerange"
	"github.com/cashflow-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

type TransactionHandler struct {
	svc transaction.Service
}

func NewTransactionHandler(svc transaction.Service) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

// List accepts optional type, startDate and endDate query parameters.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	q := r.URL.Query()
	f := domain.TransactionFilter{Type: q.Get("type")}
	if f.Type != "" && f.Type != domain.TransactionPayment && f.Type != domain.TransactionSale {
		respondError(w, r, fmt.Errorf("type must be payment or sale: %w", domain.ErrValidation))
		return
	}
	var err error
	if f.From, f.To, err = timerange.Bounds(q.Get("startDate"), q.Get("endDate")); err != nil {
		respondError(w, r, err)
		return
	}
	txs, err := h.svc.List(r.Context(), id.UserID, f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if txs == nil {
		txs = []domain.TransactionDetail{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *TransactionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	from, to, err := timerange.Bounds(r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	sum, err := h.svc.Summary(r.Context(), id.UserID, from, to)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	t, err := h.svc.Get(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req domain.TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	t, err := h.svc.Create(r.Context(), id.UserID, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req domain.TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	t, err := h.svc.Update(r.Context(), id.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Transaction deleted successfully"})
}
