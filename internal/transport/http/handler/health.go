package handler

import "net/http"

// HealthHandler handles the liveness endpoint.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthEnvelope{Status: "ok", Message: "API is running"})
}
