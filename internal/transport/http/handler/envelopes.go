package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cashflow-api/internal/domain"
)

const maxJSONBody = 1 << 20

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterEnvelope is returned when a pending registration is accepted.
type RegisterEnvelope struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// VerifyEnvelope wraps verify-email responses. Failures carry success=false.
type VerifyEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	User    *domain.UserSummary `json:"user,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// LoginEnvelope wraps login responses.
type LoginEnvelope struct {
	Token string             `json:"token"`
	User  domain.UserSummary `json:"user"`
}

// UserEnvelope wraps profile mutations.
type UserEnvelope struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

type HealthEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty request body: %w", domain.ErrValidation)
		}
		return fmt.Errorf("invalid request body: %w", domain.ErrValidation)
	}
	return nil
}
