package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cashflow-api/internal/domain"
)

var authFailures = []struct {
	err error
	msg string
}{
	{domain.ErrMissingToken, "No token provided"},
	{domain.ErrTokenExpired, "Token expired"},
	{domain.ErrInvalidToken, "Invalid token"},
	{domain.ErrUnknownIdentity, "Invalid token"},
}

// writeAuthError answers a rejected request with 401 and the message for its
// sentinel. Anything else is logged and reported as a 500.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	for _, f := range authFailures {
		if errors.Is(err, f.err) {
			writeJSONError(w, http.StatusUnauthorized, f.msg)
			return
		}
	}
	slog.Error("auth failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeJSONError(w, http.StatusInternalServerError, "server error")
}

// writeJSONError writes a JSON-encoded error response with the correct Content-Type.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
