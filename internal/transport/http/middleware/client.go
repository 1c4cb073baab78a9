package middleware

import (
	"net/http"

	"github.com/cashflow-api/internal/domain"
	"github.com/cashflow-api/internal/pkg/device"
)

// ClientInfo records the caller's address and user agent in the request
// context for activity logging.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := domain.WithClient(r.Context(), domain.ClientInfo{
			IPAddress: device.ClientIP(r),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
