package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// RateLimit rejects requests with 429 and a JSON error body once the client's
// address has used up its allowance. The address is r.RemoteAddr, so
// forwarded headers count only when a proxy-aware middleware has rewritten it.
// A nil limiter disables limiting. Limiter errors are logged and the request
// is let through.
func RateLimit(limiter Limiter, logger *zap.Logger, onLimited func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			ok, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				if onLimited != nil {
					onLimited()
				}
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, errorResponse{Error: "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
