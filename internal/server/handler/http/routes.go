// Package http provides HTTP routing and middleware configuration
// for the signup service.
package http

import (
	"net/http"

	"github.com/atinyakov/signupform/internal/metrics"
	"github.com/atinyakov/signupform/internal/middleware"
	"github.com/atinyakov/signupform/internal/views"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves
// the signup flow.
//
// Parameters:
//
//	signupHandler - handler for the signup, success and lookup endpoints
//	limiter       - rate limiter for the lookup endpoint; nil disables it
//	m             - metrics updated by the rate limiter; may be nil
//	gatherer      - registry exposed on /metrics
//	logger        - structured logger for request logging middleware
//	trustProxy    - take the client address from X-Forwarded-For / X-Real-IP;
//	                enable only behind a proxy that sets these headers
//
// Routes:
//
//	GET  /            → redirect to /signup
//	GET  /signup      → signupHandler.GetSignUp
//	POST /signup      → signupHandler.PostSignUp (form-encoded bodies only)
//	GET  /success     → signupHandler.GetSuccess
//	GET  /getCheckID  → signupHandler.GetCheckID (rate limited)
//	GET  /static/*    → embedded signup page script
//	GET  /metrics     → Prometheus exposition
func NewRouter(
	signupHandler *SignupHandler,
	limiter middleware.Limiter,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
	trustProxy bool,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	if trustProxy {
		r.Use(chiMiddleware.RealIP)
	}
	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/signup", http.StatusFound)
	})

	r.Route("/signup", func(r chi.Router) {
		r.Get("/", signupHandler.GetSignUp)
		r.With(chiMiddleware.AllowContentType("application/x-www-form-urlencoded")).
			Post("/", signupHandler.PostSignUp)
	})
	r.Get("/success", signupHandler.GetSuccess)
	r.Handle(views.StaticPrefix+"*", views.Static())

	r.With(middleware.RateLimit(limiter, logger, m.IncrementRateLimited)).
		Get("/getCheckID", signupHandler.GetCheckID)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
