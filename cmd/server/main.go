// Package main initializes and starts the signup server, setting up
// configuration, logging, the user store, rate limiting, metrics, services,
// handlers and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/signupform/internal/config"
	"github.com/atinyakov/signupform/internal/db"
	"github.com/atinyakov/signupform/internal/logger"
	"github.com/atinyakov/signupform/internal/metrics"
	"github.com/atinyakov/signupform/internal/middleware"
	"github.com/atinyakov/signupform/internal/ratelimit"
	"github.com/atinyakov/signupform/internal/repository"
	"github.com/atinyakov/signupform/internal/rules"
	"github.com/atinyakov/signupform/internal/server/handler/http"
	"github.com/atinyakov/signupform/internal/service"
	"github.com/atinyakov/signupform/internal/views"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pick the user store: PostgreSQL when a DSN is given, memory otherwise.
	var userRepo service.UserRepository
	if options.DatabaseDSN != "" {
		postgresDB, err := db.InitPostgres(ctx, options.DatabaseDriver, options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer postgresDB.Close()
		userRepo = repository.NewPostgresUserRepository(postgresDB)
	} else {
		zapLogger.Warn("no database DSN configured, users are kept in memory")
		userRepo = repository.NewMemoryUserRepository()
	}

	// Rate limit id number lookups when Redis is configured.
	var limiter middleware.Limiter
	redisClient, err := db.InitRedis(ctx, options.RedisURL)
	if err != nil {
		zapLogger.Fatal("cannot init redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		limiter = ratelimit.New(redisClient, options.RateLimit, options.RateWindow.Duration)
	}

	// Metrics registry shared by the counters and the /metrics endpoint.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	ruleSet := rules.Default()
	signupService := service.NewSignupService(userRepo, ruleSet, m)

	pages, err := views.New(ruleSet)
	if err != nil {
		zapLogger.Fatal("cannot parse templates", zap.Error(err))
	}

	signupHandler := &http.SignupHandler{
		SignupService: signupService,
		Views:         pages,
		Logger:        zapLogger,
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(signupHandler, limiter, m, registry, zapLogger, options.TrustProxy)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if options.TLSEnabled() {
			server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
			err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
		} else {
			zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
			err = server.ListenAndServe()
		}
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}
