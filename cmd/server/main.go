package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"vigil/internal/app"
	calhandler "vigil/internal/calibration/handler"
	crisishandler "vigil/internal/crisis/handler"
	decisionhandler "vigil/internal/decision/handler"
	notifyhandler "vigil/internal/notification/handler"
	"vigil/internal/platform/config"
	"vigil/internal/platform/httpserver"
	"vigil/internal/platform/logger"
	"vigil/internal/platform/metrics"
	"vigil/internal/platform/middleware"
	"vigil/internal/platform/middleware/auth"
	"vigil/pkg/platform/httputil"
)

var version = "dev"

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.New(config.DefaultConfig().Log).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)
	metrics.New(version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	a.RunBackground(ctx)

	srv := httpserver.New(cfg.Server.Addr, newRouter(a))
	log.Info("starting vigil", "addr", cfg.Server.Addr, "env", cfg.Server.Environment, "version", version)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("vigil stopped")
}

func newRouter(a *app.App) http.Handler {
	log := a.Logger
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestContext)
	r.Use(middleware.AccessLog(log))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireScope(a.Tokens, auth.ScopeIntake, log))
		decisionhandler.New(a.Decision, log).Register(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireScope(a.Tokens, auth.ScopeAdmin, log))
		calhandler.New(a.Profiles, log).Register(r)
		crisishandler.New(a.Allowlist, log).Register(r)
		notifyhandler.New(a.Digests, a.Releaser, log).Register(r)
	})
	return r
}
