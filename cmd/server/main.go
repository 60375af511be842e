package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/liorbh/folio/internal/catalog"
	"github.com/liorbh/folio/internal/config"
	"github.com/liorbh/folio/internal/db"
	"github.com/liorbh/folio/internal/logging"
	"github.com/liorbh/folio/internal/migrations"
	"github.com/liorbh/folio/internal/rates"
	"github.com/liorbh/folio/internal/seed"
)

type server struct {
	db    *sql.DB
	store *catalog.Store
	auth  *authService
	log   *zap.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	if cfg.SessionSecret == "" {
		if !cfg.IsDev() {
			logger.Fatal("SESSION_SECRET is required outside local development")
		}
		logger.Warn("SESSION_SECRET is not set; sessions will not survive restarts")
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}

	stats, err := seed.Run(database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		logger.Fatal("failed to seed database", zap.Error(err))
	}
	if stats.Inserts > 0 {
		logger.Info("seeded catalog defaults", zap.Int("inserts", stats.Inserts))
	}

	store := catalog.New(database)
	auth := newAuthService(database, cfg.SessionSecret)
	srv := &server{db: database, store: store, auth: auth, log: logger}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.RatesURL != "" {
		fetcher := rates.New(cfg.RatesURL, cfg.RatesInterval, store, logger)
		go fetcher.Run(ctx)
	} else {
		logger.Info("RATES_URL not set; exchange rates are admin-managed only")
	}

	r := chi.NewRouter()
	r.Post("/login", srv.handleLogin)
	r.Post("/logout", srv.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Get("/model", srv.handleModel)
		r.Post("/estimate", srv.handleEstimate)
		r.Post("/intake", srv.handleIntakeCreate)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(srv.requireAuth)

		r.Get("/settings", srv.handleSettingsGet)
		r.Post("/settings", srv.handleSettingsUpdate)

		r.Get("/project-types", srv.handleProjectTypesList)
		r.Post("/project-types", srv.handleProjectTypeCreate)
		r.Post("/project-types/{id}", srv.handleProjectTypeUpdate)

		r.Get("/features", srv.handleFeaturesList)
		r.Post("/features", srv.handleFeatureCreate)
		r.Post("/features/{id}", srv.handleFeatureUpdate)

		r.Get("/multipliers", srv.handleMultipliersList)
		r.Post("/multipliers", srv.handleMultiplierCreate)
		r.Post("/multipliers/{id}", srv.handleMultiplierUpdate)

		r.Get("/discounts", srv.handleDiscountsList)
		r.Post("/discounts", srv.handleDiscountCreate)
		r.Post("/discounts/{id}", srv.handleDiscountUpdate)

		r.Get("/rates", srv.handleRatesList)
		r.Post("/rates", srv.handleRateUpsert)

		r.Get("/intakes", srv.handleIntakesList)
		r.Get("/intakes/{id}", srv.handleIntakeDetail)
		r.Post("/intakes/{id}/status", srv.handleIntakeStatus)
		r.Post("/intakes/{id}/notes", srv.handleIntakeNotes)
	})

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr))
	if err := serve(ctx, addr, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server stopped")
}

// serve runs the HTTP server until ctx is canceled, then drains in-flight
// requests before returning so deferred cleanup in main still runs.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
