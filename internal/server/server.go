// Package server exposes the working session as a JSON API for dashboards.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/eshop-analytics/internal/geo"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	eshopmiddleware "github.com/Veraticus/eshop-analytics/internal/server/middleware"
	"github.com/Veraticus/eshop-analytics/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

// WebAPI is the HTTP front of a session.
type WebAPI struct {
	router          *chi.Mux
	logger          *slog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

// Dependencies are the collaborators the handlers read and mutate.
type Dependencies struct {
	Session *session.Session
	Geo     *geo.Table
}

// Config configures the listener and the import defaults.
type Config struct {
	Dependencies    Dependencies
	Addr            string
	ImportMode      pipeline.MergeMode
	ShutdownTimeout time.Duration
	ImportChunkSize int
}

// NewWebAPI wires the routes.
func NewWebAPI(logger *slog.Logger, config Config) *WebAPI {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	h := NewHandler(config.Dependencies.Session, config.Dependencies.Geo, config.ImportMode, config.ImportChunkSize)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(eshopmiddleware.Logger(logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Get("/records", h.ListRecords)
		r.Post("/records", h.CreateRecord)
		r.Get("/records/{id}", h.GetRecord)
		r.Put("/records/{id}", h.UpdateRecord)
		r.Patch("/records/{id}", h.UpdateRecord)
		r.Delete("/records/{id}", h.DeleteRecord)

		r.Post("/imports", h.Import)

		r.Get("/customers", h.Customers)
		r.Get("/regions", h.Regions)
		r.Get("/items", h.Items)
		r.Get("/metrics", h.Metrics)
		r.Get("/trend", h.Trend)
	})

	return &WebAPI{
		router:          router,
		logger:          logger,
		shutdownTimeout: config.ShutdownTimeout,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the routed handler, for tests and embedding.
func (w *WebAPI) Handler() http.Handler {
	return w.router
}

// Start serves until ctx is cancelled, then gives outstanding requests
// ShutdownTimeout to finish.
func (w *WebAPI) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		w.logger.Info("starting server", "addr", w.server.Addr)
		if err := w.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		w.logger.Info("shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		if err := w.server.Shutdown(shutdownCtx); err != nil {
			w.logger.Error("graceful shutdown failed", "error", err)
			return w.server.Close()
		}
		return nil
	})

	return g.Wait()
}
