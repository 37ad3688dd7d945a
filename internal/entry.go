// Package internal wires configuration, logging and the long-running serve
// mode of gnotes.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/gnotes/internal/api"
	"github.com/starford/gnotes/internal/index"
	"github.com/starford/gnotes/internal/noteservice"
	"github.com/starford/gnotes/internal/sse"
	"github.com/starford/gnotes/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// OpenCatalog opens the catalog configured in cfg and brings it up to date
// with store.
func OpenCatalog(cfg IndexConfig, store storage.Provider, logger *slog.Logger) (*index.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := index.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if err := index.Sync(db, store, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("sync index: %w", err)
	}
	return db, nil
}

// NewRouter builds the HTTP handler of the serve mode: health probes plus
// the API mounted under /api.
func NewRouter(svc *noteservice.Service, cfg ServerConfig, broker http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	health := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
	r.Get("/health/live", health)
	r.Get("/health/ready", health)

	r.Mount("/api", api.NewRouter(svc, cfg.AuthEnabled(), cfg.Token, broker))
	return r
}

// Serve runs the HTTP API, the catalog watcher and the event stream until
// ctx is cancelled or SIGINT/SIGTERM arrives.
func Serve(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return errors.New("config is required")
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = NewLogger(cfg.Log, os.Stderr)
	}

	logger.Info("configuration loaded",
		slog.String("http_address", cfg.Server.Address()),
		slog.String("notes_dir", cfg.NotesDir),
		slog.String("index_path", cfg.Index.Path),
		slog.Bool("auth", cfg.Server.AuthEnabled()))

	if err := os.MkdirAll(cfg.NotesDir, 0o755); err != nil {
		return fmt.Errorf("create notes dir: %w", err)
	}
	store, err := storage.NewFS(cfg.NotesDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := OpenCatalog(cfg.Index, store, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	broker := sse.NewBroker(sse.DefaultSyncThrottle)
	defer broker.Close()

	svcOpts := append([]noteservice.Option{
		noteservice.WithCatalog(db),
		noteservice.WithLogger(logger),
	}, app.serviceOpts...)
	svc := noteservice.NewService(store, svcOpts...)

	httpServer := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           NewRouter(svc, cfg.Server, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return index.Watch(gCtx, db, store, logger, broker.PublishNoteEvent)
	})

	g.Go(func() error {
		logger.Info("starting HTTP server", slog.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("serve failed", slog.String("error", err.Error()))
		return err
	}
	logger.Info("server stopped")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")
