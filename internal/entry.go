// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/articlegen/internal/api"
	"github.com/starford/articlegen/internal/articles"
	"github.com/starford/articlegen/internal/auth"
	"github.com/starford/articlegen/internal/generation"
	"github.com/starford/articlegen/internal/images"
	"github.com/starford/articlegen/internal/index"
	"github.com/starford/articlegen/internal/mcpserver"
	"github.com/starford/articlegen/internal/sse"
	"github.com/starford/articlegen/internal/storage"
	"github.com/starford/articlegen/internal/wizard"
)

const tokenPruneInterval = time.Hour

// services is everything built from the configuration that both the HTTP
// server and the MCP server need.
type services struct {
	logger   *slog.Logger
	store    *storage.FS
	db       *index.DB
	auth     *auth.Service
	articles *articles.Service
	images   *images.Store
}

func (s *services) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("close index failed", slog.String("error", err.Error()))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("close storage failed", slog.String("error", err.Error()))
	}
}

func setup(ctx context.Context, app *application, notifier articles.ChangeNotifier) (*services, error) {
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	var out io.Writer = os.Stdout
	if app.logOutput != nil {
		out = app.logOutput
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("images_path", cfg.Storage.ImagesPath),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("generation_provider", cfg.Generation.Provider),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init index: %w", err)
	}

	// Pick up files that changed while the service was down.
	if err := index.Sync(ctx, db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return &services{
		logger: logger,
		store:  store,
		db:     db,
		auth: auth.NewService(db, auth.Settings{
			Secret:      cfg.Auth.JWTSecret,
			TokenTTL:    cfg.Auth.TokenTTL,
			RememberTTL: cfg.Auth.RememberTTL,
			BcryptCost:  cfg.Auth.BcryptCost,
		}),
		articles: articles.NewService(store, db, cfg.Publish.BaseURL, notifier),
		images:   images.NewStore(cfg.Storage.ImagesPath),
	}, nil
}

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	// SSE broker: wizard notifications and article change events.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, err := setup(ctx, app, broker)
	if err != nil {
		return err
	}
	defer svc.Close()

	cfg := app.config
	logger := svc.logger

	gen, err := generation.New(cfg.Generation.Settings())
	if err != nil {
		return fmt.Errorf("init generation: %w", err)
	}

	wizards := wizard.NewRegistry(gen, svc.articles, broker, wizard.Timeouts{
		Generation: cfg.Generation.Timeout,
		Publish:    cfg.Publish.Timeout,
	}, cfg.Wizard.SessionTTL)

	apiRouter := api.NewRouter(api.Deps{
		Auth:     svc.auth,
		Articles: svc.articles,
		Wizards:  wizards,
		Broker:   broker,
		Images:   svc.images,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.NotFound(api.NotFound)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := svc.db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher; edits made outside the service reach the owner's
	// dashboard over SSE.
	g.Go(func() error {
		err := index.Watch(gCtx, svc.db, svc.store, svc.store.Root(), logger, func(c index.Change) {
			kind := articles.KindSaved
			if c.Kind == index.ChangeDeleted {
				kind = articles.KindDeleted
			}
			broker.ArticleChanged(c.OwnerID, c.ID, kind)
		})
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Expire idle wizard sessions.
	g.Go(func() error {
		return wizards.Run(gCtx)
	})

	// Drop revocations of tokens that have expired anyway.
	g.Go(func() error {
		ticker := time.NewTicker(tokenPruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case now := <-ticker.C:
				n, err := svc.db.PruneRevokedTokens(gCtx, now)
				if err != nil {
					logger.Warn("prune revoked tokens failed", slog.String("error", err.Error()))
				} else if n > 0 {
					logger.Info("pruned revoked tokens", slog.Int64("count", n))
				}
			}
		}
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Close SSE streams first so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the background loops stop with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio on behalf of the account with
// ownerEmail.
func RunMCP(ctx context.Context, ownerEmail string, opts ...Option) error {
	app := &application{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}

	svc, err := setup(ctx, app, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	owner, err := svc.auth.UserByEmail(ctx, ownerEmail)
	if err != nil {
		return fmt.Errorf("resolve owner %q: %w", ownerEmail, err)
	}

	svc.logger.Info("MCP server starting", slog.String("owner", owner.Email))
	return mcpserver.New(svc.articles, svc.images, owner.ID).ServeStdio()
}
