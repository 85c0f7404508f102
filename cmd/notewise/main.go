// Package main implements the entry point for the notewise server,
// which enhances user notes with web research and AI generation.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notewise/internal/api"
	"notewise/internal/backend"
	"notewise/internal/config"
	"notewise/internal/enhance"
	"notewise/internal/events"
	"notewise/internal/platform/logger"
	"notewise/internal/platform/postgres"
	"notewise/internal/store"
	"notewise/internal/task"
	"notewise/internal/websearch"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("notewise: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logHandler, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"backend", cfg.AI.Backend,
		"database_configured", cfg.Database.URL != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The provider is resolved before any task can run, so credential
	// problems surface here rather than inside a worker.
	provider, providerName, err := backend.Resolve(ctx, logHandler, cfg.AI)
	if err != nil {
		return fmt.Errorf("resolving AI backend: %w", err)
	}

	sessionStore, dbClose, err := setupSessionStore(ctx, cfg, logHandler)
	if err != nil {
		return err
	}
	defer dbClose()

	searcher := websearch.New(cfg.Search)
	factory := backend.NewFactory(providerName, provider, searcher)

	pool := task.NewPool(task.DefaultPoolConfig(), logHandler)
	pool.Start()
	defer pool.Stop()

	service := enhance.NewService(pool, factory, cfg.AI, logHandler, sessionStore)

	emitter := events.NewInMemoryEmitter(logHandler)
	emitter.RegisterHandler(events.NewAuditHandler(logHandler))
	router := api.NewRouter(
		api.NewEnhanceHandler(service, emitter),
		api.NewSessionHandler(sessionStore),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	return nil
}

// setupSessionStore picks the archive backend: PostgreSQL with
// migrations applied when a database URL is configured, in-memory
// otherwise.
func setupSessionStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.SessionStore, func(), error) {
	if cfg.Database.URL == "" {
		slog.Info("no database configured, archiving sessions in memory")
		return store.NewMemorySessionStore(), func() {}, nil
	}

	db, err := postgres.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := postgres.Migrate(db, log); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database connection established")

	return postgres.NewSessionStore(db), func() { _ = db.Close() }, nil
}
