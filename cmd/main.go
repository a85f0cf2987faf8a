package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/kartcup/internal/adapters/http/api"
	"github.com/okian/kartcup/internal/adapters/repository"
	service "github.com/okian/kartcup/internal/app"
	"github.com/okian/kartcup/internal/config"
	"github.com/okian/kartcup/internal/domain/rules"
	"github.com/okian/kartcup/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr since the logger isn't available yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	handler, err := newHandler(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build service", logger.Error(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.Store))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info(ctx, "shutting down server...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// newHandler builds the store, service and router described by cfg.
func newHandler(ctx context.Context, cfg *config.Config, log logger.Logger) (http.Handler, error) {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	set, err := rules.FromConfig(cfg.QualificationRounds, cfg.FinalsTargets)
	if err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	svc, err := service.New(store, store,
		service.WithLogger(log.Named("service")),
		service.WithRules(set),
		service.WithMaxAttempts(cfg.MaxUpdateAttempts),
		service.WithBracketSize(cfg.BracketSize),
	)
	if err != nil {
		return nil, err
	}
	return api.NewServer(svc, api.WithLogger(log.Named("api"))).Router(), nil
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := repository.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return repository.NewGormStore(ctx, db, repository.WithLogger(log.Named("gormstore")))
	default:
		return repository.NewMemoryStore(repository.WithLogger(log.Named("memstore"))), nil
	}
}
