package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	adapthttp "wearables/internal/adapter/http"
	"wearables/internal/adapter/memory"
	"wearables/internal/adapter/postgres"
	"wearables/internal/app"
	"wearables/internal/config"
	"wearables/internal/domain"
	"wearables/internal/logger"
	"wearables/internal/observability"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// storage is what the services need from a persistence backend.
type storage interface {
	domain.UnitOfWork
	domain.SummaryRepository
	domain.AccountRepository
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wearables: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStorage(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics := observability.New()
	tokens := app.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	agg := app.NewAggregationService(store, log, metrics)

	srv := adapthttp.New(
		app.NewAuthService(store, tokens, log),
		app.NewIngestService(store, agg, log, metrics),
		agg,
		app.NewQueryService(store),
		log,
		metrics,
	)
	if cfg.SSOEnabled() {
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		if err != nil {
			return err
		}
		srv.WithOIDC(oidcCfg)
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr, "storage", cfg.Storage, "sso", cfg.SSOEnabled())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStorage(cfg *config.Config, log *logger.Logger) (storage, func(), error) {
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		return memory.New(), func() {}, nil
	default:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db open: %w", err)
		}
		return db, func() { _ = db.Close() }, nil
	}
}
