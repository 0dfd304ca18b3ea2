// Package main запускает HTTP-сервер сервиса кошелька баллов.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/points-wallet/internal/auth"
	"github.com/mmeshcher/points-wallet/internal/config"
	"github.com/mmeshcher/points-wallet/internal/handler"
	"github.com/mmeshcher/points-wallet/internal/logger"
	"github.com/mmeshcher/points-wallet/internal/middleware"
	"github.com/mmeshcher/points-wallet/internal/model"
	"github.com/mmeshcher/points-wallet/internal/repository"
	"github.com/mmeshcher/points-wallet/internal/service"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	sugar := log.Sugar()

	repo, err := newRepository(cfg, log)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	if cfg.JWTSecret == "" {
		sugar.Warn("JWT_SECRET is not set, tokens will not survive a restart")
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	svc := service.NewService(repo, tokens, log, cfg.ProtectedEmails)
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.EnsureSeedAccounts(ctx, seedAccounts(cfg)); err != nil {
		sugar.Fatalw("seed accounts error", "error", err.Error())
	}

	authMiddleware := middleware.NewAuthMiddleware(tokens).WithUserLookup(svc)
	h := handler.NewHandler(svc, log, authMiddleware, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting points wallet server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func newRepository(cfg *config.Config, log *zap.Logger) (service.Repository, error) {
	if cfg.DatabaseURI == "" {
		log.Warn("DATABASE_URI is not set, using in-memory store")
		return repository.NewMemoryRepository(), nil
	}
	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func seedAccounts(cfg *config.Config) []service.SeedAccount {
	return []service.SeedAccount{
		{Name: "Administrator", Email: "admin@admin.com", Password: cfg.SeedAdminPassword, Role: model.RoleAdmin},
		{Name: "Default user", Email: "user@user.com", Password: cfg.SeedUserPassword, Role: model.RoleUser},
	}
}
