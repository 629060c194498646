// Package main запускает HTTP-сервер страницы вале.
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

	"github.com/mmeshcher/vales-contigo/internal/config"
	"github.com/mmeshcher/vales-contigo/internal/handler"
	"github.com/mmeshcher/vales-contigo/internal/middleware"
	"github.com/mmeshcher/vales-contigo/internal/repository"
	"github.com/mmeshcher/vales-contigo/internal/service"
)

func newRepository(cfg *config.Config) (service.Repository, error) {
	if cfg.DatabaseURI != "" {
		return repository.NewPostgresRepository(cfg.DatabaseURI)
	}
	return repository.NewFileRepository(cfg.StateDir)
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := newRepository(cfg)
	if err != nil {
		sugar.Fatalw("state store initialization error", "error", err.Error())
	}

	svc := service.NewService(repo, service.Options{
		Variant:     cfg.PageVariant(),
		ExpectedPIN: cfg.ExpectedPIN,
	})
	defer svc.Close()

	sessions := middleware.NewSessionMiddleware(cfg.SessionSecret)
	h := handler.NewHandler(svc, logger, sessions)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting vales server",
			"addr", cfg.RunAddress,
			"variant", cfg.PageVariant(),
			"postgres", cfg.DatabaseURI != "",
			"state_dir", cfg.StateDir,
		)
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
