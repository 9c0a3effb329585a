package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todo-api/internal/config"
	"todo-api/internal/logging"
	"todo-api/internal/metrics"
	"todo-api/internal/repositories"
	"todo-api/internal/routes"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Fatal: Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("Fatal: Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	gin.SetMode(cfg.GinMode)

	// ストアは起動時に1つだけ作成し、すべてのリクエストで共有する
	store := repositories.NewInMemoryTaskStore()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	r := routes.SetupRouter(store, routes.Options{
		AllowOrigins: cfg.AllowOrigins,
		Logger:       logger,
		Metrics:      m,
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
