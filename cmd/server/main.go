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

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lawdesk/internal/app"
	"lawdesk/internal/config"
	"lawdesk/internal/handler"
	"lawdesk/internal/logging"
	"lawdesk/internal/repository/postgres"
	"lawdesk/internal/router"
	"lawdesk/internal/service"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.Log)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	log := logrus.NewEntry(logger)
	importSvc, err := app.NewImportService(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	authSvc := service.NewAuthService(postgres.NewUserRepo(db), cfg.JWT)

	importH := handler.NewImportHandler(importSvc, cfg.Import.MaxFileSizeBytes())
	healthH := handler.NewHealthHandler(func(ctx context.Context) error { return postgres.Ping(ctx, db) })

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router.Setup(logger, cfg.CORS.AllowedOrigins, authSvc, importH, healthH),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
