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

	"github.com/gin-gonic/gin"

	"invoiceai/internal/config"
	"invoiceai/internal/handler"
	"invoiceai/internal/ocr"
	"invoiceai/internal/parser"
	_ "invoiceai/internal/parser/openai"
	"invoiceai/internal/router"
	"invoiceai/internal/service"
	"invoiceai/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appLog := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// A missing API key degrades the service instead of stopping it.
	configErr := cfg.Validate()
	if configErr != nil {
		appLog.Warn("config.invalid", "error", configErr)
	}

	if err := os.MkdirAll(cfg.Upload.Dir, 0o750); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Initialize engines, constructed once and shared across requests
	textExtractor := ocr.NewExtractor(&cfg.OCR, appLog)
	invoiceExtractor, err := parser.NewExtractor(&cfg.Completion, appLog)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}

	// Initialize services
	extractionSvc := service.NewExtractionService(
		textExtractor, invoiceExtractor,
		&cfg.Upload, &cfg.Reconcile,
		configErr, appLog,
	)

	// Initialize handlers
	extractH := handler.NewExtractionHandler(extractionSvc, cfg.Upload.MaxBytes())
	healthH := handler.NewHealthHandler(configErr)

	// Setup router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.Setup(cfg, extractH, healthH, appLog)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("server.start",
			"addr", cfg.Server.Port,
			"provider", cfg.Completion.Provider,
			"api_configured", configErr == nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		appLog.Info("server.shutdown", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server.stopped")
	return nil
}
