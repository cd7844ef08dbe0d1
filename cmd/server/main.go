package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	revenueapp "github.com/athlo/dashboard/internal/application/revenue"
	"github.com/athlo/dashboard/internal/infrastructure/config"
	"github.com/athlo/dashboard/internal/infrastructure/export"
	"github.com/athlo/dashboard/internal/infrastructure/logger"
	"github.com/athlo/dashboard/internal/infrastructure/reporting"
	"github.com/athlo/dashboard/internal/interfaces/http/handler"
	"github.com/athlo/dashboard/internal/interfaces/http/middleware"
	"github.com/athlo/dashboard/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Athlo revenue dashboard",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Reporting API client
	client, err := reporting.NewClient(reporting.ClientConfig{
		BaseURL:               cfg.Reporting.BaseURL,
		Timeout:               cfg.Reporting.Timeout,
		AggregateRateFallback: cfg.Commission.AggregateRateFallback,
	}, log.Named("reporting"))
	if err != nil {
		log.Fatal("Failed to create reporting client", zap.Error(err))
	}

	// Application services
	viewService := revenueapp.NewViewService(client, revenueapp.ViewServiceConfig{
		SilentFailureThreshold: cfg.Reporting.SilentFailureThreshold,
	}, log.Named("view"))
	chartService := revenueapp.NewChartService()

	formatterConfig := export.FormatterConfig{
		ProductName:     cfg.Export.ProductName,
		TransactionRate: cfg.Commission.TransactionRate,
		RecentLimit:     cfg.Export.RecentLimit,
	}
	csvFormatter := export.NewCSVFormatter(formatterConfig)
	workbookFactory := func() (revenueapp.Formatter, error) {
		return export.NewWorkbookFormatter(formatterConfig)
	}
	exportService := revenueapp.NewExportService(
		viewService, csvFormatter, workbookFactory, cfg.Export.FilePrefix, log.Named("export"))

	// Background poller refreshes the current filter silently
	poller := reporting.NewPoller(reporting.PollerConfig{
		Enabled:  cfg.Reporting.PollEnabled,
		Interval: cfg.Reporting.PollInterval,
	}, viewService, log.Named("poller"))
	poller.Start(context.Background())

	// HTTP surface
	revenueHandler := handler.NewRevenueHandler(viewService, chartService, exportService)
	engine := router.New(router.Config{
		Env:            cfg.App.Env,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           middleware.DefaultCORSConfig(),
	}, log, revenueHandler)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := poller.Stop(ctx); err != nil {
		log.Warn("Poller stop timed out", zap.Error(err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
