package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/amqp"
	"bilancio/internal/backup"
	"bilancio/internal/config"
	"bilancio/internal/core"
	apphttp "bilancio/internal/http"
	"bilancio/internal/ledger"
	"bilancio/internal/ledger/memory"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	locale := core.ItalianLocale()
	if cfg.Locale == "en" {
		locale = core.EnglishLocale()
	}

	var store ledger.Store
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store = repo
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	default:
		store = memory.NewStore()
		logger.Info("Initialized memory backend")
	}

	// The invalidation bus is optional: with no AMQP URL the service
	// still works, it just skips publishing change events.
	var bus services.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without change events", "error", err)
		} else {
			defer client.Close()
			bus = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	service := services.NewLedgerService(store, bus, locale)

	var uploader backup.Uploader
	if cfg.DriveFolderID != "" {
		du, err := backup.NewDriveUploader(context.Background(), cfg.DriveFolderID, cfg.DriveCredentialsFile, cfg.DriveCredentialsJSON)
		if err != nil {
			logger.Error("Failed to initialize Drive uploader", "error", err)
			os.Exit(1)
		}
		uploader = du
	}
	backupSvc := backup.NewService(store, cfg.BackupPath, uploader)

	srv := apphttp.NewServer(service, apphttp.Options{
		Addr:      ":" + cfg.Port,
		Backup:    backupSvc,
		Locale:    locale,
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Once a minute, check whether a transaction dated today still has
	// a timestamp ahead of the clock; if so the cached views go stale.
	refresher := services.NewRefresher(
		service.ListTransactions,
		func(context.Context) { srv.InvalidateCaches() },
		cfg.RefreshInterval,
	)
	go func() {
		if err := refresher.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("Refresh loop failed", "error", err)
		}
	}()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting bilancio server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
