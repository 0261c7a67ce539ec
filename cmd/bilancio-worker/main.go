package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/backup"
	"bilancio/internal/config"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

// The worker consumes ledger change events and keeps a fresh snapshot
// on disk (and on Drive when configured). It runs beside the server
// against the same SQLite database.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting bilancio-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.DataBackend != "sqlite" {
		logger.Error("Worker requires the sqlite backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	var uploader backup.Uploader
	if cfg.DriveFolderID != "" {
		du, err := backup.NewDriveUploader(context.Background(), cfg.DriveFolderID, cfg.DriveCredentialsFile, cfg.DriveCredentialsJSON)
		if err != nil {
			logger.Error("Failed to initialize Drive uploader", "error", err)
			os.Exit(1)
		}
		uploader = du
		logger.Info("Drive uploads enabled", "folder_id", cfg.DriveFolderID)
	}
	backupSvc := backup.NewService(repo, cfg.BackupPath, uploader)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Consume change events; every change schedules a snapshot export.
	// Exports are debounced so a burst of changes produces one backup.
	pending := make(chan struct{}, 1)
	g.Go(func() error {
		err := amqpClient.ConsumeLedgerChanges(ctx, func(msg *amqp.LedgerChangedMessage) error {
			logger.InfoContext(ctx, "Ledger change received", "id", msg.ID, "kind", msg.Kind)
			select {
			case pending <- struct{}{}:
			default:
			}
			return nil
		})
		if err == context.Canceled {
			return nil
		}
		return err
	})

	// A transaction dated today can carry a timestamp ahead of the
	// clock; once it matures the snapshot on disk is stale too.
	refresher := services.NewRefresher(
		repo.List,
		func(context.Context) {
			select {
			case pending <- struct{}{}:
			default:
			}
		},
		cfg.RefreshInterval,
	)
	g.Go(func() error {
		if err := refresher.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	g.Go(func() error {
		debounce := time.NewTicker(30 * time.Second)
		defer debounce.Stop()

		dirty := false
		for {
			select {
			case <-ctx.Done():
				if dirty {
					exportCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
					defer cancel()
					if _, err := backupSvc.Export(exportCtx); err != nil {
						logger.Error("Final backup export failed", "error", err)
					}
				}
				return nil
			case <-pending:
				dirty = true
			case <-debounce.C:
				if !dirty {
					continue
				}
				if _, err := backupSvc.Export(ctx); err != nil {
					logger.ErrorContext(ctx, "Backup export failed", "error", err)
					continue
				}
				dirty = false
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
