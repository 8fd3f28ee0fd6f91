package main

import (
	"context"
	"errors"
	"time"

	"kakeibo/internal/amqp"
	"kakeibo/internal/cli"
	"kakeibo/internal/export"
	gsheet "kakeibo/internal/export/google"
	exportmem "kakeibo/internal/export/memory"
	"kakeibo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting kakeibo-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Google Sheets is the backup destination. Without a spreadsheet id
	// the worker still runs, draining the queue into an in-memory sheet;
	// useful for local development, useless for disaster recovery.
	var writer export.BackupWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			return
		}
		writer = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = exportmem.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID provided, backing up to an in-memory sheet")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		return
	}
	defer amqpClient.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	backupWorker := worker.NewBackupWorker(repo, writer, cfg.BackupBatchSize)

	// Catch up on rows recorded while the worker was down.
	if err := backupWorker.ProcessPending(ctx); err != nil {
		logger.Error("Startup backup sweep failed", "error", err)
	}

	go func() {
		handle := func(msg *amqp.EntryEventMessage) error {
			return backupWorker.HandleEntryEvent(ctx, msg)
		}
		if err := amqpClient.ConsumeEntryEvents(ctx, handle); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Entry event consumption failed", "error", err)
		}
	}()

	// Periodic sweep for events lost between publish and consume.
	ticker := time.NewTicker(cfg.BackupInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := backupWorker.ProcessPending(ctx); err != nil {
					logger.Error("Periodic backup sweep failed", "error", err)
				}
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
