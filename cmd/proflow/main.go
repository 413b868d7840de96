// Command proflow runs the email-to-ticket service: an HTTP API plus an
// optional background mailbox poller.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/proflow/proflow/internal/audit"
	"github.com/proflow/proflow/internal/credential"
	"github.com/proflow/proflow/internal/model"
	"github.com/proflow/proflow/internal/notify"
	"github.com/proflow/proflow/internal/server"
	"github.com/proflow/proflow/internal/settings"
	"github.com/proflow/proflow/internal/store"
	"github.com/proflow/proflow/internal/sync"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Seed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding defaults: %w", err)
		}
		logger.Info("default projects, statuses, and admin user ensured")
	}

	secrets := credential.NewKeyring(cfg.KeyringService)
	settingsSvc := settings.NewService(db, secrets, cfg.Sync.InsecureTLS)
	auditLog := audit.NewLog(cfg.AuditSize)

	orchestrator := sync.NewOrchestrator(db, settingsSvc, auditLog, logger, cfg.Sync)
	notifier := notify.NewNotifier(db, settingsSvc, auditLog, logger)

	if cfg.Sync.PollUserID != "" {
		interval := time.Duration(cfg.Sync.PollIntervalSec) * time.Second
		poller := sync.NewPoller(orchestrator, logger, cfg.Sync.PollUserID, interval)
		go poller.Run(ctx)
	}

	srv := server.New(db, orchestrator, notifier, settingsSvc, auditLog, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(cfg.Server.Addr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}
