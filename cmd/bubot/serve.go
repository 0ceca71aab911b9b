package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattjoyce/bubot/internal/callback"
	"github.com/mattjoyce/bubot/internal/config"
	"github.com/mattjoyce/bubot/internal/lock"
	"github.com/mattjoyce/bubot/internal/log"
	"github.com/mattjoyce/bubot/internal/state"
	"github.com/mattjoyce/bubot/internal/storage"
	"github.com/mattjoyce/bubot/internal/webhook"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("bubot starting", "version", version, "config", *configPath)

	if _, err := cfg.WebhookSecret(); err != nil {
		// The gate still starts and answers every request with a configuration error.
		logger.Error("webhook secret is not configured; all callbacks will be rejected", "error", err)
	}

	pidLock, err := lock.AcquirePIDLock(lock.PathFor(cfg.State.Path))
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLock.Path())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.State.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.State.Path)

	inbox := state.NewInbox(db)
	table := callback.NewDefaultTable(inbox, log.WithComponent("callback"))

	webhookConfig := webhook.FromGlobalConfig(cfg)
	server := webhook.New(webhookConfig, secretSource(cfg), table, log.WithComponent("webhook"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("webhook: %w", err)
		}
	}()

	logger.Info("bubot running (press Ctrl+C to stop)", "listen", webhookConfig.Listen, "path", webhookConfig.Path)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("bubot stopped")
	return 0
}

// secretSource reads BUBOT_WEBHOOK_SECRET from the process environment on
// every request. When it is unset, the secret loaded from config at startup
// is used.
func secretSource(cfg *config.Config) webhook.SecretFunc {
	return func() (string, error) {
		if secret, err := config.SecretFromEnv(); err == nil {
			return secret, nil
		}
		return cfg.WebhookSecret()
	}
}
