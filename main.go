package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/latambot/orchestrator/config"
	"github.com/latambot/orchestrator/internal/adapter/assistant"
	"github.com/latambot/orchestrator/internal/adapter/cms"
	"github.com/latambot/orchestrator/internal/adapter/notify"
	"github.com/latambot/orchestrator/internal/adapter/summarizer"
	"github.com/latambot/orchestrator/internal/service"
	"github.com/latambot/orchestrator/internal/store"
	transport "github.com/latambot/orchestrator/internal/transport/http"
	"github.com/latambot/orchestrator/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting orchestrator",
		"http_port", cfg.HTTPPort,
		"database", cfg.DatabaseURL,
		"upstream", cfg.OpenAIBaseURL)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize upstream and notification clients
	assistantClient := assistant.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)
	smsClient := notify.NewSMSClient(cfg.TwilioBaseURL, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	emailClient := notify.NewEmailClient(cfg.MailgunBaseURL, cfg.MailgunAPIKey, cfg.MailgunDomain, cfg.AdminEmail)
	cmsClient := cms.NewClient()
	sum := summarizer.New(cfg.OpenAIAPIKey, cfg.SummaryModel)

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		logger.Error("failed to initialize policy engine", "error", err)
		os.Exit(1)
	}

	// Initialize service
	svc := service.New(db, assistantClient, smsClient, emailClient, cmsClient, sum, policyEngine, cfg, logger)

	// Create server
	e := transport.NewServer(svc, logger)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("orchestrator started", "port", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down orchestrator")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server gracefully", "error", err)
	}

	logger.Info("orchestrator stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
