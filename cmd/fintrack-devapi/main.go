package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/devapi"
	"fintrack/internal/events"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentDevAPI,
	})
	log.SetDefault(logger)

	if err := cfg.ValidateDevAPI(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	if cfg.DevAPISessionToken != "" {
		u, err := devapi.SeedDemo(context.Background(), repo, cfg.DevAPISessionToken)
		if err != nil {
			logger.Error("Failed to seed demo household", log.FieldError, err)
			repo.Close()
			os.Exit(1)
		}
		logger.Info("Demo household ready", "user_id", u.ID, "email", u.Email)
	}

	// Ledger events are optional: without a broker they are dropped.
	var publisher events.Publisher = events.Discard{}
	if cfg.AMQPURL != "" {
		client := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err := client.Connect(); err != nil {
			// Publish retries the connection with backoff.
			logger.Warn("AMQP broker unavailable at startup", log.FieldError, err)
		}
		publisher = client
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	ledger := services.NewLedgerService(repo, publisher, logger)
	defer ledger.Close()

	srv := devapi.NewServer(devapi.Config{
		Port:          cfg.DevAPIPort,
		SessionCookie: cfg.SessionCookie,
		Logger:        logger,
	}, repo, ledger)

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting fintrack development API",
		log.FieldOperation, log.OpStartup, "port", cfg.DevAPIPort, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.DevAPIPort)
		ledger.Close()
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
