/**
 * @description
 * This is the main entry point for the dunning service. It wires the
 * reminder engine together: configuration, database pool, RabbitMQ
 * producer, channel transports, the cron scheduler that drives reminder
 * ticks, and a small internal HTTP surface for triggering and inspection.
 */
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/duespark/dunning-service/internal/api"
	"github.com/duespark/dunning-service/internal/app"
	"github.com/duespark/dunning-service/internal/config"
	"github.com/duespark/dunning-service/internal/domain"
	"github.com/duespark/dunning-service/internal/store"
	"github.com/duespark/dunning-service/pkg/emailclient"
	"github.com/duespark/dunning-service/pkg/rabbitmq"
	"github.com/duespark/dunning-service/pkg/smsclient"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Establish database connection pool.
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = 20
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// RabbitMQ is optional; without it failure notifications degrade to logs.
	var producer *rabbitmq.EventProducer
	if cfg.RabbitMQURL != "" {
		producer, err = rabbitmq.NewEventProducer(cfg.RabbitMQURL, "duespark.events")
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		logger.Info("RabbitMQ producer connected")
	} else {
		logger.Warn("RABBITMQ_URL not set, failure notifications will only be logged")
	}

	// Initialize dependencies.
	repository := store.NewRepository(dbpool)
	budget := app.NewBudgetService(repository, cfg.MonthlyBudgetCap, nil)
	evaluator := app.NewEvaluator(nil, budget)
	dispatcher := app.NewDispatcher()
	composer := app.NewTemplateComposer()
	paused := app.NewPauseList()

	var notifier app.Notifier
	if producer != nil {
		notifier = app.NewEventNotifier(producer, logger)
	} else {
		notifier = app.NewEventNotifier(nil, logger)
	}

	transports := make(map[domain.Channel]app.Transport)
	if cfg.EmailProviderURL != "" {
		transports[domain.ChannelEmail] = emailclient.NewClient(cfg.EmailProviderURL, cfg.EmailProviderKey)
	}
	if cfg.SMSProviderURL != "" {
		transports[domain.ChannelSMS] = smsclient.NewClient(cfg.SMSProviderURL, cfg.SMSProviderKey)
	}
	if len(transports) == 0 {
		logger.Warn("no channel transports configured, reminders cannot be delivered")
	}

	orchestrator := app.NewOrchestrator(app.OrchestratorParams{
		Repo:        repository,
		Evaluator:   evaluator,
		Dispatcher:  dispatcher,
		Composer:    composer,
		Transports:  transports,
		Notifier:    notifier,
		Paused:      paused,
		Logger:      logger,
		WorkerCount: cfg.WorkerCount,
		RetryPolicy: app.RetryPolicy{
			MaxRetries:   cfg.DispatchMaxRetries,
			InitialDelay: time.Duration(cfg.DispatchInitialDelayMS) * time.Millisecond,
		},
		AlertAfter: cfg.FailureAlertThreshold,
	})

	// Start the cron scheduler in the background.
	scheduler := app.NewScheduler(orchestrator, logger, cfg.ReminderJobSchedule)
	scheduler.Start()
	logger.Info("scheduler started")

	// Start the internal HTTP server.
	handler := api.NewHandler(orchestrator, repository, paused, logger)
	router := api.NewRouter(handler, cfg.InternalAPIKey)
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("could not start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal to gracefully shut down.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	stopCtx := scheduler.Stop()
	<-stopCtx.Done() // Wait for a running tick to finish.
	logger.Info("scheduler stopped gracefully")
}
