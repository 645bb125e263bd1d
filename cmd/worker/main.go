package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/ghuser/bookcirc/pkg/app"
	"github.com/ghuser/bookcirc/pkg/cache"
	"github.com/ghuser/bookcirc/pkg/config"
	"github.com/ghuser/bookcirc/pkg/database"
	"github.com/ghuser/bookcirc/pkg/events"
	"github.com/ghuser/bookcirc/pkg/logger"
	"github.com/ghuser/bookcirc/pkg/telemetry"
	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
	"github.com/ghuser/bookcirc/services/circulation/application/worker"
	circEvents "github.com/ghuser/bookcirc/services/circulation/domain/events"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer pool.Close()
	log.Info("database pool connected")

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer redisClient.Close() //nolint:errcheck
	log.Info("redis connected")

	appConfig := &app.Application{
		Config:   cfg,
		Db:       pool,
		Logger:   log,
		EventBus: eventBus,
		Redis:    redisClient,
	}
	svcs := appsvcs.New(appConfig)

	if err := registerSubscribers(ctx, appConfig, svcs); err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	scheduler := cron.New()
	reporter := worker.NewOverdueReporter(svcs.Loans, log)
	if _, err := reporter.Schedule(ctx, scheduler, cfg.OverdueReportSchedule); err != nil {
		log.Error("failed to schedule overdue report", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	scheduler.Start()
	log.Info("overdue report scheduled", "schedule", cfg.OverdueReportSchedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	<-scheduler.Stop().Done()
	cancel()

	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
	log.Info("worker stopped")
}

// registerSubscribers feeds every circulation audit topic into the audit sink.
func registerSubscribers(ctx context.Context, a *app.Application, svcs *appsvcs.Services) error {
	sink := worker.NewAuditSink(a.Logger, svcs.Policy.Invalidate)

	errCh, err := a.EventBus.SubscribeTopics(ctx, circEvents.AuditTopics, sink.Handle)
	if err != nil {
		return err
	}

	// Drain subscriber errors in background so the channel never blocks.
	go func() {
		for err := range errCh {
			a.Logger.ErrorContext(ctx, "subscriber error", "error", err)
		}
	}()

	a.Logger.Info("event subscribers registered", "topics", circEvents.AuditTopics)
	return nil
}
