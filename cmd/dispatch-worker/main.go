package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prepdeckhq/prepdeck-backend/internal/dispatch"
	"github.com/prepdeckhq/prepdeck-backend/internal/inventory"
	"github.com/prepdeckhq/prepdeck-backend/internal/mailer"
	"github.com/prepdeckhq/prepdeck-backend/internal/memberships"
	"github.com/prepdeckhq/prepdeck-backend/internal/notifications"
	"github.com/prepdeckhq/prepdeck-backend/internal/preferences"
	"github.com/prepdeckhq/prepdeck-backend/internal/recipients"
	"github.com/prepdeckhq/prepdeck-backend/internal/reminders"
	"github.com/prepdeckhq/prepdeck-backend/internal/schedule"
	"github.com/prepdeckhq/prepdeck-backend/internal/tenants"
	"github.com/prepdeckhq/prepdeck-backend/internal/users"
	"github.com/prepdeckhq/prepdeck-backend/pkg/config"
	"github.com/prepdeckhq/prepdeck-backend/pkg/db"
	"github.com/prepdeckhq/prepdeck-backend/pkg/instance"
	"github.com/prepdeckhq/prepdeck-backend/pkg/logger"
	"github.com/prepdeckhq/prepdeck-backend/pkg/metrics"
	"github.com/prepdeckhq/prepdeck-backend/pkg/migrate"
	"github.com/prepdeckhq/prepdeck-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "dispatch-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "dispatch-worker"

	logg = logger.New(logger.Options{
		ServiceName: "dispatch-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	resolver, err := recipients.NewResolver(memberships.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create recipient resolver", err)
		os.Exit(1)
	}

	smtpMailer, err := mailer.NewSMTPMailer(cfg.SMTP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mailer", err)
		os.Exit(1)
	}

	engine, err := dispatch.NewEngine(dispatch.Params{
		Logger:        logg,
		Inventory:     inventory.NewRepository(dbClient.DB()),
		Reminders:     reminders.NewRepository(dbClient.DB()),
		Preferences:   preferences.NewRepository(dbClient.DB()),
		Notifications: notifications.NewRepository(dbClient.DB()),
		Users:         users.NewRepository(dbClient.DB()),
		Tenants:       tenants.NewRepository(dbClient.DB()),
		Resolver:      resolver,
		Scheduler:     schedule.NewScheduler(cfg.Dispatch.ToleranceMinutes),
		Mailer:        smtpMailer,
		Metrics:       metrics.NewDispatchMetrics(prometheus.DefaultRegisterer),
		Config:        cfg.Dispatch,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch engine", err)
		os.Exit(1)
	}

	lock, err := dispatch.NewRedisLock(redisClient, redisClient.DispatchLockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch lock", err)
		os.Exit(1)
	}

	service, err := dispatch.NewService(dispatch.ServiceParams{
		Logger:   logg,
		Engine:   engine,
		Lock:     lock,
		Interval: cfg.Dispatch.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting dispatch worker")

	opsMux := http.NewServeMux()
	opsMux.Handle("/metrics", promhttp.Handler())
	opsMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	opsServer := &http.Server{Addr: ":" + cfg.App.Port, Handler: opsMux}
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "ops server stopped unexpectedly", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = opsServer.Shutdown(shutdownCtx)
	}()

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "dispatch worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "dispatch worker shutting down gracefully")
}
