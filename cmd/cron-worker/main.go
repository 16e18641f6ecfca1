package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/asookemart/asooke-backend/internal/cart"
	"github.com/asookemart/asooke-backend/internal/cron"
	"github.com/asookemart/asooke-backend/internal/verification"
	"github.com/asookemart/asooke-backend/pkg/config"
	"github.com/asookemart/asooke-backend/pkg/db"
	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/metrics"
	"github.com/asookemart/asooke-backend/pkg/migrate"
	"github.com/asookemart/asooke-backend/pkg/redis"
)

const serviceName = "cron-worker"

func main() {
	once := flag.Bool("once", false, "run a single housekeeping cycle and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		logger.New(logger.Options{ServiceName: serviceName}).Warn(ctx, ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: serviceName}).Error(ctx, "config load failed", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceName

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "serviceKind": cfg.Service.Kind})

	if err := run(ctx, cfg, logg, *once); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker exited")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, once bool) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(serviceName), 0)
	if err != nil {
		return err
	}
	cartJob, err := cron.NewAbandonedCartJob(cron.AbandonedCartJobParams{
		Logger:  logg,
		Carts:   cart.NewRepository(dbClient.DB()),
		MaxIdle: cfg.Cron.AbandonedCartDays,
	})
	if err != nil {
		return err
	}
	codesJob, err := cron.NewVerificationPurgeJob(cron.VerificationPurgeJobParams{
		Logger: logg,
		Codes:  verification.NewStore(dbClient.DB(), nil),
	})
	if err != nil {
		return err
	}

	svc, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Jobs:     []cron.Job{cartJob, codesJob},
		Lock:     lock,
		Metrics:  metrics.NewHousekeepingMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	logg.Info(logg.WithField(ctx, "jobs", strings.Join(svc.Jobs(), ",")), "cron worker starting")
	if once {
		report, err := svc.RunOnce(ctx)
		if report.Skipped {
			logg.Warn(ctx, "cycle skipped: another worker holds the lock")
		}
		return err
	}
	return svc.Run(ctx)
}
