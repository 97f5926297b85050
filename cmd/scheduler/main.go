// Package main runs the recurring job scheduler and the first-run bootstrap.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vidpulse/backend/config"
	"github.com/vidpulse/backend/internal/app"
	"github.com/vidpulse/backend/internal/tasks"
)

func main() {
	bootstrap := flag.Bool("bootstrap", true, "populate initial content when the platform is empty")
	flag.Parse()

	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("startup", zap.Error(err))
	}
	defer a.Close()

	scheduler := tasks.NewScheduler(a.Tasks, logger.Named("scheduler"))
	if err := scheduler.Register(tasks.Registrations(cfg.Tasks, cfg.Content.CleanupDaysOld)); err != nil {
		logger.Fatal("register recurring jobs", zap.Error(err))
	}
	scheduler.Start()
	logger.Info("scheduler started", zap.Int("jobs", scheduler.Entries()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *bootstrap {
		b := tasks.NewBootstrapper(a.Videos, a.Redis, a.Tasks, cfg.Tasks.BootstrapDelay, logger.Named("bootstrap"))
		go func() {
			if _, err := b.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("bootstrap failed", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	scheduler.Stop()
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
