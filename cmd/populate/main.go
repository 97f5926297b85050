// Package main enqueues one populate_initial_content job and prints its task id.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vidpulse/backend/config"
	"github.com/vidpulse/backend/internal/tasks"
	"github.com/vidpulse/backend/pkg/queue"
	"github.com/vidpulse/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	id, err := tasks.NewClient(queue.NewQueue(rdb.Client, logger)).Populate(ctx)
	if err != nil {
		logger.Fatal("enqueue populate", zap.Error(err))
	}
	fmt.Fprintf(os.Stdout, "Started content population task: %s\n", id)
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
