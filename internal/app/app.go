// Package app wires configuration, stores and services shared by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/vidpulse/backend/config"
	"github.com/vidpulse/backend/internal/comments"
	"github.com/vidpulse/backend/internal/content"
	"github.com/vidpulse/backend/internal/realtime"
	"github.com/vidpulse/backend/internal/tasklog"
	"github.com/vidpulse/backend/internal/tasks"
	"github.com/vidpulse/backend/internal/textgen"
	"github.com/vidpulse/backend/internal/videos"
	"github.com/vidpulse/backend/pkg/database"
	"github.com/vidpulse/backend/pkg/queue"
	"github.com/vidpulse/backend/pkg/redis"
	"github.com/vidpulse/backend/pkg/storage"
)

// App holds the connected infrastructure and the services built on it.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	Queue  *queue.Queue
	Feed   *realtime.RedisPubSub

	Videos    *videos.Service
	Comments  *comments.Service
	TaskLogs  *tasklog.Service
	Generator *textgen.Generator
	Engine    *content.Engine
	Simulator *content.Simulator
	Tasks     *tasks.Client

	// Snapshots is nil unless a stats bucket is configured.
	Snapshots *storage.S3
}

// New connects to Postgres and Redis, applies migrations and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		Pool:   pool,
		Redis:  rdb,
		Queue:  queue.NewQueue(rdb.Client, logger).WithPollTimeout(cfg.Worker.PollTimeout),
		Feed:   realtime.NewRedisPubSub(rdb.Client, logger),
	}
	a.Videos = videos.NewService(videos.NewRepository(pool))
	a.Comments = comments.NewService(comments.NewRepository(pool), a.Videos)
	a.TaskLogs = tasklog.NewService(tasklog.NewRepository(pool), logger)

	completer := textgen.NewClient(textgen.Config{
		APIKey:  cfg.Inference.APIKey,
		BaseURL: cfg.Inference.BaseURL,
		Timeout: cfg.Inference.Timeout,
		Model:   cfg.Inference.Model,
	})
	a.Generator = textgen.NewGenerator(completer, a.Videos, a.Comments)
	a.Engine = content.NewEngine(content.DefaultCatalog(), a.Videos, a.Comments, a.Generator,
		content.WithLogger(logger.Named("content")),
		content.WithTemplateFallback(cfg.Content.TemplateFallback))
	a.Simulator = content.NewSimulator(a.Videos, a.Comments, content.WithLogger(logger.Named("engagement")))
	a.Tasks = tasks.NewClient(a.Queue)

	if cfg.AWS.StatsBucket != "" {
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			StatsBucket:     cfg.AWS.StatsBucket,
		}, logger)
		if err != nil {
			logger.Warn("stats snapshots disabled", zap.Error(err))
		} else {
			a.Snapshots = s3
		}
	}
	return a, nil
}

// Dispatcher builds the job dispatcher with every job definition.
func (a *App) Dispatcher() *tasks.Dispatcher {
	deps := tasks.Deps{
		Content:        a.Engine,
		Engagement:     a.Simulator,
		Client:         a.Tasks,
		Publisher:      a.Feed,
		Logger:         a.Logger.Named("tasks"),
		CleanupDaysOld: a.Config.Content.CleanupDaysOld,
	}
	if a.Snapshots != nil {
		deps.Snapshots = a.Snapshots
	}
	return tasks.NewDispatcher(tasks.Definitions(deps), a.TaskLogs, a.Queue, a.Config.Tasks.FailOnExhausted, a.Logger)
}

// Close releases the connections.
func (a *App) Close() {
	if err := a.Redis.Close(); err != nil {
		a.Logger.Warn("redis close", zap.Error(err))
	}
	a.Pool.Close()
}
