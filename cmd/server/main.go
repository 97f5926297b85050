// Package main runs the video platform HTTP server with the activity feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vidpulse/backend/config"
	"github.com/vidpulse/backend/internal/app"
	"github.com/vidpulse/backend/internal/comments"
	"github.com/vidpulse/backend/internal/content"
	"github.com/vidpulse/backend/internal/middleware"
	"github.com/vidpulse/backend/internal/realtime"
	"github.com/vidpulse/backend/internal/tasklog"
	"github.com/vidpulse/backend/internal/tasks"
	"github.com/vidpulse/backend/internal/textgen"
	"github.com/vidpulse/backend/internal/videos"
	"github.com/vidpulse/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup", zap.Error(err))
	}
	defer a.Close()

	hub := realtime.NewHub(logger.Named("feed"), a.Feed)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go func() {
		if err := hub.Run(hubCtx); err != nil {
			logger.Error("activity feed stopped", zap.Error(err))
		}
	}()

	router := gin.New()
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.Server.Origins()))

	router.GET("/health", func(c *gin.Context) {
		if err := a.Pool.Ping(c.Request.Context()); err != nil {
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	videos.NewHandler(a.Videos, a.Comments).Register(router)
	comments.NewHandler(a.Comments).Register(router)
	textgen.NewHandler(a.Generator).Register(router)
	content.NewHandler(a.Simulator).Register(router)
	tasklog.NewHandler(a.TaskLogs).Register(router)
	tasks.NewHandler(a.Tasks, a.Queue, logger).Register(router)
	router.GET("/ws", realtime.ServeWs(hub, logger, cfg.Server.Origins()))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	hubCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
