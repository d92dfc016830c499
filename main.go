package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cps-console/internal/app"
	"cps-console/internal/config"
	"cps-console/pkg/logger"
)

const (
	envFilePath      = ".env"
	signalBufferSize = 1
)

var shutdownSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

func main() {
	envErr := godotenv.Load(envFilePath)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if envErr != nil {
		zlog.Warn(".env file not found, using environment variables")
	}
	zlog.Info("configuration loaded",
		zap.String("backend", cfg.Backend.Driver),
		zap.String("image_provider", cfg.ImageHost.Provider),
		zap.Bool("auth", cfg.AuthEnabled()))

	service, err := app.InitializeService(context.Background(), cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize service", zap.Error(err))
	}

	go func() {
		if err := service.Start(); err != nil {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, signalBufferSize)
	signal.Notify(quit, shutdownSignals...)
	<-quit

	zlog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := service.Shutdown(ctx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
		return
	}

	zlog.Info("server exited gracefully")
}
