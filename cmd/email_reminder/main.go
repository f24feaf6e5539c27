package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"email-reminder/internal/app"
	"email-reminder/internal/config"
	"email-reminder/pkg/logger"
)

func main() {
	ctx := context.Background()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoadConfig()
	config.MustPrintConfig(cfg)

	loggerCfg := &logger.Config{
		Level:      cfg.Logger.Level,
		FormatJSON: cfg.FormatJSON,
		Rotation: logger.Rotation{
			File:       cfg.Rotation.File,
			MaxSize:    cfg.Rotation.MaxSize,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     cfg.Rotation.MaxAge,
		},
	}

	log := logger.MustSetupLogger(loggerCfg)

	application := app.MustNew(cfg, log)

	defer func() {
		if err := application.Shutdown(); err != nil {
			log.Error("Failed to shutdown application", zap.Error(err))
		}

		if err := log.Sync(); err != nil {
			log.Warn("Failed to sync logger", zap.Error(err))
		}

		log.Info("Application has shutdown")
	}()

	log.Info("Application started",
		zap.String("service", cfg.ServiceName),
		zap.String("version", cfg.Version),
		zap.String("db_driver", cfg.Database.Driver),
	)

	if err := application.Run(ctx); err != nil {
		log.Error("Server error, shutting down...", zap.Error(err))
		return
	}

	log.Info("Received stop signal, shutting down...")
}
