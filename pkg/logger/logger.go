package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string
	FormatJSON bool
	Rotation   Rotation
}

// Rotation configures the log file; an empty File disables file output.
type Rotation struct {
	File       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

func MustSetupLogger(cfg *Config) *zap.Logger {
	log, err := SetupLogger(cfg)
	if err != nil {
		panic(err)
	}

	return log
}

func SetupLogger(cfg *Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.FormatJSON {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}

	if cfg.Rotation.File != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Rotation.File,
			MaxSize:    cfg.Rotation.MaxSize,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     cfg.Rotation.MaxAge,
		})

		// files never get color codes
		fileEncoderCfg := encoderCfg
		fileEncoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderCfg), writer, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
