package utils

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/michaelpento.lv/arbbot/config"
)

var (
	log  *zap.Logger
	once sync.Once
)

// LogLevel resolves the logger level. The --debug flag wins over LOG_LEVEL,
// which defaults to info.
func LogLevel(debug bool) (zapcore.Level, error) {
	if debug {
		return zapcore.DebugLevel, nil
	}

	levelStr := config.GetEnvWithDefault(config.EnvLogLevel, "info")
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}
	return level, nil
}

// InitLogger initializes the global logger instance
func InitLogger(debug bool) *zap.Logger {
	once.Do(func() {
		level, levelErr := LogLevel(debug)

		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)

		cfg.OutputPaths = []string{"stdout", "arbbot.log"}
		cfg.ErrorOutputPaths = []string{"stderr", "arbbot-error.log"}

		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.StacktraceKey = "stacktrace"

		logger, err := cfg.Build(
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
			os.Exit(1)
		}

		if levelErr != nil {
			logger.Warn("Falling back to info level", zap.Error(levelErr))
		}
		log = logger
	})

	return log
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if log == nil {
		return InitLogger(false)
	}
	return log
}

// CleanupLogger flushes any buffered log entries
func CleanupLogger() {
	if log != nil {
		_ = log.Sync()
	}
}
