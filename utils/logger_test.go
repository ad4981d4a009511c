package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/michaelpento.lv/arbbot/config"
)

func TestLogLevel(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		t.Setenv(config.EnvLogLevel, "")
		level, err := LogLevel(false)
		require.NoError(t, err)
		assert.Equal(t, zapcore.InfoLevel, level)
	})

	t.Run("FromEnv", func(t *testing.T) {
		t.Setenv(config.EnvLogLevel, "warn")
		level, err := LogLevel(false)
		require.NoError(t, err)
		assert.Equal(t, zapcore.WarnLevel, level)
	})

	t.Run("DebugFlagWins", func(t *testing.T) {
		t.Setenv(config.EnvLogLevel, "error")
		level, err := LogLevel(true)
		require.NoError(t, err)
		assert.Equal(t, zapcore.DebugLevel, level)
	})

	t.Run("Invalid", func(t *testing.T) {
		t.Setenv(config.EnvLogLevel, "verbose")
		level, err := LogLevel(false)
		assert.Error(t, err)
		assert.Equal(t, zapcore.InfoLevel, level)
	})
}
