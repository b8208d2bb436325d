package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_ValidLevelsAndFormats(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"debug json", "debug", "json"},
		{"info json", "info", "json"},
		{"warn console", "warn", "console"},
		{"error console", "error", "console"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)

			require.NoError(t, err)
			require.NotNil(t, logger)
			logger.Info("test log message", zap.String("key", "value"))
		})
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	for _, level := range []string{"invalid", "INFO", "trace", ""} {
		t.Run(level, func(t *testing.T) {
			logger, err := NewLogger(level, "json")

			assert.Error(t, err)
			assert.Nil(t, logger)
			assert.Contains(t, err.Error(), "invalid log level")
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	logger, err := NewLogger("warn", "json")
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewDevelopmentLogger(t *testing.T) {
	logger, err := NewDevelopmentLogger()

	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	parent := zap.New(core)

	Named(parent, "uploads").Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "uploads", logs.All()[0].LoggerName)
}

func TestNamed_NilParent(t *testing.T) {
	logger := Named(nil, "discord")

	require.NotNil(t, logger)
	logger.Info("discarded")
}
