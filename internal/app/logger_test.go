package app

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logLevel(&Config{AppEnv: "development"}))
	assert.Equal(t, slog.LevelInfo, logLevel(&Config{AppEnv: "production"}))
	assert.Equal(t, slog.LevelWarn, logLevel(&Config{AppEnv: "development", LogLevel: "warn"}))
	assert.Equal(t, slog.LevelInfo, logLevel(&Config{AppEnv: "production", LogLevel: "loud"}))
	assert.Equal(t, slog.LevelInfo, logLevel(nil))
}
