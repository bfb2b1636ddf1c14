package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spooker/internal/config"
)

func TestCreateLoggerConsole(t *testing.T) {
	logger, err := createLogger(config.LoggingConfig{
		Level:  "debug",
		Format: "json",
		Output: "console",
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), -4))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"debug", -4},
		{"info", 0},
		{"warn", 4},
		{"warning", 4},
		{"error", 8},
		{"unknown", 0},
		{"INFO", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, int(parseLogLevel(tt.in)), tt.in)
	}
}

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	ctx = WithTraceID(ctx, "abc-123")
	assert.Equal(t, "abc-123", GetTraceID(ctx))

	// Already present, must not be replaced.
	same := EnsureTraceID(ctx)
	assert.Equal(t, "abc-123", GetTraceID(same))

	generated := EnsureTraceID(context.Background())
	assert.NotEmpty(t, GetTraceID(generated))
}

func TestLoggerFromContext(t *testing.T) {
	logger := LoggerFromContext(context.Background())
	require.NotNil(t, logger)

	tagged := LoggerFromContext(WithTraceID(context.Background(), "t-1"))
	require.NotNil(t, tagged)
}
