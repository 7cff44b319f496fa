package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		checkFunc func(t *testing.T, logger *Logger, output *bytes.Buffer)
	}{
		{
			name: "json format with debug level",
			config: &Config{
				Level:      "debug",
				Format:     "json",
				Output:     "stdout",
				TimeFormat: time.RFC3339,
			},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Debug("test debug message", slog.String("key", "value"))

				var logEntry map[string]interface{}
				err := json.Unmarshal(output.Bytes(), &logEntry)
				require.NoError(t, err)

				assert.Equal(t, "DEBUG", logEntry["level"])
				assert.Equal(t, "test debug message", logEntry["msg"])
				assert.Equal(t, "value", logEntry["key"])
			},
		},
		{
			name: "info level suppresses debug",
			config: &Config{
				Level:      "info",
				Format:     "json",
				Output:     "stdout",
				TimeFormat: time.RFC3339,
			},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Debug("debug message")
				logger.Info("info message", slog.String("type", "test"))

				lines := strings.Split(strings.TrimSpace(output.String()), "\n")
				assert.Len(t, lines, 1)

				var logEntry map[string]interface{}
				err := json.Unmarshal([]byte(lines[0]), &logEntry)
				require.NoError(t, err)

				assert.Equal(t, "INFO", logEntry["level"])
				assert.Equal(t, "info message", logEntry["msg"])
			},
		},
		{
			name: "console format",
			config: &Config{
				Level:      "info",
				Format:     "console",
				Output:     "stdout",
				TimeFormat: time.RFC3339,
			},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Info("console test")

				// tint renders the level as "INF"
				logOutput := output.String()
				assert.Contains(t, logOutput, "INF")
				assert.Contains(t, logOutput, "console test")
			},
		},
		{
			name: "unknown level defaults to info",
			config: &Config{
				Level:  "chatty",
				Format: "json",
			},
			checkFunc: func(t *testing.T, logger *Logger, output *bytes.Buffer) {
				logger.Debug("hidden")
				logger.Info("visible")
				assert.NotContains(t, output.String(), "hidden")
				assert.Contains(t, output.String(), "visible")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := &bytes.Buffer{}

			cfg := *tt.config
			cfg.writer = output

			logger, err := New(&cfg)
			require.NoError(t, err)
			require.NotNil(t, logger)

			tt.checkFunc(t, logger, output)
		})
	}
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	require.NotNil(t, logger)
	assert.NotNil(t, logger.Logger)
}

func TestWith(t *testing.T) {
	output := &bytes.Buffer{}
	base, err := New(&Config{Level: "info", Format: "json", writer: output})
	require.NoError(t, err)

	child := base.With("source", "RemoteOK")
	child.Info("fetched")

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(output.Bytes(), &logEntry))
	assert.Equal(t, "RemoteOK", logEntry["source"])
}
