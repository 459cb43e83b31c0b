package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func testConfig(format string) *Config {
	return &Config{
		Level:      "info",
		Format:     format,
		Output:     "stdout",
		TimeFormat: "2006-01-02T15:04:05Z07:00",
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "console format", cfg: testConfig("console")},
		{name: "json format", cfg: testConfig("json")},
		{
			name: "debug level",
			cfg: &Config{
				Level:      "debug",
				Format:     "console",
				Output:     "stderr",
				TimeFormat: "2006-01-02T15:04:05Z07:00",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestSync(t *testing.T) {
	logger, err := New(testConfig("console"))
	require.NoError(t, err)

	// stdout may reject Sync in some environments; it must not panic
	_ = Sync(logger)
}

func TestCreateWriter(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", "STDOUT"} {
		t.Run(output, func(t *testing.T) {
			assert.NotNil(t, createWriter(output))
		})
	}

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "engine.log")
		writer := createWriter(path)
		require.NotNil(t, writer)

		_, err := writer.Write([]byte("line\n"))
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "line\n", string(data))
	})
}

func TestJSONOutputFields(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		createEncoder(testConfig("json")),
		zapcore.AddSync(&buf),
		zapcore.InfoLevel,
	)
	logger := zap.New(core)

	logger.Info("posting ledger entry", zap.String("voucher_no", "PR-001"))

	var output map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
	assert.Equal(t, "posting ledger entry", output["msg"])
	assert.Equal(t, "info", output["level"])
	assert.Equal(t, "PR-001", output["voucher_no"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		createEncoder(testConfig("json")),
		zapcore.AddSync(&buf),
		parseLevel("info"),
	)
	logger := zap.New(core)

	logger.Debug("suppressed")
	assert.False(t, strings.Contains(buf.String(), "suppressed"))

	logger.Info("kept")
	assert.True(t, strings.Contains(buf.String(), "kept"))
}
