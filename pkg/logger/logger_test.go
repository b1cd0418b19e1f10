package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnstructuredLogsCheck(t *testing.T) { //nolint:paralleltest // Uses environment variables
	tests := []struct {
		name     string
		envValue string
		expected bool
	}{
		{"Default Case", "", true},
		{"Explicitly True", "true", true},
		{"Explicitly False", "false", false},
		{"Invalid Value", "not-a-bool", true},
	}

	for _, tt := range tests { //nolint:paralleltest // Uses environment variables
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("UNSTRUCTURED_LOGS", tt.envValue)
			}
			assert.Equal(t, tt.expected, unstructuredLogs())
		})
	}
}

func TestSingletonCapture(t *testing.T) { //nolint:paralleltest // Replaces the singleton
	var buf bytes.Buffer
	Set(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer Initialize()

	Infof("logged in as %s", "alice")
	Warn("token close to expiry", "remaining", "30s")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, "logged in as alice", first["msg"])

	var second map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "WARN", second["level"])
	assert.Equal(t, "30s", second["remaining"])
}

func TestDebugLevelFollowsViperFlag(t *testing.T) { //nolint:paralleltest // Uses global viper state
	viper.Set("debug", true)
	defer viper.Set("debug", false)

	t.Setenv("UNSTRUCTURED_LOGS", "false")
	Initialize()
	defer Initialize()

	assert.True(t, Get().Enabled(t.Context(), slog.LevelDebug))
}
