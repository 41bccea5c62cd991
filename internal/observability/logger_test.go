package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "debug", Format: "json", Output: &buf, ServiceName: "mudoc-test"})

	log.WithOperation("inspect").WithDocument("a.pdf").Info().
		Int("pages", 3).
		Bool("pdf", true).
		Err(errors.New("boom")).
		Msg("inspected")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "mudoc-test", entry["service"])
	assert.Equal(t, "inspect", entry["operation"])
	assert.Equal(t, "a.pdf", entry["document"])
	assert.Equal(t, float64(3), entry["pages"])
	assert.Equal(t, true, entry["pdf"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "inspected", entry["message"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Format: "json", Output: &buf})

	log.Debug().Msg("hidden")
	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error().Str("k", "v").Msg("discarded")
	})
}
