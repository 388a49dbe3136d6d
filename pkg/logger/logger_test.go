package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "cartflow", func(context.Context) string { return "abc123" })

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "cart updated", "total_items", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "cart updated", line["msg"])
	assert.Equal(t, "cartflow", line["service"])
	assert.Equal(t, "abc123", line["trace_id"])
	assert.EqualValues(t, 3, line["total_items"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel(" warn "))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}
