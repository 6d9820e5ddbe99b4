package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_WritesGCPEntry(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	ctx := WithTraceID(context.Background(), "abc123")
	Info(ctx, "message liked",
		WithRequestID("req-1"),
		WithUserID("u1"),
		WithMessageID("m1"),
		WithAction("toggle_like"),
		WithError(errors.New("ignored detail")),
	)

	var entry LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))

	assert.Equal(t, SeverityInfo, entry.Severity)
	assert.Equal(t, "message liked", entry.Message)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, "u1", entry.UserID)
	assert.Equal(t, "m1", entry.MessageID)
	assert.Equal(t, "toggle_like", entry.Action)
	assert.Equal(t, "ignored detail", entry.Details["error"])
	assert.True(t, strings.HasSuffix(entry.TraceID, "/traces/abc123"))
	assert.NotEmpty(t, entry.InsertID)
	require.NotNil(t, entry.SourceLocation)
	assert.Equal(t, "logger_test.go", entry.SourceLocation.File)
}

func TestLog_BelowThresholdIsDropped(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	prev := minSeverity
	minSeverity = SeverityWarning
	defer func() { minSeverity = prev }()

	Info(context.Background(), "skipped")
	assert.Zero(t, buf.Len())

	Warningf(context.Background(), "kept %d", 1)
	assert.Contains(t, buf.String(), "kept 1")
}

func TestGetTraceID_Empty(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}
