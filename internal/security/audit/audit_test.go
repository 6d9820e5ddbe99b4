package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"cipher-canvas/internal/platform/logger"
	"cipher-canvas/internal/platform/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_LogsLikeEvent(t *testing.T) {
	var buf bytes.Buffer
	restore := logger.SetOutput(&buf)
	defer restore()

	a := NewAuditService(true)
	a.LogLikeToggled(context.Background(), "u1", "m1", false, 3)

	var entry logger.LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, logger.SeverityNotice, entry.Severity)
	assert.Equal(t, "[AUDIT] "+EventMessageUnliked, entry.Message)
	assert.Equal(t, "u1", entry.UserID)
	assert.Equal(t, "m1", entry.MessageID)
	assert.Equal(t, "toggle_like", entry.Action)
	assert.EqualValues(t, 3, entry.Details["likes"])
	assert.Equal(t, "unknown", entry.Details["ip_address"])
}

func TestAuditService_DisabledOrNilIsSilent(t *testing.T) {
	var buf bytes.Buffer
	restore := logger.SetOutput(&buf)
	defer restore()

	NewAuditService(false).LogLogin(context.Background(), "u1")
	var nilService *AuditService
	nilService.LogUnlockRecorded(context.Background(), "u1", "m1", 1)

	assert.Zero(t, buf.Len())
}

func TestAuditService_IncludesRequestMetadata(t *testing.T) {
	var buf bytes.Buffer
	restore := logger.SetOutput(&buf)
	defer restore()

	ctx := middleware.WithRequestMetadata(context.Background(), &middleware.RequestMetadata{
		RequestID: "req-9",
		IPAddress: "203.0.113.5",
		UserAgent: "ua",
		Method:    "POST",
		Route:     "/api/messages/:id/unlock",
	})
	NewAuditService(true).LogUnlockRecorded(ctx, "u1", "m1", 2)

	var entry logger.LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "req-9", entry.Details["request_id"])
	assert.Equal(t, "POST /api/messages/:id/unlock", entry.Details["route"])
	assert.Equal(t, "203.0.113.5", entry.Details["ip_address"])
	assert.EqualValues(t, 2, entry.Details["unlocks"])
}
