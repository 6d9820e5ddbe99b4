package audit

import (
	"context"
	"strings"
	"time"

	"cipher-canvas/internal/platform/logger"
	"cipher-canvas/internal/platform/middleware"
)

// 審計事件類型
const (
	EventRegistration   = "registration"
	EventLogin          = "login"
	EventAuthentication = "authentication"
	EventMessageCreated = "message_created"
	EventMessageLiked   = "message_liked"
	EventMessageUnliked = "message_unliked"
	EventMessageUnlock  = "message_unlocked"
)

// AuditService 審計服務，nil 或未啟用時不記錄任何事件
type AuditService struct {
	enabled bool
}

// NewAuditService 創建審計服務
func NewAuditService(enabled bool) *AuditService {
	return &AuditService{enabled: enabled}
}

// AuditEvent 審計事件
type AuditEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	EventType string                 `json:"event_type"`
	UserID    string                 `json:"user_id"`
	MessageID string                 `json:"message_id,omitempty"`
	Action    string                 `json:"action"`
	Result    string                 `json:"result"` // success, failure
	Details   map[string]interface{} `json:"details,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
}

// LogRegistration 記錄註冊
func (a *AuditService) LogRegistration(ctx context.Context, userID, username string) {
	a.record(ctx, AuditEvent{
		EventType: EventRegistration,
		UserID:    userID,
		Action:    "register",
		Result:    "success",
		Details:   map[string]interface{}{"username": username},
	})
}

// LogLogin 記錄登入成功
func (a *AuditService) LogLogin(ctx context.Context, userID string) {
	a.record(ctx, AuditEvent{
		EventType: EventLogin,
		UserID:    userID,
		Action:    "login",
		Result:    "success",
	})
}

// LogAuthenticationFailure 記錄認證失敗
func (a *AuditService) LogAuthenticationFailure(ctx context.Context, subject, reason string) {
	a.record(ctx, AuditEvent{
		EventType: EventAuthentication,
		UserID:    subject,
		Action:    "authenticate",
		Result:    "failure",
		Details:   map[string]interface{}{"reason": reason},
	})
}

// LogMessageCreated 記錄訊息建立
func (a *AuditService) LogMessageCreated(ctx context.Context, userID, messageID, emotionPalette string) {
	a.record(ctx, AuditEvent{
		EventType: EventMessageCreated,
		UserID:    userID,
		MessageID: messageID,
		Action:    "create_message",
		Result:    "success",
		Details:   map[string]interface{}{"emotion_palette": emotionPalette},
	})
}

// LogLikeToggled 記錄按讚或取消讚
func (a *AuditService) LogLikeToggled(ctx context.Context, userID, messageID string, liked bool, likes int) {
	eventType := EventMessageLiked
	if !liked {
		eventType = EventMessageUnliked
	}
	a.record(ctx, AuditEvent{
		EventType: eventType,
		UserID:    userID,
		MessageID: messageID,
		Action:    "toggle_like",
		Result:    "success",
		Details:   map[string]interface{}{"likes": likes},
	})
}

// LogUnlockRecorded 記錄解鎖
func (a *AuditService) LogUnlockRecorded(ctx context.Context, userID, messageID string, unlocks int) {
	a.record(ctx, AuditEvent{
		EventType: EventMessageUnlock,
		UserID:    userID,
		MessageID: messageID,
		Action:    "unlock_message",
		Result:    "success",
		Details:   map[string]interface{}{"unlocks": unlocks},
	})
}

// IsEnabled 檢查審計是否啟用
func (a *AuditService) IsEnabled() bool {
	return a != nil && a.enabled
}

// record 補上時間與請求元數據後寫入日誌
func (a *AuditService) record(ctx context.Context, event AuditEvent) {
	if !a.IsEnabled() {
		return
	}

	event.Timestamp = time.Now().UTC()
	meta := middleware.GetRequestMetadata(ctx)
	event.IPAddress = meta.IPAddress
	event.UserAgent = meta.UserAgent

	details := map[string]interface{}{
		"audit":      true,
		"event_type": event.EventType,
		"result":     event.Result,
		"ip_address": event.IPAddress,
		"user_agent": event.UserAgent,
		"request_id": meta.RequestID,
		"route":      strings.TrimSpace(meta.Method + " " + meta.Route),
		"timestamp":  event.Timestamp.Format(time.RFC3339Nano),
	}
	for k, v := range event.Details {
		details[k] = v
	}

	opts := []logger.LogOption{
		logger.WithAction(event.Action),
		logger.WithUserID(event.UserID),
		logger.WithDetails(details),
	}
	if event.MessageID != "" {
		opts = append(opts, logger.WithMessageID(event.MessageID))
	}

	logger.Notice(ctx, "[AUDIT] "+event.EventType, opts...)
}
