package message

import (
	"context"
	"encoding/json"

	"cipher-canvas/internal/apperror"
	"cipher-canvas/internal/constants"
	"cipher-canvas/internal/httputil"
	"cipher-canvas/internal/platform/logger"
	"cipher-canvas/internal/platform/metrics"
	"cipher-canvas/internal/security/audit"
	"cipher-canvas/internal/storage/cache"
	"cipher-canvas/internal/storage/database"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service 訊息建立、畫廊查詢與互動.
type Service struct {
	messages database.MessageRepository
	users    database.UserRepository
	gallery  cache.GalleryCache
	audit    *audit.AuditService
}

// NewService 建立訊息服務，gallery 為 nil 時不使用快取.
func NewService(messages database.MessageRepository, users database.UserRepository, gallery cache.GalleryCache, auditor *audit.AuditService) *Service {
	if gallery == nil {
		gallery = cache.Nop{}
	}
	return &Service{
		messages: messages,
		users:    users,
		gallery:  gallery,
		audit:    auditor,
	}
}

// Create 以登入用戶為發送者建立訊息.
func (s *Service) Create(ctx context.Context, userID string, req CreateMessageRequest) (*MessageView, error) {
	sender, err := database.ParseObjectID(userID)
	if err != nil {
		return nil, apperror.Authentication(httputil.NotAuthorized)
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	msg := database.NewMessage(sender, req.EncryptedContent, req.VisualSeed, req.EmotionPalette, req.Hint)
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperror.Store("Failed to create message", err)
	}

	s.invalidateGallery(ctx)
	metrics.Interactions.WithLabelValues(metrics.InteractionCreate).Inc()
	s.audit.LogMessageCreated(ctx, userID, msg.ID.Hex(), msg.EmotionPalette)

	views, err := s.project(ctx, []*database.Message{msg})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ListAll 回傳畫廊全部訊息（新到舊），優先讀取快取.
func (s *Service) ListAll(ctx context.Context) ([]*MessageView, error) {
	if views, ok := s.cachedGallery(ctx); ok {
		return views, nil
	}

	// 版本號必須在讀資料庫之前取得
	version, versionErr := s.gallery.GalleryVersion(ctx)
	if versionErr != nil {
		logger.Warning(ctx, "讀取畫廊快取版本失敗", logger.WithError(versionErr))
	}

	messages, err := s.messages.List(ctx, database.MessageFilter{})
	if err != nil {
		return nil, apperror.Store("Failed to fetch messages", err)
	}
	views, err := s.project(ctx, messages)
	if err != nil {
		return nil, err
	}

	if versionErr == nil {
		s.fillGallery(ctx, version, views)
	}
	return views, nil
}

// GetByID 取得單一訊息.
func (s *Service) GetByID(ctx context.Context, id string) (*MessageView, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, s.messageError(err, "Failed to fetch message")
	}
	views, err := s.project(ctx, []*database.Message{msg})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ListBySender 回傳指定用戶的訊息；ID 格式錯誤視為用戶不存在，合法但無訊息時回傳空列表.
func (s *Service) ListBySender(ctx context.Context, userID string) ([]*MessageView, error) {
	sender, err := database.ParseObjectID(userID)
	if err != nil {
		return nil, apperror.NotFound(httputil.UserNotFound, err)
	}

	messages, err := s.messages.List(ctx, database.MessageFilter{Sender: &sender})
	if err != nil {
		return nil, apperror.Store("Failed to fetch user messages", err)
	}
	return s.project(ctx, messages)
}

// ToggleLike 切換登入用戶對訊息的按讚狀態.
func (s *Service) ToggleLike(ctx context.Context, messageID, userID string) (*LikeResult, error) {
	user, err := database.ParseObjectID(userID)
	if err != nil {
		return nil, apperror.Authentication(httputil.NotAuthorized)
	}

	msg, liked, err := s.messages.ToggleLike(ctx, messageID, user)
	if err != nil {
		return nil, s.messageError(err, "Failed to like message")
	}

	s.invalidateGallery(ctx)
	kind := metrics.InteractionLike
	if !liked {
		kind = metrics.InteractionUnlike
	}
	metrics.Interactions.WithLabelValues(kind).Inc()
	s.audit.LogLikeToggled(ctx, userID, msg.ID.Hex(), liked, msg.Likes)

	return &LikeResult{Likes: msg.Likes, Liked: liked}, nil
}

// RecordUnlock 記錄登入用戶解鎖訊息，重複解鎖不改變計數.
func (s *Service) RecordUnlock(ctx context.Context, messageID, userID string) (*UnlockResult, error) {
	user, err := database.ParseObjectID(userID)
	if err != nil {
		return nil, apperror.Authentication(httputil.NotAuthorized)
	}

	msg, err := s.messages.AddUnlock(ctx, messageID, user)
	if err != nil {
		return nil, s.messageError(err, "Failed to unlock message")
	}

	s.invalidateGallery(ctx)
	metrics.Interactions.WithLabelValues(metrics.InteractionUnlock).Inc()
	s.audit.LogUnlockRecorded(ctx, userID, msg.ID.Hex(), msg.Unlocks)

	return &UnlockResult{Unlocks: msg.Unlocks, Unlocked: true}, nil
}

// project 批量查詢發送者並組成輸出.
func (s *Service) project(ctx context.Context, messages []*database.Message) ([]*MessageView, error) {
	ids := make([]bson.ObjectID, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.Sender)
	}
	ids = database.UniqueObjectIDs(ids)

	senders := make(map[bson.ObjectID]*database.User, len(ids))
	for start := 0; start < len(ids); start += constants.MaxSenderProjection {
		end := start + constants.MaxSenderProjection
		if end > len(ids) {
			end = len(ids)
		}
		found, err := s.users.GetByIDs(ctx, ids[start:end])
		if err != nil {
			return nil, apperror.Store("Failed to fetch message senders", err)
		}
		for id, u := range found {
			senders[id] = u
		}
	}

	return newViews(messages, senders), nil
}

func (s *Service) cachedGallery(ctx context.Context) ([]*MessageView, bool) {
	data, ok, err := s.gallery.GetGallery(ctx)
	if err != nil {
		logger.Warning(ctx, "讀取畫廊快取失敗", logger.WithError(err))
		metrics.GalleryCache.WithLabelValues("error").Inc()
		return nil, false
	}
	if !ok {
		metrics.GalleryCache.WithLabelValues("miss").Inc()
		return nil, false
	}

	var views []*MessageView
	if err := json.Unmarshal(data, &views); err != nil {
		logger.Warning(ctx, "畫廊快取內容無法解析", logger.WithError(err))
		metrics.GalleryCache.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.GalleryCache.WithLabelValues("hit").Inc()
	return views, true
}

// fillGallery 寫入快取；期間有寫入使版本變動時放棄.
func (s *Service) fillGallery(ctx context.Context, version int64, views []*MessageView) {
	data, err := json.Marshal(views)
	if err != nil {
		logger.Warning(ctx, "畫廊快取序列化失敗", logger.WithError(err))
		return
	}
	stored, err := s.gallery.SetGallery(ctx, version, data)
	if err != nil {
		logger.Warning(ctx, "寫入畫廊快取失敗", logger.WithError(err))
		return
	}
	if !stored {
		logger.Debug(ctx, "畫廊已變動，略過快取寫入")
	}
}

func (s *Service) invalidateGallery(ctx context.Context) {
	if err := s.gallery.InvalidateGallery(ctx); err != nil {
		logger.Warning(ctx, "清除畫廊快取失敗", logger.WithError(err))
	}
}

// messageError 不存在與 ID 格式錯誤都對外回報 404.
func (s *Service) messageError(err error, fallback string) error {
	if apperror.IsMissing(err) {
		return apperror.NotFound(httputil.MessageNotFound, err)
	}
	return apperror.Store(fallback, err)
}
