package database

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Message 畫作訊息數據模型.
//
// Likes / Unlocks 是 LikedBy / UnlockedBy 的長度，任何變更後都必須一致；
// UnlockedBy 只增不減。
type Message struct {
	ID               bson.ObjectID   `bson:"_id" json:"id"`
	Sender           bson.ObjectID   `bson:"sender" json:"sender"`
	EncryptedContent string          `bson:"encrypted_content" json:"encryptedContent"`
	VisualSeed       string          `bson:"visual_seed" json:"visualSeed"`
	EmotionPalette   string          `bson:"emotion_palette" json:"emotionPalette"`
	Hint             string          `bson:"hint" json:"hint"`
	Likes            int             `bson:"likes" json:"likes"`
	Unlocks          int             `bson:"unlocks" json:"unlocks"`
	LikedBy          []bson.ObjectID `bson:"liked_by" json:"likedBy"`
	UnlockedBy       []bson.ObjectID `bson:"unlocked_by" json:"unlockedBy"`
	CreatedAt        time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time       `bson:"updated_at" json:"updatedAt"`
}

// NewMessage 創建新的 Message 實例，計數歸零、集合為空.
func NewMessage(sender bson.ObjectID, encryptedContent, visualSeed, emotionPalette, hint string) *Message {
	now := Now()
	return &Message{
		ID:               bson.NewObjectID(),
		Sender:           sender,
		EncryptedContent: encryptedContent,
		VisualSeed:       visualSeed,
		EmotionPalette:   emotionPalette,
		Hint:             hint,
		LikedBy:          []bson.ObjectID{},
		UnlockedBy:       []bson.ObjectID{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Now 回傳毫秒精度的 UTC 時間，與 MongoDB 儲存精度一致.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// HasLiked 檢查用戶是否已按讚.
func (m *Message) HasLiked(userID bson.ObjectID) bool {
	return indexOf(m.LikedBy, userID) >= 0
}

// HasUnlocked 檢查用戶是否已解鎖.
func (m *Message) HasUnlocked(userID bson.ObjectID) bool {
	return indexOf(m.UnlockedBy, userID) >= 0
}

// ToggleLike 切換按讚狀態，回傳切換後是否為已讚.
func (m *Message) ToggleLike(userID bson.ObjectID) bool {
	liked := !m.HasLiked(userID)
	if liked {
		m.LikedBy = append(m.LikedBy, userID)
	} else {
		m.LikedBy = without(m.LikedBy, userID)
	}
	m.Likes = len(m.LikedBy)
	m.UpdatedAt = Now()
	return liked
}

// RecordUnlock 記錄解鎖，回傳狀態是否有變更（重複解鎖回傳 false）.
func (m *Message) RecordUnlock(userID bson.ObjectID) bool {
	if m.HasUnlocked(userID) {
		return false
	}
	m.UnlockedBy = append(m.UnlockedBy, userID)
	m.Unlocks = len(m.UnlockedBy)
	m.UpdatedAt = Now()
	return true
}

// Normalize 去除集合重複並重新計算計數，用於讀取舊資料.
func (m *Message) Normalize() {
	m.LikedBy = dedupe(m.LikedBy)
	m.UnlockedBy = dedupe(m.UnlockedBy)
	m.Likes = len(m.LikedBy)
	m.Unlocks = len(m.UnlockedBy)
}

// Clone 深拷貝，避免呼叫端修改儲存層內部狀態.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	c.LikedBy = append([]bson.ObjectID{}, m.LikedBy...)
	c.UnlockedBy = append([]bson.ObjectID{}, m.UnlockedBy...)
	return &c
}

func indexOf(ids []bson.ObjectID, id bson.ObjectID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func without(ids []bson.ObjectID, id bson.ObjectID) []bson.ObjectID {
	out := make([]bson.ObjectID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func dedupe(ids []bson.ObjectID) []bson.ObjectID {
	seen := make(map[bson.ObjectID]struct{}, len(ids))
	out := make([]bson.ObjectID, 0, len(ids))
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
