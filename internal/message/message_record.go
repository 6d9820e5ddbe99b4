package message

import (
	"cipher-canvas/internal/storage/database"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// CreateMessageRequest 建立訊息請求.
type CreateMessageRequest struct {
	EncryptedContent string `json:"encryptedContent"`
	VisualSeed       string `json:"visualSeed"`
	EmotionPalette   string `json:"emotionPalette"`
	Hint             string `json:"hint"`
}

// MessageView 對外輸出的訊息，發送者展開為公開資訊.
type MessageView struct {
	*database.Message
	Sender *database.UserSummary `json:"sender"`
}

// LikeResult 按讚切換結果.
type LikeResult struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

// UnlockResult 解鎖結果，Unlocked 恆為 true.
type UnlockResult struct {
	Unlocks  int  `json:"unlocks"`
	Unlocked bool `json:"unlocked"`
}

// newViews 以批量查到的用戶展開發送者，查不到的發送者輸出 null.
func newViews(messages []*database.Message, senders map[bson.ObjectID]*database.User) []*MessageView {
	views := make([]*MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, &MessageView{
			Message: m,
			Sender:  senders[m.Sender].Summary(),
		})
	}
	return views
}
