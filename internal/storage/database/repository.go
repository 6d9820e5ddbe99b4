package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MessageRepository 訊息倉儲接口.
//
// 以字串 ID 查詢的方法在 ID 格式錯誤時回傳 apperror.ErrInvalidID，
// 記錄不存在時回傳 apperror.ErrNotFound。
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	// List 依建立時間倒序回傳符合條件的訊息
	List(ctx context.Context, filter MessageFilter) ([]*Message, error)
	// ToggleLike 以單一不可分割的操作切換按讚，回傳更新後的訊息與是否為已讚
	ToggleLike(ctx context.Context, id string, userID bson.ObjectID) (*Message, bool, error)
	// AddUnlock 以單一不可分割的操作記錄解鎖，重複呼叫不改變狀態
	AddUnlock(ctx context.Context, id string, userID bson.ObjectID) (*Message, error)
	Ping(ctx context.Context) error
}

// MessageFilter 訊息查詢條件.
type MessageFilter struct {
	Sender *bson.ObjectID // nil 表示不過濾
	Limit  int64          // 0 表示不限制
}

// UserRepository 用戶倉儲接口.
type UserRepository interface {
	// Create 新增用戶，用戶名或信箱重複時回傳 apperror.ErrDuplicate
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByIDs 批量查詢，不存在的 ID 不會出現在結果中
	GetByIDs(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*User, error)
	UpdateLastLogin(ctx context.Context, id bson.ObjectID, at time.Time) error
}
