package pebbledb

import (
	"context"
	"errors"
	"fmt"

	"cipher-canvas/internal/apperror"
	"cipher-canvas/internal/storage/database"

	"github.com/cockroachdb/pebble"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MessageStore 以 Pebble 為後端的訊息存儲.
//
// Pebble 沒有單文件原子更新，按讚與解鎖以每個訊息 ID 的鎖序列化讀改寫。
type MessageStore struct {
	db    *pebble.DB
	locks keyedLock
}

// NewMessageStore 創建新的訊息存儲.
func NewMessageStore(db *pebble.DB) *MessageStore {
	return &MessageStore{db: db}
}

var _ database.MessageRepository = (*MessageStore)(nil)

// Create 創建訊息並寫入畫廊與發送者索引.
func (s *MessageStore) Create(ctx context.Context, message *database.Message) error {
	if message.ID.IsZero() {
		message.ID = bson.NewObjectID()
	}
	if message.LikedBy == nil {
		message.LikedBy = []bson.ObjectID{}
	}
	if message.UnlockedBy == nil {
		message.UnlockedBy = []bson.ObjectID{}
	}

	data, err := bson.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(genMessageKey(message.ID), data, nil); err != nil {
		return err
	}
	if err := b.Set(genGalleryIndexKey(message.CreatedAt, message.ID), nil, nil); err != nil {
		return err
	}
	if err := b.Set(genSenderIndexKey(message.Sender, message.CreatedAt, message.ID), nil, nil); err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit message: %w", err)
	}
	return nil
}

// GetByID 根據 ID 獲取訊息.
func (s *MessageStore) GetByID(ctx context.Context, id string) (*database.Message, error) {
	objectID, err := database.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	return s.load(objectID)
}

// List 依索引倒序迭代，新的在前.
func (s *MessageStore) List(ctx context.Context, filter database.MessageFilter) ([]*database.Message, error) {
	prefix := []byte(GalleryIndexStart)
	if filter.Sender != nil {
		prefix = genSenderIndexPrefix(*filter.Sender)
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	messages := []*database.Message{}
	for ok := iter.Last(); ok; ok = iter.Prev() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, err := parseIndexedID(iter.Key())
		if err != nil {
			return nil, err
		}
		message, err := s.load(id)
		if errors.Is(err, apperror.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
		if filter.Limit > 0 && int64(len(messages)) >= filter.Limit {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// ToggleLike 切換按讚.
func (s *MessageStore) ToggleLike(ctx context.Context, id string, userID bson.ObjectID) (*database.Message, bool, error) {
	var liked bool
	message, err := s.mutate(id, func(m *database.Message) bool {
		liked = m.ToggleLike(userID)
		return true
	})
	if err != nil {
		return nil, false, err
	}
	return message, liked, nil
}

// AddUnlock 記錄解鎖，已解鎖時不寫入.
func (s *MessageStore) AddUnlock(ctx context.Context, id string, userID bson.ObjectID) (*database.Message, error) {
	return s.mutate(id, func(m *database.Message) bool {
		return m.RecordUnlock(userID)
	})
}

// Ping 檢查資料庫是否可讀.
func (s *MessageStore) Ping(ctx context.Context) error {
	_, closer, err := s.db.Get([]byte(GalleryIndexStart))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return closer.Close()
}

// mutate 在鎖內讀取、修改並寫回訊息；fn 回傳 false 表示無變更
func (s *MessageStore) mutate(id string, fn func(*database.Message) bool) (*database.Message, error) {
	objectID, err := database.ParseObjectID(id)
	if err != nil {
		return nil, err
	}

	key := genMessageKey(objectID)
	unlock := s.locks.lock(key)
	defer unlock()

	message, err := s.load(objectID)
	if err != nil {
		return nil, err
	}
	if !fn(message) {
		return message, nil
	}

	data, err := bson.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	if err := s.db.Set(key, data, pebble.Sync); err != nil {
		return nil, fmt.Errorf("write message: %w", err)
	}
	return message, nil
}

func (s *MessageStore) load(id bson.ObjectID) (*database.Message, error) {
	v, closer, err := s.db.Get(genMessageKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	defer closer.Close()

	var message database.Message
	if err := bson.Unmarshal(v, &message); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	message.Normalize()
	return &message, nil
}
