package pebbledb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cipher-canvas/internal/apperror"
	"cipher-canvas/internal/storage/database"

	"github.com/cockroachdb/pebble"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserStore 以 Pebble 為後端的用戶存儲.
type UserStore struct {
	db *pebble.DB
	// 唯一性檢查與寫入必須在同一臨界區
	mu sync.Mutex
}

// NewUserStore 創建新的用戶存儲.
func NewUserStore(db *pebble.DB) *UserStore {
	return &UserStore{db: db}
}

var _ database.UserRepository = (*UserStore)(nil)

// Create 創建用戶，用戶名或信箱已存在時回傳 apperror.ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, user *database.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	s.mu.Lock()
	defer s.mu.Unlock()

	emailKey := genUserEmailKey(user.Email)
	usernameKey := genUserUsernameKey(user.Username)
	for _, key := range [][]byte{emailKey, usernameKey} {
		exists, err := s.has(key)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("insert user: %w", apperror.ErrDuplicate)
		}
	}

	data, err := bson.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	idHex := []byte(user.ID.Hex())

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(genUserKey(user.ID), data, nil); err != nil {
		return err
	}
	if err := b.Set(emailKey, idHex, nil); err != nil {
		return err
	}
	if err := b.Set(usernameKey, idHex, nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

// GetByID 根據 ID 獲取用戶.
func (s *UserStore) GetByID(ctx context.Context, id string) (*database.User, error) {
	objectID, err := database.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	return s.load(objectID)
}

// GetByEmail 根據信箱獲取用戶（不分大小寫）.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*database.User, error) {
	v, closer, err := s.db.Get(genUserEmailKey(email))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read email index: %w", err)
	}
	idHex := string(v)
	_ = closer.Close()

	objectID, err := bson.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, fmt.Errorf("corrupt email index: %w", err)
	}
	return s.load(objectID)
}

// GetByIDs 批量獲取用戶，結果不含密碼雜湊.
func (s *UserStore) GetByIDs(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*database.User, error) {
	users := make(map[bson.ObjectID]*database.User, len(ids))
	for _, id := range database.UniqueObjectIDs(ids) {
		user, err := s.load(id)
		if errors.Is(err, apperror.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		user.Password = ""
		users[id] = user
	}
	return users, nil
}

// UpdateLastLogin 更新最後登入時間.
func (s *UserStore) UpdateLastLogin(ctx context.Context, id bson.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.load(id)
	if err != nil {
		return err
	}
	user.LastLogin = &at
	user.UpdatedAt = at

	data, err := bson.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.db.Set(genUserKey(id), data, pebble.Sync)
}

func (s *UserStore) has(key []byte) (bool, error) {
	_, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, closer.Close()
}

func (s *UserStore) load(id bson.ObjectID) (*database.User, error) {
	v, closer, err := s.db.Get(genUserKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	defer closer.Close()

	var user database.User
	if err := bson.Unmarshal(v, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}
