package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cipher-canvas/internal/storage/database"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UsersCollection 用戶集合名稱
const UsersCollection = "users"

// UserStore 用戶存儲實作.
type UserStore struct {
	collection *mongo.Collection
}

// NewUserStore 創建新的用戶存儲.
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{
		collection: db.Collection(UsersCollection),
	}
}

var _ database.UserRepository = (*UserStore)(nil)

// Create 創建用戶，唯一索引衝突時回傳 apperror.ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, user *database.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	if _, err := s.collection.InsertOne(ctx, user); err != nil {
		return translate(err, "insert user")
	}
	return nil
}

// GetByID 根據 ID 獲取用戶.
func (s *UserStore) GetByID(ctx context.Context, id string) (*database.User, error) {
	objectID, err := database.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": objectID})
}

// GetByEmail 根據信箱獲取用戶（不分大小寫）.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*database.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

// GetByIDs 批量獲取用戶.
func (s *UserStore) GetByIDs(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*database.User, error) {
	users := make(map[bson.ObjectID]*database.User, len(ids))
	ids = database.UniqueObjectIDs(ids)
	if len(ids) == 0 {
		return users, nil
	}

	// 發送者投影只需要公開欄位
	opts := options.Find().SetProjection(bson.M{"password": 0})
	cursor, err := s.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var user database.User
		if err := cursor.Decode(&user); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users[user.ID] = &user
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// UpdateLastLogin 更新最後登入時間.
func (s *UserStore) UpdateLastLogin(ctx context.Context, id bson.ObjectID, at time.Time) error {
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"last_login": at, "updated_at": at},
	})
	if err != nil {
		return translate(err, "update user")
	}
	if result.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "update user")
	}
	return nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*database.User, error) {
	var user database.User
	if err := s.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err, "find user")
	}
	return &user, nil
}
