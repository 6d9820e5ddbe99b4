package mongodb

import (
	"context"
	"errors"
	"fmt"

	"cipher-canvas/internal/apperror"
	"cipher-canvas/internal/storage/database"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MessagesCollection 訊息集合名稱
const MessagesCollection = "messages"

// MessageStore 訊息存儲實作.
type MessageStore struct {
	collection *mongo.Collection
}

// NewMessageStore 創建新的訊息存儲.
func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{
		collection: db.Collection(MessagesCollection),
	}
}

var _ database.MessageRepository = (*MessageStore)(nil)

// Create 創建訊息.
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

	if _, err := s.collection.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetByID 根據 ID 獲取訊息.
func (s *MessageStore) GetByID(ctx context.Context, id string) (*database.Message, error) {
	objectID, err := database.ParseObjectID(id)
	if err != nil {
		return nil, err
	}

	var message database.Message
	err = s.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&message)
	if err != nil {
		return nil, translate(err, "find message")
	}
	message.Normalize()
	return &message, nil
}

// List 列出訊息，新的在前.
func (s *MessageStore) List(ctx context.Context, filter database.MessageFilter) ([]*database.Message, error) {
	query := bson.M{}
	if filter.Sender != nil {
		query["sender"] = *filter.Sender
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []*database.Message{}
	for cursor.Next(ctx) {
		var message database.Message
		if err := cursor.Decode(&message); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		message.Normalize()
		messages = append(messages, &message)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// ToggleLike 以聚合管線更新在單一文件操作內切換按讚並重算計數.
func (s *MessageStore) ToggleLike(ctx context.Context, id string, userID bson.ObjectID) (*database.Message, bool, error) {
	objectID, err := database.ParseObjectID(id)
	if err != nil {
		return nil, false, err
	}

	likedBy := ifNullArray("$liked_by")
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "liked_by", Value: bson.D{{Key: "$cond", Value: bson.D{
				{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{userID, likedBy}}}},
				{Key: "then", Value: bson.D{{Key: "$filter", Value: bson.D{
					{Key: "input", Value: likedBy},
					{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", userID}}}},
				}}}},
				{Key: "else", Value: bson.D{{Key: "$concatArrays", Value: bson.A{likedBy, bson.A{userID}}}}},
			}}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "likes", Value: bson.D{{Key: "$size", Value: "$liked_by"}}},
			{Key: "updated_at", Value: "$$NOW"},
		}}},
	}

	message, err := s.findOneAndUpdate(ctx, objectID, update)
	if err != nil {
		return nil, false, err
	}
	return message, message.HasLiked(userID), nil
}

// AddUnlock 記錄解鎖，已解鎖的用戶不會重複加入.
func (s *MessageStore) AddUnlock(ctx context.Context, id string, userID bson.ObjectID) (*database.Message, error) {
	objectID, err := database.ParseObjectID(id)
	if err != nil {
		return nil, err
	}

	unlockedBy := ifNullArray("$unlocked_by")
	alreadyUnlocked := bson.D{{Key: "$in", Value: bson.A{userID, unlockedBy}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "updated_at", Value: bson.D{{Key: "$cond", Value: bson.A{alreadyUnlocked, "$updated_at", "$$NOW"}}}},
			{Key: "unlocked_by", Value: bson.D{{Key: "$cond", Value: bson.A{
				alreadyUnlocked,
				unlockedBy,
				bson.D{{Key: "$concatArrays", Value: bson.A{unlockedBy, bson.A{userID}}}},
			}}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "unlocks", Value: bson.D{{Key: "$size", Value: "$unlocked_by"}}},
		}}},
	}

	return s.findOneAndUpdate(ctx, objectID, update)
}

// Ping 檢查資料庫連線.
func (s *MessageStore) Ping(ctx context.Context) error {
	return s.collection.Database().Client().Ping(ctx, nil)
}

func (s *MessageStore) findOneAndUpdate(ctx context.Context, id bson.ObjectID, update mongo.Pipeline) (*database.Message, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var message database.Message
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&message)
	if err != nil {
		return nil, translate(err, "update message")
	}
	message.Normalize()
	return &message, nil
}

func ifNullArray(field string) bson.D {
	return bson.D{{Key: "$ifNull", Value: bson.A{field, bson.A{}}}}
}

// translate 將驅動錯誤轉為 apperror 哨兵錯誤
func translate(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperror.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, apperror.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
