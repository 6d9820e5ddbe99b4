package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CreateIndexes 創建數據庫索引以優化畫廊與個人頁查詢
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	messagesCollection := db.Collection(MessagesCollection)

	// 1. 畫廊排序索引
	createdAtIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: -1},
		},
		Options: options.Index().SetName("created_at_idx"),
	}

	// 2. 發送者 + 創建時間索引
	senderTimeIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "sender", Value: 1},
			{Key: "created_at", Value: -1},
		},
		Options: options.Index().SetName("sender_time_idx"),
	}

	if _, err := messagesCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		createdAtIndex,
		senderTimeIndex,
	}); err != nil {
		return fmt.Errorf("create message indexes: %w", err)
	}

	usersCollection := db.Collection(UsersCollection)

	// 用戶名與信箱都必須唯一
	usernameIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetName("username_unique_idx").SetUnique(true),
	}
	emailIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique_idx").SetUnique(true),
	}

	if _, err := usersCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		usernameIndex,
		emailIndex,
	}); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	return nil
}

// GetIndexStats 獲取索引統計信息
func GetIndexStats(ctx context.Context, db *mongo.Database) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	for _, name := range []string{MessagesCollection, UsersCollection} {
		cursor, err := db.Collection(name).Indexes().List(ctx)
		if err != nil {
			return nil, err
		}

		var indexes []bson.M
		if err = cursor.All(ctx, &indexes); err != nil {
			return nil, err
		}
		stats[name+"_indexes"] = indexes
	}

	return stats, nil
}
