package database

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// 用戶角色常數.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 用戶數據模型，Password 為 bcrypt 雜湊且永不序列化到 JSON.
type User struct {
	ID        bson.ObjectID `bson:"_id" json:"id"`
	Username  string        `bson:"username" json:"username"`
	Email     string        `bson:"email" json:"email"`
	Password  string        `bson:"password" json:"-"`
	FirstName string        `bson:"first_name,omitempty" json:"firstName,omitempty"`
	LastName  string        `bson:"last_name,omitempty" json:"lastName,omitempty"`
	Avatar    *string       `bson:"avatar" json:"avatar"`
	Role      string        `bson:"role" json:"role"`
	IsActive  bool          `bson:"is_active" json:"isActive"`
	LastLogin *time.Time    `bson:"last_login" json:"lastLogin"`
	CreatedAt time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updatedAt"`
}

// NewUser 創建新的 User 實例.
func NewUser(username, email, passwordHash string) *User {
	now := Now()
	return &User{
		ID:        bson.NewObjectID(),
		Username:  username,
		Email:     email,
		Password:  passwordHash,
		Role:      RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UserSummary 公開的發送者資訊（不含敏感欄位）.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Summary 轉換為公開資訊.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:       u.ID.Hex(),
		Username: u.Username,
		Email:    u.Email,
	}
}
