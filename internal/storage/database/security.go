package database

import (
	"fmt"
	"regexp"

	"cipher-canvas/internal/apperror"
	"cipher-canvas/internal/constants"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var objectIDPattern = regexp.MustCompile(fmt.Sprintf("^[a-fA-F0-9]{%d}$", constants.ObjectIDHexLength))

// ValidateObjectID 驗證 MongoDB ObjectID 格式
func ValidateObjectID(id string) error {
	if !objectIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidID, id)
	}
	return nil
}

// ParseObjectID 解析 ObjectID，格式錯誤時回傳 apperror.ErrInvalidID
func ParseObjectID(id string) (bson.ObjectID, error) {
	if err := ValidateObjectID(id); err != nil {
		return bson.NilObjectID, err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("%w: %v", apperror.ErrInvalidID, err)
	}
	return oid, nil
}

// UniqueObjectIDs 去除重複的 ObjectID，保留原順序
func UniqueObjectIDs(ids []bson.ObjectID) []bson.ObjectID {
	return dedupe(ids)
}
