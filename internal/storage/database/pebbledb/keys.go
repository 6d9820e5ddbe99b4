package pebbledb

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// 鍵格式（所有段以 ":" 分隔）:
// m = message, u = user, idx = index, s = sender.
// 時間戳以毫秒補零到固定寬度，字典序即時間序。
const (
	MessageKey        = "m:%s"              // m:<msg_id>
	GalleryIndexKey   = "idx:m:%020d:%s"    // idx:m:<created_ms>:<msg_id>
	GalleryIndexStart = "idx:m:"            // 畫廊索引前綴
	SenderIndexKey    = "idx:s:%s:%020d:%s" // idx:s:<sender_id>:<created_ms>:<msg_id>
	SenderIndexPrefix = "idx:s:%s:"         // idx:s:<sender_id>:

	UserKey         = "u:%s"      // u:<user_id>
	UserEmailKey    = "idx:ue:%s" // idx:ue:<email> -> user_id
	UserUsernameKey = "idx:un:%s" // idx:un:<username> -> user_id
)

func genMessageKey(id bson.ObjectID) []byte {
	return []byte(fmt.Sprintf(MessageKey, id.Hex()))
}

func genGalleryIndexKey(createdAt time.Time, id bson.ObjectID) []byte {
	return []byte(fmt.Sprintf(GalleryIndexKey, createdAt.UnixMilli(), id.Hex()))
}

func genSenderIndexKey(sender bson.ObjectID, createdAt time.Time, id bson.ObjectID) []byte {
	return []byte(fmt.Sprintf(SenderIndexKey, sender.Hex(), createdAt.UnixMilli(), id.Hex()))
}

func genSenderIndexPrefix(sender bson.ObjectID) []byte {
	return []byte(fmt.Sprintf(SenderIndexPrefix, sender.Hex()))
}

func genUserKey(id bson.ObjectID) []byte {
	return []byte(fmt.Sprintf(UserKey, id.Hex()))
}

func genUserEmailKey(email string) []byte {
	return []byte(fmt.Sprintf(UserEmailKey, strings.ToLower(strings.TrimSpace(email))))
}

func genUserUsernameKey(username string) []byte {
	return []byte(fmt.Sprintf(UserUsernameKey, username))
}

// parseIndexedID 取出索引鍵最後一段的訊息 ID
func parseIndexedID(key []byte) (bson.ObjectID, error) {
	s := string(key)
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return bson.NilObjectID, fmt.Errorf("malformed index key %q", s)
	}
	return bson.ObjectIDFromHex(s[i+1:])
}

// prefixUpperBound 回傳大於所有以 prefix 開頭之鍵的最小鍵
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
