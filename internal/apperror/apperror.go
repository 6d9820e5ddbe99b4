package apperror

import (
	"errors"
	"fmt"
)

// Kind 錯誤分類，決定對外的 HTTP 狀態碼.
type Kind int

const (
	// KindStore 儲存層或其他未分類錯誤（500）.
	KindStore Kind = iota
	// KindValidation 必填欄位缺失或格式錯誤（400）.
	KindValidation
	// KindAuthentication 缺少或無效的認證資訊（401）.
	KindAuthentication
	// KindNotFound 找不到資源，包含 ID 格式錯誤（404）.
	KindNotFound
	// KindConflict 唯一鍵衝突.
	KindConflict
)

// String 回傳分類名稱.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "store"
	}
}

// 儲存層回傳的哨兵錯誤.
var (
	// ErrNotFound 記錄不存在.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidID 識別碼格式錯誤（非 24 位十六進制 ObjectID）.
	ErrInvalidID = errors.New("malformed identifier")
	// ErrDuplicate 唯一鍵重複.
	ErrDuplicate = errors.New("duplicate key")
)

// Error 帶分類的應用錯誤.
type Error struct {
	Kind    Kind
	Message string // 可對使用者顯示的訊息
	Err     error  // 內部原因，只寫入日誌
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 支援 errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation 建立驗證錯誤.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Authentication 建立認證錯誤.
func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// NotFound 建立資源不存在錯誤.
func NotFound(message string, cause error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: cause}
}

// Conflict 建立衝突錯誤.
func Conflict(message string, cause error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: cause}
}

// Store 包裝儲存層錯誤.
func Store(message string, cause error) *Error {
	return &Error{Kind: KindStore, Message: message, Err: cause}
}

// KindOf 取得錯誤分類，非 *Error 一律視為 KindStore.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStore
}

// IsStore 判斷是否為明確標記的儲存層錯誤；未包裝的錯誤不算.
func IsStore(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == KindStore
}

// MessageOf 取得可對外顯示的訊息.
func MessageOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// IsMissing 判斷是否為「不存在」或「ID 格式錯誤」，兩者對外都視為 404.
func IsMissing(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidID)
}
