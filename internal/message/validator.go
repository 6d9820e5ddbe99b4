package message

import (
	"strings"

	"cipher-canvas/internal/apperror"
	"cipher-canvas/internal/platform/middleware"
)

const msgMissingFields = "Please provide encryptedContent, visualSeed, and emotionPalette"

// Normalize 只去除首尾空白，情緒色盤轉為小寫；內容其餘位元組原樣保留.
func (r *CreateMessageRequest) Normalize() {
	r.EncryptedContent = strings.TrimSpace(r.EncryptedContent)
	r.VisualSeed = strings.TrimSpace(r.VisualSeed)
	r.EmotionPalette = strings.ToLower(strings.TrimSpace(r.EmotionPalette))
	r.Hint = strings.TrimSpace(r.Hint)
}

// Validate 驗證必填欄位與長度，需先呼叫 Normalize.
func (r *CreateMessageRequest) Validate() error {
	if r.EncryptedContent == "" || r.VisualSeed == "" || r.EmotionPalette == "" {
		return apperror.Validation(msgMissingFields)
	}

	fields := []struct {
		name  string
		value string
	}{
		{"encryptedContent", r.EncryptedContent},
		{"visualSeed", r.VisualSeed},
		{"emotionPalette", r.EmotionPalette},
		{"hint", r.Hint},
	}
	for _, f := range fields {
		if err := middleware.ValidateTextField(f.name, f.value); err != nil {
			return apperror.Validation(err.Error())
		}
	}
	return nil
}
