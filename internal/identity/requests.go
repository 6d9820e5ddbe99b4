package identity

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"cipher-canvas/internal/apperror"
	"cipher-canvas/internal/constants"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^\w+([\.-]?\w+)*@\w+([\.-]?\w+)*(\.\w{2,3})+$`)
)

// RegisterRequest 註冊請求.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Normalize 去除空白並將信箱轉小寫.
func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

// Validate 驗證註冊欄位，需先呼叫 Normalize.
func (r *RegisterRequest) Validate() error {
	switch {
	case r.Username == "" || r.Email == "" || r.Password == "":
		return apperror.Validation("Please provide username, email, and password")
	case utf8.RuneCountInString(r.Username) < constants.MinUsernameLength:
		return apperror.Validation(fmt.Sprintf("Username must be at least %d characters", constants.MinUsernameLength))
	case utf8.RuneCountInString(r.Username) > constants.MaxUsernameLength:
		return apperror.Validation(fmt.Sprintf("Username cannot exceed %d characters", constants.MaxUsernameLength))
	case !usernamePattern.MatchString(r.Username):
		return apperror.Validation("Username can only contain letters, numbers, and underscores")
	case !emailPattern.MatchString(r.Email):
		return apperror.Validation("Please provide a valid email address")
	case len(r.Password) < constants.MinPasswordLength:
		return apperror.Validation(fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case len(r.Password) > constants.MaxPasswordLength:
		return apperror.Validation(fmt.Sprintf("Password cannot exceed %d characters", constants.MaxPasswordLength))
	case utf8.RuneCountInString(r.FirstName) > constants.MaxProfileNameLen:
		return apperror.Validation(fmt.Sprintf("First name cannot exceed %d characters", constants.MaxProfileNameLen))
	case utf8.RuneCountInString(r.LastName) > constants.MaxProfileNameLen:
		return apperror.Validation(fmt.Sprintf("Last name cannot exceed %d characters", constants.MaxProfileNameLen))
	}
	return nil
}

// LoginRequest 登入請求.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate 驗證登入欄位.
func (r *LoginRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" || r.Password == "" {
		return apperror.Validation("Please provide email and password")
	}
	return nil
}
