package identity

import (
	"context"
	"errors"

	"cipher-canvas/internal/apperror"
	"cipher-canvas/internal/platform/logger"
	"cipher-canvas/internal/security/audit"
	"cipher-canvas/internal/storage/database"
)

// 對外訊息
const (
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgAccountInactive    = "Account is deactivated"
	msgNotAuthorized      = "Not authorized"
)

// AuthResult 註冊或登入成功後回傳的用戶與 token.
type AuthResult struct {
	User  *database.User `json:"user"`
	Token string         `json:"token"`
}

// Service 用戶註冊、登入與 token 驗證.
type Service struct {
	users      database.UserRepository
	tokens     *JWTManager
	bcryptCost int
	audit      *audit.AuditService
}

// NewService 建立身分服務.
func NewService(users database.UserRepository, tokens *JWTManager, bcryptCost int, auditor *audit.AuditService) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		audit:      auditor,
	}
}

// Register 建立新用戶並簽發 token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, apperror.Store("Failed to register user", err)
	}

	user := database.NewUser(req.Username, req.Email, hash)
	user.FirstName = req.FirstName
	user.LastName = req.LastName

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			return nil, apperror.Conflict(msgUserExists, err)
		}
		return nil, apperror.Store("Failed to register user", err)
	}

	token, _, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, apperror.Store("Failed to register user", err)
	}

	s.audit.LogRegistration(ctx, user.ID.Hex(), user.Username)
	return &AuthResult{User: user, Token: token}, nil
}

// Login 驗證信箱與密碼，成功時更新最後登入時間.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperror.IsMissing(err) {
			s.audit.LogAuthenticationFailure(ctx, req.Email, "unknown email")
			return nil, apperror.Authentication(msgInvalidCredentials)
		}
		return nil, apperror.Store("Failed to login", err)
	}

	if err := CheckPassword(user.Password, req.Password); err != nil {
		s.audit.LogAuthenticationFailure(ctx, user.ID.Hex(), "wrong password")
		return nil, apperror.Authentication(msgInvalidCredentials)
	}
	if !user.IsActive {
		s.audit.LogAuthenticationFailure(ctx, user.ID.Hex(), "inactive account")
		return nil, apperror.Authentication(msgAccountInactive)
	}

	now := database.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.Warning(ctx, "更新最後登入時間失敗", logger.WithUserID(user.ID.Hex()), logger.WithError(err))
	} else {
		user.LastLogin = &now
		user.UpdatedAt = now
	}

	token, _, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, apperror.Store("Failed to login", err)
	}

	s.audit.LogLogin(ctx, user.ID.Hex())
	return &AuthResult{User: user, Token: token}, nil
}

// Me 取得目前登入的用戶.
func (s *Service) Me(ctx context.Context, userID string) (*database.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsMissing(err) {
			return nil, apperror.Authentication(msgNotAuthorized)
		}
		return nil, apperror.Store("Failed to fetch user", err)
	}
	return user, nil
}

// Authenticate 驗證 token 並確認用戶存在且啟用中，供認證中間件使用.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return "", apperror.Authentication(msgNotAuthorized)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperror.IsMissing(err) {
			return "", apperror.Authentication(msgNotAuthorized)
		}
		return "", apperror.Store("Failed to authenticate", err)
	}
	if !user.IsActive {
		return "", apperror.Authentication(msgAccountInactive)
	}
	return user.ID.Hex(), nil
}
