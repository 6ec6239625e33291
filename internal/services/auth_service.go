package services

import (
	"context"
	"errors"
	"time"

	"thrivex/internal/models"
	"thrivex/internal/rbac"
	"thrivex/pkg/jwt"
	"thrivex/pkg/logger"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserDisabled       = errors.New("用户已被禁用")
	ErrTokenRevoked       = errors.New("登录已失效，请重新登录")
)

// LoginResult 登录结果
type LoginResult struct {
	Token       string                  `json:"token"`
	ExpiresAt   int64                   `json:"expires_at"`
	User        *models.User            `json:"user"`
	Permissions *rbac.PermissionContext `json:"permissions"`
}

// Session 已认证的请求
type Session struct {
	Claims  *jwt.JWTClaims
	User    *models.User
	Context *rbac.PermissionContext
}

// Operator 转换为绑定操作所需的操作者信息
func (s *Session) Operator() Operator {
	op := Operator{Context: s.Context, TokenID: s.Claims.TokenID()}
	if s.Claims.ExpiresAt != nil {
		op.ExpiresAt = s.Claims.ExpiresAt.Time
	}
	return op
}

type AuthService struct {
	users      *UserService
	contexts   *PermissionContextService
	sessions   *SessionService
	jwtManager *jwt.JWTManager
}

func NewAuthService(users *UserService, contexts *PermissionContextService, sessions *SessionService, jwtManager *jwt.JWTManager) *AuthService {
	return &AuthService{
		users:      users,
		contexts:   contexts,
		sessions:   sessions,
		jwtManager: jwtManager,
	}
}

// Login 校验密码，签发令牌并返回权限快照
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !s.users.IsActive(user) {
		return nil, ErrUserDisabled
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	pc, err := s.contexts.Load(ctx, user.ID, user.RoleID)
	if err != nil {
		return nil, err
	}

	token, _, err := s.jwtManager.GenerateToken(user.ID, user.RoleID, user.Username)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.GetLogger().WithError(err).Warn("更新最后登录时间失败")
	}

	logger.GetLogger().WithFields(logrus.Fields{
		"user_id": user.ID,
		"role_id": user.RoleID,
	}).Info("User logged in")

	return &LoginResult{
		Token:       token,
		ExpiresAt:   time.Now().Add(s.jwtManager.GetTokenDuration()).Unix(),
		User:        user,
		Permissions: pc,
	}, nil
}

// Authenticate 校验令牌并加载权限快照，角色以数据库中的当前值为准
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := s.jwtManager.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !s.users.IsActive(user) {
		return nil, ErrUserDisabled
	}

	pc, err := s.contexts.Load(ctx, user.ID, user.RoleID)
	if err != nil {
		return nil, err
	}
	return &Session{Claims: claims, User: user, Context: pc}, nil
}

// Logout 吊销当前令牌
func (s *AuthService) Logout(ctx context.Context, claims *jwt.JWTClaims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.sessions.Revoke(ctx, claims.TokenID(), claims.ExpiresAt.Time)
}
