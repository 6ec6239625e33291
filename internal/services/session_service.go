package services

import (
	"context"
	"time"

	"thrivex/pkg/cache"
	"thrivex/pkg/logger"
)

// SessionService 令牌吊销：注销、修改自身角色后强制重新登录
type SessionService struct {
	store *cache.Store
}

// NewSessionService 创建会话服务
func NewSessionService(store *cache.Store) *SessionService {
	return &SessionService{store: store}
}

func revokedKey(tokenID string) string {
	return "session:revoked:" + tokenID
}

// Revoke 吊销令牌，记录保留到令牌过期为止
func (s *SessionService) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.store.Set(ctx, revokedKey(tokenID), "1", ttl); err != nil {
		return err
	}
	logger.GetLogger().WithField("token_id", tokenID).Info("Token revoked")
	return nil
}

// IsRevoked 令牌是否已被吊销
func (s *SessionService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	return s.store.Exists(ctx, revokedKey(tokenID))
}
