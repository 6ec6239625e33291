package services

import (
	"context"
	"fmt"
	"time"

	"thrivex/internal/models"
	"thrivex/internal/rbac"
	"thrivex/pkg/cache"
	"thrivex/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const permissionContextTTL = 30 * time.Minute

// PermissionContextService 加载角色的权限快照，Redis 缓存，角色绑定变化时失效
type PermissionContextService struct {
	db    *gorm.DB
	store *cache.Store
}

// NewPermissionContextService 创建权限快照服务，store 为空时不缓存
func NewPermissionContextService(db *gorm.DB, store *cache.Store) *PermissionContextService {
	return &PermissionContextService{db: db, store: store}
}

func permissionContextKey(roleID uint) string {
	return fmt.Sprintf("rbac:role:%d", roleID)
}

// Load 获取用户的权限快照
func (s *PermissionContextService) Load(ctx context.Context, userID, roleID uint) (*rbac.PermissionContext, error) {
	var cached rbac.PermissionContext
	if s.store != nil {
		ok, err := s.store.GetJSON(ctx, permissionContextKey(roleID), &cached)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("role_id", roleID).Warn("读取权限缓存失败，回退到数据库")
		} else if ok {
			cached.UserID = userID
			return &cached, nil
		}
	}

	var role models.Role
	err := s.db.WithContext(ctx).Preload("Routes").Preload("Permissions").First(&role, roleID).Error
	if err != nil {
		return nil, err
	}

	pc := rbac.NewPermissionContext(0, role.ID, toRBACPermissions(role.Permissions), toRBACRoutes(role.Routes))
	if s.store != nil {
		if err := s.store.SetJSON(ctx, permissionContextKey(roleID), pc, permissionContextTTL); err != nil {
			logger.GetLogger().WithError(err).WithField("role_id", roleID).Warn("写入权限缓存失败")
		}
	}

	pc.UserID = userID
	return pc, nil
}

// Invalidate 角色绑定变化后清除缓存
func (s *PermissionContextService) Invalidate(ctx context.Context, roleID uint) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Delete(ctx, permissionContextKey(roleID)); err != nil {
		return err
	}
	logger.GetLogger().WithFields(logrus.Fields{"role_id": roleID}).Debug("Permission context invalidated")
	return nil
}

func toRBACPermissions(list []models.Permission) []rbac.Permission {
	out := make([]rbac.Permission, 0, len(list))
	for _, p := range list {
		out = append(out, rbac.Permission{ID: p.ID, Name: p.Name, Description: p.Description, Group: p.Group})
	}
	return out
}

func toRBACRoutes(list []models.Route) []rbac.Route {
	out := make([]rbac.Route, 0, len(list))
	for _, r := range list {
		out = append(out, rbac.Route{ID: r.ID, Path: r.Path, Description: r.Description})
	}
	return out
}
