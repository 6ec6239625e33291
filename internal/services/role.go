package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"thrivex/internal/models"
	"thrivex/internal/rbac"
	"thrivex/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrRoleMarkExists = errors.New("角色标识已存在")
	ErrRoleInUse      = errors.New("该角色下仍有用户，无法删除")
	ErrBuiltinRole    = errors.New("内置角色不允许删除")
	ErrRoleName       = errors.New("角色名称长度必须在2-50个字符之间")
)

// Operator 发起请求的用户
type Operator struct {
	Context   *rbac.PermissionContext
	TokenID   string
	ExpiresAt time.Time
}

// RoleBinding 角色绑定页面所需的全部状态
type RoleBinding struct {
	Role                 rbac.Role                  `json:"role"`
	Routes               []rbac.Route               `json:"routes"`
	Groups               rbac.Groups                `json:"groups"`
	TargetRouteKeys      []uint                     `json:"targetRouteKeys"`
	TargetPermissionKeys []uint                     `json:"targetPermissionKeys"`
	Selection            *rbac.Selection            `json:"selection"`
	States               map[string]rbac.GroupState `json:"states"`
}

type RoleService struct {
	db       *gorm.DB
	contexts *PermissionContextService
	sessions *SessionService
}

func NewRoleService(db *gorm.DB, contexts *PermissionContextService, sessions *SessionService) *RoleService {
	return &RoleService{
		db:       db,
		contexts: contexts,
		sessions: sessions,
	}
}

// ========== 基础CRUD方法 ==========

// Create 创建角色
func (s *RoleService) Create(ctx context.Context, name, mark, description string) (*models.Role, error) {
	if !s.ValidateName(name) {
		return nil, ErrRoleName
	}

	var count int64
	s.db.WithContext(ctx).Model(&models.Role{}).Where("mark = ?", mark).Count(&count)
	if count > 0 {
		return nil, ErrRoleMarkExists
	}

	role := &models.Role{Name: name, Mark: mark, Description: description}
	err := s.db.WithContext(ctx).Create(role).Error
	return role, err
}

// GetByID 根据ID获取角色
func (s *RoleService) GetByID(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).First(&role, id).Error
	return &role, err
}

// List 获取全部角色
func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).Order("id").Find(&roles).Error
	return roles, err
}

// Update 更新角色名称与描述
func (s *RoleService) Update(ctx context.Context, id uint, name, description string) (*models.Role, error) {
	if !s.ValidateName(name) {
		return nil, ErrRoleName
	}

	role, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	role.Name = name
	role.Description = description

	err = s.db.WithContext(ctx).Save(role).Error
	return role, err
}

// Delete 删除角色，内置角色和仍被使用的角色不能删除
func (s *RoleService) Delete(ctx context.Context, id uint) error {
	role, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if role.Mark == models.RoleMarkAdmin {
		return ErrBuiltinRole
	}

	var users int64
	s.db.WithContext(ctx).Model(&models.User{}).Where("role_id = ?", id).Count(&users)
	if users > 0 {
		return ErrRoleInUse
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(role).Association("Routes").Clear(); err != nil {
			return err
		}
		if err := tx.Model(role).Association("Permissions").Clear(); err != nil {
			return err
		}
		return tx.Delete(role).Error
	})
	if err != nil {
		return err
	}
	return s.contexts.Invalidate(ctx, id)
}

// ValidateName 验证角色名称
func (s *RoleService) ValidateName(name string) bool {
	runeCount := utf8.RuneCountInString(name)
	return runeCount >= 2 && runeCount <= 50
}

// ========== 页面与权限绑定 ==========

// Routes 页面总表
func (s *RoleService) Routes(ctx context.Context) ([]rbac.Route, error) {
	var routes []models.Route
	if err := s.db.WithContext(ctx).Order("id").Find(&routes).Error; err != nil {
		return nil, err
	}
	return toRBACRoutes(routes), nil
}

// Permissions 权限总表
func (s *RoleService) Permissions(ctx context.Context) ([]rbac.Permission, error) {
	var permissions []models.Permission
	if err := s.db.WithContext(ctx).Order("id").Find(&permissions).Error; err != nil {
		return nil, err
	}
	return toRBACPermissions(permissions), nil
}

// RoleRouteIDs 角色已绑定的页面ID
func (s *RoleService) RoleRouteIDs(ctx context.Context, roleID uint) ([]uint, error) {
	ids := make([]uint, 0)
	err := s.db.WithContext(ctx).Table("role_routes").
		Where("role_id = ?", roleID).Order("route_id").Pluck("route_id", &ids).Error
	return ids, err
}

// RolePermissionIDs 角色已绑定的权限ID
func (s *RoleService) RolePermissionIDs(ctx context.Context, roleID uint) ([]uint, error) {
	ids := make([]uint, 0)
	err := s.db.WithContext(ctx).Table("role_permissions").
		Where("role_id = ?", roleID).Order("permission_id").Pluck("permission_id", &ids).Error
	return ids, err
}

// GetRoutes 获取角色的页面
func (s *RoleService) GetRoutes(ctx context.Context, roleID uint) ([]models.Route, error) {
	var role models.Role
	err := s.db.WithContext(ctx).Preload("Routes").First(&role, roleID).Error
	if err != nil {
		return nil, err
	}
	return role.Routes, nil
}

// GetPermissions 获取角色的权限
func (s *RoleService) GetPermissions(ctx context.Context, roleID uint) ([]models.Permission, error) {
	var role models.Role
	err := s.db.WithContext(ctx).Preload("Permissions").First(&role, roleID).Error
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}

// Bind 在一个事务中同时替换角色的页面和权限
func (s *RoleService) Bind(ctx context.Context, roleID uint, routeIDs, permissionIDs []uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, roleID).Error; err != nil {
			return err
		}

		var routes []models.Route
		if err := tx.Where("id IN ?", routeIDs).Find(&routes).Error; err != nil {
			return err
		}
		var permissions []models.Permission
		if err := tx.Where("id IN ?", permissionIDs).Find(&permissions).Error; err != nil {
			return err
		}

		if err := tx.Model(&role).Association("Routes").Replace(routes); err != nil {
			return err
		}
		return tx.Model(&role).Association("Permissions").Replace(permissions)
	})
	if err != nil {
		return err
	}

	if err := s.contexts.Invalidate(ctx, roleID); err != nil {
		logger.ForBinding(roleID, 0).WithError(err).Warn("清除权限缓存失败")
	}
	return nil
}

// GetBinding 加载角色的绑定状态（分组勾选、全选/半选）
func (s *RoleService) GetBinding(ctx context.Context, roleID uint) (*RoleBinding, error) {
	role, err := s.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	ed, err := rbac.NewEditor(s, s).Load(ctx, toRBACRole(role))
	if err != nil {
		return nil, err
	}

	return &RoleBinding{
		Role:                 ed.Role,
		Routes:               ed.Routes,
		Groups:               ed.Selection.Groups(),
		TargetRouteKeys:      ed.RouteIDs,
		TargetPermissionKeys: ed.PermissionIDs(),
		Selection:            ed.Selection,
		States:               ed.Selection.States(),
	}, nil
}

// BindRoutesAndPermissions 保存角色的页面与权限
//
// 不存在的页面、权限ID会被忽略；任一列表为空时返回 *rbac.ValidationError 且不做任何修改。
// 修改的是操作者自己的角色时吊销其当前令牌，结果中 Relogin 为 true。
func (s *RoleService) BindRoutesAndPermissions(ctx context.Context, roleID uint, routeIDs, permissionIDs []uint, op Operator) (rbac.SubmitResult, error) {
	role, err := s.GetByID(ctx, roleID)
	if err != nil {
		return rbac.SubmitResult{}, err
	}

	editor := rbac.NewEditor(s, s)
	ed, err := editor.Load(ctx, toRBACRole(role))
	if err != nil {
		return rbac.SubmitResult{}, err
	}

	known := make(map[uint]struct{}, len(ed.Routes))
	for _, r := range ed.Routes {
		known[r.ID] = struct{}{}
	}
	selectedRoutes := make([]uint, 0, len(routeIDs))
	for _, id := range routeIDs {
		if _, ok := known[id]; ok {
			selectedRoutes = append(selectedRoutes, id)
		}
	}
	if err := editor.SetRoutes(selectedRoutes); err != nil {
		return rbac.SubmitResult{}, err
	}
	for _, key := range ed.Selection.Groups().Keys() {
		if err := editor.SetGroup(key, permissionIDs); err != nil {
			return rbac.SubmitResult{}, err
		}
	}

	result, err := editor.Submit(ctx, op.Context)
	if err != nil {
		return rbac.SubmitResult{}, err
	}

	if result.Relogin {
		if err := s.sessions.Revoke(ctx, op.TokenID, op.ExpiresAt); err != nil {
			logger.GetLogger().WithError(err).Warn("吊销令牌失败")
		}
	}

	var operatorID uint
	if op.Context != nil {
		operatorID = op.Context.UserID
	}
	logger.ForBinding(roleID, operatorID).WithFields(logrus.Fields{
		"routes":  len(selectedRoutes),
		"relogin": result.Relogin,
	}).Info("Role binding updated")
	return result, nil
}

func toRBACRole(role *models.Role) rbac.Role {
	return rbac.Role{ID: role.ID, Name: role.Name, Mark: role.Mark, Description: role.Description}
}
