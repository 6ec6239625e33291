package services

import (
	"context"
	"errors"

	"thrivex/internal/models"

	"gorm.io/gorm"
)

var ErrPermissionExists = errors.New("权限标识已存在")

type PermissionService struct {
	db *gorm.DB
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

// List 获取权限，group 为空时返回全部
func (s *PermissionService) List(ctx context.Context, group string) ([]models.Permission, error) {
	var permissions []models.Permission
	query := s.db.WithContext(ctx).Model(&models.Permission{})
	if group != "" {
		query = query.Where("group_name = ?", group)
	}
	err := query.Order("id").Find(&permissions).Error
	return permissions, err
}

// Create 创建权限
func (s *PermissionService) Create(ctx context.Context, name, description, group string) (*models.Permission, error) {
	var count int64
	s.db.WithContext(ctx).Model(&models.Permission{}).Where("name = ?", name).Count(&count)
	if count > 0 {
		return nil, ErrPermissionExists
	}

	permission := &models.Permission{Name: name, Description: description, Group: group}
	err := s.db.WithContext(ctx).Create(permission).Error
	return permission, err
}
