package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"thrivex/internal/models"

	"gorm.io/gorm"
)

var ErrUsernameExists = errors.New("用户名已存在")

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Create 创建用户
func (s *UserService) Create(ctx context.Context, username, password, name string, roleID uint) (*models.User, error) {
	if err := s.ValidateCreateParams(username, password); err != nil {
		return nil, err
	}

	var count int64
	s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count)
	if count > 0 {
		return nil, ErrUsernameExists
	}

	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, roleID).Error; err != nil {
		return nil, fmt.Errorf("角色不存在")
	}

	user := &models.User{
		Username: username,
		Name:     name,
		RoleID:   roleID,
		Status:   models.UserStatusActive,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Create(user).Error
	return user, err
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").First(&user, id).Error
	return &user, err
}

// GetByUsername 根据用户名获取用户
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").Where("username = ?", username).First(&user).Error
	return &user, err
}

// UpdateLastLogin 更新最后登录时间
func (s *UserService) UpdateLastLogin(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login_at", time.Now()).Error
}

// IsActive 用户是否可用
func (s *UserService) IsActive(user *models.User) bool {
	return user.Status == models.UserStatusActive
}

// ValidateCreateParams 验证创建用户的参数
func (s *UserService) ValidateCreateParams(username, password string) error {
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return fmt.Errorf("用户名长度必须在3-50个字符之间")
	}
	if len(password) < 6 {
		return fmt.Errorf("密码长度不能少于6位")
	}
	return nil
}
