package services

import (
	"context"
	"errors"
	"strings"

	"thrivex/internal/interchange"
	"thrivex/internal/models"

	"gorm.io/gorm"
)

var ErrTagExists = errors.New("标签已存在")

type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

// List 获取全部标签
func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).Order("id").Find(&tags).Error
	return tags, err
}

// Create 创建标签，名称忽略大小写去重
func (s *TagService) Create(ctx context.Context, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("标签名称不能为空")
	}

	var count int64
	s.db.WithContext(ctx).Model(&models.Tag{}).Where("LOWER(name) = ?", strings.ToLower(name)).Count(&count)
	if count > 0 {
		return nil, ErrTagExists
	}

	tag := &models.Tag{Name: name}
	err := s.db.WithContext(ctx).Create(tag).Error
	return tag, err
}

// Named 导入时用于名称解析的标签表
func (s *TagService) Named(ctx context.Context) ([]interchange.Named, error) {
	tags, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	named := make([]interchange.Named, 0, len(tags))
	for _, t := range tags {
		named = append(named, interchange.Named{ID: t.ID, Name: t.Name})
	}
	return named, nil
}
