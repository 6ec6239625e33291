package services

import (
	"context"
	"errors"
	"strings"

	"thrivex/internal/interchange"
	"thrivex/internal/models"

	"gorm.io/gorm"
)

type CateService struct {
	db *gorm.DB
}

func NewCateService(db *gorm.DB) *CateService {
	return &CateService{db: db}
}

// List 获取分类，cateType 为空时返回全部（含导航）
func (s *CateService) List(ctx context.Context, cateType string) ([]models.Cate, error) {
	var cates []models.Cate
	query := s.db.WithContext(ctx).Model(&models.Cate{})
	if cateType != "" {
		query = query.Where("type = ?", cateType)
	}
	err := query.Order("sort").Order("id").Find(&cates).Error
	return cates, err
}

// Create 创建分类
func (s *CateService) Create(ctx context.Context, cate *models.Cate) error {
	cate.Name = strings.TrimSpace(cate.Name)
	if cate.Name == "" {
		return errors.New("分类名称不能为空")
	}
	if cate.Type == "" {
		cate.Type = models.CateTypeCate
	}
	if cate.Type != models.CateTypeCate && cate.Type != models.CateTypeNav {
		return errors.New("分类类型只能是cate或nav")
	}
	return s.db.WithContext(ctx).Create(cate).Error
}

// Named 导入时用于名称解析的分类表，只包含文章分类
func (s *CateService) Named(ctx context.Context) ([]interchange.Named, error) {
	cates, err := s.List(ctx, models.CateTypeCate)
	if err != nil {
		return nil, err
	}
	named := make([]interchange.Named, 0, len(cates))
	for _, c := range cates {
		named = append(named, interchange.Named{ID: c.ID, Name: c.Name})
	}
	return named, nil
}
