package services

import (
	"context"
	"errors"

	"thrivex/internal/models"

	"gorm.io/gorm"
)

var ErrRouteExists = errors.New("页面路径已存在")

type RouteService struct {
	db *gorm.DB
}

func NewRouteService(db *gorm.DB) *RouteService {
	return &RouteService{db: db}
}

// List 获取全部页面
func (s *RouteService) List(ctx context.Context) ([]models.Route, error) {
	var routes []models.Route
	err := s.db.WithContext(ctx).Order("id").Find(&routes).Error
	return routes, err
}

// Create 创建页面
func (s *RouteService) Create(ctx context.Context, path, description string) (*models.Route, error) {
	var count int64
	s.db.WithContext(ctx).Model(&models.Route{}).Where("path = ?", path).Count(&count)
	if count > 0 {
		return nil, ErrRouteExists
	}

	route := &models.Route{Path: path, Description: description}
	err := s.db.WithContext(ctx).Create(route).Error
	return route, err
}
