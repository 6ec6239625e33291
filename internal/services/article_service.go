package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"thrivex/internal/interchange"
	"thrivex/internal/models"
	"thrivex/pkg/pagination"

	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// ArticleQuery 文章筛选条件，日期为毫秒时间戳，按整天计算
type ArticleQuery struct {
	Key       string
	CateID    uint
	TagID     uint
	IsDraft   *int
	IsDel     *int
	StartDate int64
	EndDate   int64
}

type ArticleService struct {
	db       *gorm.DB
	location *time.Location
}

func NewArticleService(db *gorm.DB, location *time.Location) *ArticleService {
	if location == nil {
		location = time.Local
	}
	return &ArticleService{db: db, location: location}
}

// Create 保存文章及其分类、标签和配置
//
// 不存在的标签、分类ID被忽略；导航类型的分类不能作为文章分类。
func (s *ArticleService) Create(ctx context.Context, a interchange.Article) (*models.Article, error) {
	title := strings.TrimSpace(a.Title)
	if title == "" {
		return nil, errors.New("文章标题不能为空")
	}

	cfg := a.Config
	if cfg.Status == "" {
		cfg.Status = models.ArticleStatusDefault
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.New("文章配置无效: " + err.Error())
	}

	createTime := time.Now().UnixMilli()
	if t, ok := a.CreateTime.Time(); ok {
		createTime = t.UnixMilli()
	}

	article := &models.Article{
		Title:       title,
		Description: a.Description,
		Content:     a.Content,
		Cover:       a.Cover,
		CreateTime:  createTime,
		Config: &models.ArticleConfig{
			Status:    cfg.Status,
			Password:  cfg.Password,
			IsDraft:   cfg.IsDraft,
			IsEncrypt: cfg.IsEncrypt,
			IsDel:     cfg.IsDel,
		},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(a.TagIDs) > 0 {
			if err := tx.Where("id IN ?", a.TagIDs).Find(&article.Tags).Error; err != nil {
				return err
			}
		}
		if len(a.CateIDs) > 0 {
			if err := tx.Where("id IN ? AND type = ?", a.CateIDs, models.CateTypeCate).Find(&article.Cates).Error; err != nil {
				return err
			}
		}
		return tx.Create(article).Error
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

// Submit 导入时逐篇保存
func (s *ArticleService) Submit(ctx context.Context, a interchange.Article) error {
	_, err := s.Create(ctx, a)
	return err
}

// GetByID 获取文章详情
func (s *ArticleService) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	err := s.preload(s.db.WithContext(ctx)).First(&article, id).Error
	return &article, err
}

func (s *ArticleService) preload(db *gorm.DB) *gorm.DB {
	return db.Preload("Tags").Preload("Cates").Preload("Config")
}

func (s *ArticleService) configFilter(column string, value int) *gorm.DB {
	return s.db.Model(&models.ArticleConfig{}).Select("article_id").Where(column+" = ?", value)
}

// List 分页查询文章，默认只查未删除的
func (s *ArticleService) List(ctx context.Context, q ArticleQuery, page, pageSize int) ([]models.Article, int64, error) {
	var articles []models.Article
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Article{})
	if q.Key != "" {
		query = query.Where("title LIKE ?", "%"+q.Key+"%")
	}
	if q.CateID != 0 {
		query = query.Where("id IN (?)", s.db.Table("article_cates").Select("article_id").Where("cate_id = ?", q.CateID))
	}
	if q.TagID != 0 {
		query = query.Where("id IN (?)", s.db.Table("article_tags").Select("article_id").Where("tag_id = ?", q.TagID))
	}
	if q.IsDraft != nil {
		query = query.Where("id IN (?)", s.configFilter("is_draft", *q.IsDraft))
	}
	isDel := 0
	if q.IsDel != nil {
		isDel = *q.IsDel
	}
	query = query.Where("id IN (?)", s.configFilter("is_del", isDel))

	cfg := &now.Config{TimeLocation: s.location}
	if q.StartDate > 0 {
		start := cfg.With(time.UnixMilli(q.StartDate)).BeginningOfDay()
		query = query.Where("create_time >= ?", start.UnixMilli())
	}
	if q.EndDate > 0 {
		end := cfg.With(time.UnixMilli(q.EndDate)).EndOfDay()
		query = query.Where("create_time <= ?", end.UnixMilli())
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := s.preload(query).Order("create_time DESC").Order("id DESC").Scopes(pagination.Scope(page, pageSize)).Find(&articles).Error
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// ListForExport 按ID获取待导出文章，ids 为空时导出全部未删除文章
func (s *ArticleService) ListForExport(ctx context.Context, ids []uint) ([]interchange.Article, error) {
	var articles []models.Article
	query := s.preload(s.db.WithContext(ctx))
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	} else {
		query = query.Where("id IN (?)", s.configFilter("is_del", 0))
	}
	if err := query.Order("id").Find(&articles).Error; err != nil {
		return nil, err
	}

	out := make([]interchange.Article, 0, len(articles))
	for _, a := range articles {
		out = append(out, ToInterchange(a))
	}
	return out, nil
}

// ToInterchange 转换为交换格式
func ToInterchange(m models.Article) interchange.Article {
	a := interchange.Article{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Content:     m.Content,
		Cover:       m.Cover,
		CreateTime:  interchange.Timestamp(strconv.FormatInt(m.CreateTime, 10)),
		CateIDs:     make([]uint, 0, len(m.Cates)),
		TagIDs:      make([]uint, 0, len(m.Tags)),
		CateList:    make([]interchange.Ref, 0, len(m.Cates)),
		TagList:     make([]interchange.Ref, 0, len(m.Tags)),
		Config:      interchange.DefaultConfig(),
	}
	for _, c := range m.Cates {
		id := c.ID
		a.CateIDs = append(a.CateIDs, id)
		a.CateList = append(a.CateList, interchange.Ref{ID: &id, Name: c.Name})
	}
	for _, t := range m.Tags {
		id := t.ID
		a.TagIDs = append(a.TagIDs, id)
		a.TagList = append(a.TagList, interchange.Ref{ID: &id, Name: t.Name})
	}
	if m.Config != nil {
		a.Config = interchange.Config{
			Status:    m.Config.Status,
			Password:  m.Config.Password,
			IsDraft:   m.Config.IsDraft,
			IsEncrypt: m.Config.IsEncrypt,
			IsDel:     m.Config.IsDel,
		}
	}
	return a
}
