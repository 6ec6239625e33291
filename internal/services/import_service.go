package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"thrivex/internal/interchange"
	"thrivex/internal/models"
	"thrivex/pkg/cache"
	"thrivex/pkg/logger"
	"thrivex/pkg/pagination"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrTooManyFiles 单批次文件数超过上限
var ErrTooManyFiles = errors.New("单次最多导入的文件数已超出")

// ImportEvent 通过 WebSocket 推送的导入事件
type ImportEvent struct {
	Type     string                `json:"type"` // progress 或 done
	BatchID  string                `json:"batch_id"`
	Progress *interchange.Progress `json:"progress,omitempty"`
	Report   *interchange.Report   `json:"report,omitempty"`
}

const importProgressPrefix = "import:progress:"

// ImportProgressChannel 操作者的导入进度频道
func ImportProgressChannel(operatorID uint) string {
	return fmt.Sprintf("%s%d", importProgressPrefix, operatorID)
}

type ImportService struct {
	db       *gorm.DB
	articles *ArticleService
	tags     *TagService
	cates    *CateService
	store    *cache.Store
	codec    interchange.Codec
	maxFiles int
}

// NewImportService 创建导入服务，store 为空时不推送进度
func NewImportService(db *gorm.DB, articles *ArticleService, tags *TagService, cates *CateService, store *cache.Store, codec interchange.Codec, maxFiles int) *ImportService {
	return &ImportService{
		db:       db,
		articles: articles,
		tags:     tags,
		cates:    cates,
		store:    store,
		codec:    codec,
		maxFiles: maxFiles,
	}
}

// MaxFiles 单批次文件数上限
func (s *ImportService) MaxFiles() int {
	return s.maxFiles
}

// Import 导入一批文件并保存导入记录
//
// 标签和分类表在每批开始时重新加载；单篇文章保存失败不影响其他文章。
// 没有解析出任何文章时同样保存记录，并返回 interchange.ErrNoArticles。
// 批次一旦开始就执行到底，请求断开不会中止保存，也不会丢失导入记录。
func (s *ImportService) Import(ctx context.Context, operatorID uint, files []interchange.File) (*models.ImportLog, *interchange.Report, error) {
	if s.maxFiles > 0 && len(files) > s.maxFiles {
		return nil, nil, ErrTooManyFiles
	}
	ctx = context.WithoutCancel(ctx)

	tags, err := s.tags.Named(ctx)
	if err != nil {
		return nil, nil, err
	}
	cates, err := s.cates.Named(ctx)
	if err != nil {
		return nil, nil, err
	}

	batchID := uuid.NewString()
	log := logger.ForImport(batchID, operatorID)

	importer := &interchange.Importer{
		Codec:     s.codec,
		Tags:      tags,
		Cates:     cates,
		Submitter: s.articles,
		OnProgress: func(p interchange.Progress) {
			entry := logger.ForImportItem(log, p.Item.File, p.Item.Title, string(p.Item.Status))
			if p.Item.Error != "" {
				entry.WithField("error", p.Item.Error).Warn("Article import item failed")
			} else {
				entry.Debug("Article imported")
			}
			s.publish(ctx, operatorID, ImportEvent{Type: "progress", BatchID: batchID, Progress: &p})
		},
	}

	report, importErr := importer.Import(ctx, files)
	if importErr != nil && !errors.Is(importErr, interchange.ErrNoArticles) {
		return nil, nil, importErr
	}

	items, err := json.Marshal(report.Items)
	if err != nil {
		return nil, nil, err
	}
	record := &models.ImportLog{
		BatchID:    batchID,
		OperatorID: operatorID,
		Files:      len(files),
		Parsed:     report.Parsed,
		Imported:   report.Imported,
		Failed:     report.Failed,
		Invalid:    report.Invalid,
		Items:      datatypes.JSON(items),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, report, fmt.Errorf("保存导入记录失败: %v", err)
	}

	s.publish(ctx, operatorID, ImportEvent{Type: "done", BatchID: batchID, Report: report})
	log.WithFields(logrus.Fields{
		"parsed":   report.Parsed,
		"imported": report.Imported,
		"failed":   report.Failed,
		"invalid":  report.Invalid,
	}).Info("Article import finished")

	return record, report, importErr
}

func (s *ImportService) publish(ctx context.Context, operatorID uint, event ImportEvent) {
	if s.store == nil {
		return
	}
	if err := s.store.Publish(ctx, ImportProgressChannel(operatorID), event); err != nil {
		logger.GetLogger().WithError(err).Warn("推送导入进度失败")
	}
}

// ListLogs 分页获取导入记录，operatorID 为 0 时返回全部
func (s *ImportService) ListLogs(ctx context.Context, operatorID uint, page, pageSize int) ([]models.ImportLog, int64, error) {
	var logs []models.ImportLog
	var total int64

	query := s.db.WithContext(ctx).Model(&models.ImportLog{})
	if operatorID != 0 {
		query = query.Where("operator_id = ?", operatorID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").Scopes(pagination.Scope(page, pageSize)).Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// CleanupBefore 删除早于指定时间的导入记录
func (s *ImportService) CleanupBefore(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("created_at < ?", before).Delete(&models.ImportLog{})
	return result.RowsAffected, result.Error
}
