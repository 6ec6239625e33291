package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"thrivex/pkg/logger"

	"github.com/robfig/cron/v3"
)

// ImportLogCleaner 定时清理过期的导入记录
type ImportLogCleaner struct {
	imports   *ImportService
	cron      *cron.Cron
	spec      string
	retention time.Duration
	mu        sync.Mutex
	running   bool
}

// NewImportLogCleaner 创建清理器，retentionDays 为记录保留天数
func NewImportLogCleaner(imports *ImportService, spec string, retentionDays int) *ImportLogCleaner {
	return &ImportLogCleaner{
		imports:   imports,
		cron:      cron.New(),
		spec:      spec,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Start 启动定时清理
func (c *ImportLogCleaner) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("清理任务已经在运行")
	}
	if c.retention <= 0 {
		return fmt.Errorf("导入记录保留天数必须大于0")
	}

	if _, err := c.cron.AddFunc(c.spec, func() { c.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("无效的cron表达式: %s", c.spec)
	}

	c.cron.Start()
	c.running = true
	logger.GetLogger().Infof("导入记录清理任务已启动，cron: %s，保留 %s", c.spec, c.retention)
	return nil
}

// Stop 停止定时清理
func (c *ImportLogCleaner) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	<-c.cron.Stop().Done()
	c.running = false
	logger.GetLogger().Info("导入记录清理任务已停止")
}

// RunOnce 立即清理一次
func (c *ImportLogCleaner) RunOnce(ctx context.Context) int64 {
	deleted, err := c.imports.CleanupBefore(ctx, time.Now().Add(-c.retention))
	if err != nil {
		logger.GetLogger().WithError(err).Error("清理导入记录失败")
		return 0
	}
	if deleted > 0 {
		logger.GetLogger().Infof("已清理 %d 条过期导入记录", deleted)
	}
	return deleted
}
