package logger

import (
	"io"
	"os"
	"path/filepath"

	"thrivex/pkg/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger *logrus.Logger

// 日志字段名，导入与角色绑定的日志统一使用
const (
	FieldBatchID    = "batch_id"
	FieldOperatorID = "operator_id"
	FieldRoleID     = "role_id"
	FieldFile       = "file"
	FieldTitle      = "title"
	FieldStatus     = "status"
)

// Initialize 初始化日志
func Initialize(cfg *config.Config) error {
	Logger = logrus.New()

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)

	if cfg.Log.Format == "json" {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if cfg.Log.FilePath != "" {
		logDir := filepath.Dir(cfg.Log.FilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return err
		}

		// 配置日志轮转
		rotateLogger := &lumberjack.Logger{
			Filename:   cfg.Log.FilePath,
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
			Compress:   cfg.Log.Compress,
		}

		// 同时输出到文件和控制台
		Logger.SetOutput(io.MultiWriter(os.Stdout, rotateLogger))
	}

	return nil
}

// GetLogger 获取日志实例，未初始化时返回标准logrus实例
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return logrus.StandardLogger()
	}
	return Logger
}

// ForImport 某个导入批次的日志
func ForImport(batchID string, operatorID uint) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		FieldBatchID:    batchID,
		FieldOperatorID: operatorID,
	})
}

// ForImportItem 批次内单个文件或文章的日志
func ForImportItem(batch *logrus.Entry, file, title, status string) *logrus.Entry {
	return batch.WithFields(logrus.Fields{
		FieldFile:   file,
		FieldTitle:  title,
		FieldStatus: status,
	})
}

// ForBinding 角色绑定的日志，operatorID 为 0 时不记录操作者
func ForBinding(roleID, operatorID uint) *logrus.Entry {
	fields := logrus.Fields{FieldRoleID: roleID}
	if operatorID != 0 {
		fields[FieldOperatorID] = operatorID
	}
	return GetLogger().WithFields(fields)
}
