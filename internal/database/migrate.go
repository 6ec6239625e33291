package database

import (
	"thrivex/internal/models"
	"thrivex/pkg/logger"

	"gorm.io/gorm"
)

// Models 需要迁移的模型
func Models() []interface{} {
	return []interface{}{
		&models.Permission{},
		&models.Route{},
		&models.Role{},
		&models.User{},
		&models.Tag{},
		&models.Cate{},
		&models.Article{},
		&models.ArticleConfig{},
		&models.ImportLog{},
	}
}

// Migrate 执行数据库迁移
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB 对指定连接执行迁移
func MigrateDB(db *gorm.DB) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	if err := db.AutoMigrate(Models()...); err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}
