package services

import (
	"testing"

	"thrivex/internal/database"
	"thrivex/internal/models"
	"thrivex/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.MigrateDB(db))
	return db
}

func newTestStore(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewStoreWithClient(client, "test"), mr
}

type rbacFixture struct {
	routes      []models.Route
	permissions []models.Permission
	admin       *models.Role
	author      *models.Role
}

func seedRBAC(t *testing.T, db *gorm.DB) rbacFixture {
	t.Helper()
	f := rbacFixture{
		routes: []models.Route{
			{Path: "/", Description: "仪表盘"},
			{Path: "/article", Description: "文章管理"},
			{Path: "/role", Description: "角色管理"},
		},
		permissions: []models.Permission{
			{Name: "article:add", Group: "article"},
			{Name: "article:del", Group: "article"},
			{Name: "tag:add", Group: "tag"},
			{Name: "role:bindingRoute", Group: "role"},
		},
	}
	require.NoError(t, db.Create(&f.routes).Error)
	require.NoError(t, db.Create(&f.permissions).Error)

	f.admin = &models.Role{Name: "超级管理员", Mark: models.RoleMarkAdmin, Routes: f.routes, Permissions: f.permissions}
	f.author = &models.Role{Name: "作者", Mark: models.RoleMarkAuthor, Routes: f.routes[:2], Permissions: f.permissions[:1]}
	require.NoError(t, db.Create(f.admin).Error)
	require.NoError(t, db.Create(f.author).Error)
	return f
}

func newRoleService(t *testing.T, db *gorm.DB) (*RoleService, *PermissionContextService, *SessionService) {
	t.Helper()
	store, _ := newTestStore(t)
	contexts := NewPermissionContextService(db, store)
	sessions := NewSessionService(store)
	return NewRoleService(db, contexts, sessions), contexts, sessions
}
