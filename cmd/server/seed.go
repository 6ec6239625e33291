package main

import (
	"fmt"

	"thrivex/internal/models"
	"thrivex/pkg/config"
	"thrivex/pkg/logger"

	"gorm.io/gorm"
)

// seedData 初始化种子数据：页面、权限、管理员与作者角色、默认管理员
func seedData(db *gorm.DB, cfg config.SeedConfig) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	if err := initializeRoutes(db); err != nil {
		return fmt.Errorf("初始化页面失败: %v", err)
	}
	if err := initializePermissions(db); err != nil {
		return fmt.Errorf("初始化权限失败: %v", err)
	}
	if err := createRoles(db); err != nil {
		return fmt.Errorf("创建角色失败: %v", err)
	}
	if err := createDefaultAdmin(db, cfg); err != nil {
		return fmt.Errorf("创建默认管理员失败: %v", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// initializeRoutes 初始化后台页面
func initializeRoutes(db *gorm.DB) error {
	defaultRoutes := []models.Route{
		{Path: "/", Description: "仪表盘"},
		{Path: "/create", Description: "发挥灵感"},
		{Path: "/draft", Description: "草稿箱"},
		{Path: "/recycle", Description: "回收站"},
		{Path: "/cate", Description: "分类管理"},
		{Path: "/article", Description: "文章管理"},
		{Path: "/tag", Description: "标签管理"},
		{Path: "/comment", Description: "评论管理"},
		{Path: "/user", Description: "用户管理"},
		{Path: "/setup", Description: "项目配置"},
		{Path: "/route", Description: "路由配置"},
		{Path: "/role", Description: "角色管理"},
	}

	for _, route := range defaultRoutes {
		if err := db.Where(models.Route{Path: route.Path}).FirstOrCreate(&route).Error; err != nil {
			return fmt.Errorf("创建页面 %s 失败: %v", route.Path, err)
		}
	}
	return nil
}

// initializePermissions 初始化权限，group 决定绑定页面上的分组
func initializePermissions(db *gorm.DB) error {
	defaultPermissions := []models.Permission{
		{Name: "article:add", Description: "新增文章", Group: "article"},
		{Name: "article:del", Description: "删除文章", Group: "article"},
		{Name: "article:edit", Description: "编辑文章", Group: "article"},
		{Name: "article:reduction", Description: "还原文章", Group: "article"},

		{Name: "cate:add", Description: "新增分类", Group: "cate"},
		{Name: "cate:del", Description: "删除分类", Group: "cate"},
		{Name: "cate:edit", Description: "编辑分类", Group: "cate"},

		{Name: "tag:add", Description: "新增标签", Group: "tag"},
		{Name: "tag:del", Description: "删除标签", Group: "tag"},
		{Name: "tag:edit", Description: "编辑标签", Group: "tag"},

		{Name: "role:add", Description: "新增角色", Group: "role"},
		{Name: "role:del", Description: "删除角色", Group: "role"},
		{Name: "role:edit", Description: "编辑角色", Group: "role"},
		{Name: "role:info", Description: "查看角色", Group: "role"},
		{Name: "role:list", Description: "角色列表", Group: "role"},
		{Name: "role:bindingRoute", Description: "分配权限", Group: "role"},

		{Name: "route:add", Description: "新增路由", Group: "route"},
		{Name: "route:list", Description: "路由列表", Group: "route"},

		{Name: "permission:add", Description: "新增权限", Group: "permission"},
		{Name: "permission:list", Description: "权限列表", Group: "permission"},
	}

	for _, perm := range defaultPermissions {
		if err := db.Where(models.Permission{Name: perm.Name}).FirstOrCreate(&perm).Error; err != nil {
			return fmt.Errorf("创建权限 %s 失败: %v", perm.Name, err)
		}
	}

	logger.GetLogger().Info("权限初始化完成")
	return nil
}

// createRoles 管理员拥有全部页面和权限，作者只拥有写作相关的
func createRoles(db *gorm.DB) error {
	var routes []models.Route
	var permissions []models.Permission
	if err := db.Find(&routes).Error; err != nil {
		return err
	}
	if err := db.Find(&permissions).Error; err != nil {
		return err
	}

	admin := models.Role{Name: "管理员", Mark: models.RoleMarkAdmin, Description: "拥有全部权限"}
	if err := ensureRole(db, &admin, routes, permissions); err != nil {
		return err
	}

	var authorRoutes []models.Route
	for _, r := range routes {
		switch r.Path {
		case "/", "/create", "/draft", "/article":
			authorRoutes = append(authorRoutes, r)
		}
	}
	var authorPermissions []models.Permission
	for _, p := range permissions {
		if p.Group == "article" {
			authorPermissions = append(authorPermissions, p)
		}
	}
	author := models.Role{Name: "作者", Mark: models.RoleMarkAuthor, Description: "文章写作"}
	return ensureRole(db, &author, authorRoutes, authorPermissions)
}

func ensureRole(db *gorm.DB, role *models.Role, routes []models.Route, permissions []models.Permission) error {
	var count int64
	db.Model(&models.Role{}).Where("mark = ?", role.Mark).Count(&count)
	if count > 0 {
		logger.GetLogger().Infof("角色 %s 已存在，跳过创建", role.Mark)
		return nil
	}

	role.Routes = routes
	role.Permissions = permissions
	if err := db.Create(role).Error; err != nil {
		return err
	}
	logger.GetLogger().Infof("角色 %s 创建成功", role.Mark)
	return nil
}

// createDefaultAdmin 创建默认管理员
func createDefaultAdmin(db *gorm.DB, cfg config.SeedConfig) error {
	var count int64
	db.Model(&models.User{}).Where("username = ?", cfg.AdminUsername).Count(&count)
	if count > 0 {
		logger.GetLogger().Info("默认管理员已存在，跳过创建")
		return nil
	}

	var role models.Role
	if err := db.Where("mark = ?", models.RoleMarkAdmin).First(&role).Error; err != nil {
		return err
	}

	admin := &models.User{
		Username: cfg.AdminUsername,
		Name:     "管理员",
		RoleID:   role.ID,
		Status:   models.UserStatusActive,
	}
	if err := admin.SetPassword(cfg.AdminPassword); err != nil {
		return err
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}

	logger.GetLogger().Warnf("已创建默认管理员 %s，请尽快修改密码", cfg.AdminUsername)
	return nil
}
