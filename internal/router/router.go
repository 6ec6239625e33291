package router

import (
	"time"

	"thrivex/internal/handlers"
	"thrivex/internal/interchange"
	"thrivex/internal/middleware"
	"thrivex/internal/services"
	"thrivex/pkg/config"
	"thrivex/pkg/response"

	"github.com/gin-gonic/gin"
)

// Services 路由依赖的服务
type Services struct {
	Auth        *services.AuthService
	Roles       *services.RoleService
	Routes      *services.RouteService
	Permissions *services.PermissionService
	Tags        *services.TagService
	Cates       *services.CateService
	Articles    *services.ArticleService
	Imports     *services.ImportService
	Hub         *services.ProgressHub // 为空时不注册 /ws/import
	Codec       interchange.Codec
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc *Services) *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS(cfg.CORS))

	registerRoutes(router, cfg, svc)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine, cfg *config.Config, svc *Services) {
	auth := middleware.NewAuthMiddleware(svc.Auth)

	api := router.Group("/api/v1")
	{
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		authHandler := handlers.NewAuthHandler(svc.Auth)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", auth.RequireLogin(), authHandler.Logout)
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
			authGroup.GET("/access", auth.RequireLogin(), authHandler.Access)
		}

		roleHandler := handlers.NewRoleHandler(svc.Roles)
		roles := api.Group("/roles", auth.RequireLogin())
		{
			roles.POST("", auth.RequirePermission("role:add"), roleHandler.Create)
			roles.GET("", auth.RequirePermission("role:list"), roleHandler.List)
			roles.GET("/:id", auth.RequirePermission("role:info"), roleHandler.GetByID)
			roles.PUT("/:id", auth.RequirePermission("role:edit"), roleHandler.Update)
			roles.DELETE("/:id", auth.RequirePermission("role:del"), roleHandler.Delete)

			// 页面与权限绑定
			roles.GET("/:id/binding", auth.RequirePermission("role:info"), roleHandler.GetBinding)
			roles.PATCH("/:id/binding", auth.RequirePermission("role:bindingRoute"), roleHandler.Bind)
			roles.GET("/:id/routes", auth.RequirePermission("role:info"), roleHandler.GetRoutes)
			roles.GET("/:id/permissions", auth.RequirePermission("role:info"), roleHandler.GetPermissions)
		}

		routeHandler := handlers.NewRouteHandler(svc.Routes)
		routes := api.Group("/routes", auth.RequireLogin())
		{
			routes.GET("", auth.RequirePermission("route:list"), routeHandler.List)
			routes.POST("", auth.RequirePermission("route:add"), routeHandler.Create)
		}

		permissionHandler := handlers.NewPermissionHandler(svc.Permissions)
		permissions := api.Group("/permissions", auth.RequireLogin())
		{
			permissions.GET("", auth.RequirePermission("permission:list"), permissionHandler.List)
			permissions.POST("", auth.RequirePermission("permission:add"), permissionHandler.Create)
		}

		tagHandler := handlers.NewTagHandler(svc.Tags)
		tags := api.Group("/tags", auth.RequireLogin())
		{
			tags.GET("", tagHandler.List)
			tags.POST("", auth.RequirePermission("tag:add"), tagHandler.Create)
		}

		cateHandler := handlers.NewCateHandler(svc.Cates)
		cates := api.Group("/cates", auth.RequireLogin())
		{
			cates.GET("", cateHandler.List)
			cates.POST("", auth.RequirePermission("cate:add"), cateHandler.Create)
		}

		articleHandler := handlers.NewArticleHandler(svc.Articles, svc.Imports, svc.Codec)
		articles := api.Group("/articles", auth.RequireLogin())
		{
			articles.POST("", auth.RequirePermission("article:add"), articleHandler.Create)
			articles.GET("", articleHandler.List)

			// 导入导出
			articles.POST("/import", auth.RequirePermission("article:add"), articleHandler.Import)
			articles.GET("/import/template", articleHandler.ImportTemplate)
			articles.GET("/import/logs", articleHandler.ImportLogs)
			articles.POST("/export", articleHandler.Export)

			articles.GET("/:id", articleHandler.GetByID)
			articles.GET("/:id/export", articleHandler.ExportOne)
		}
	}

	if svc.Hub != nil {
		wsHandler := handlers.NewWebSocketHandler(svc.Auth, svc.Hub, cfg.CORS.AllowOrigins)
		router.GET("/ws/import", wsHandler.ImportProgress)
	}
}

func healthCheck(c *gin.Context) {
	data := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "ThriveX",
		"version":   "1.0.0",
	}
	response.Success(c, data)
}

func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
