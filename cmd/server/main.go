package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thrivex/internal/database"
	"thrivex/internal/interchange"
	"thrivex/internal/router"
	"thrivex/internal/services"
	"thrivex/pkg/config"
	"thrivex/pkg/jwt"
	"thrivex/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger := logger.GetLogger()
	appLogger.Info("Starting ThriveX admin server...")

	// 初始化数据库
	if err := database.Initialize(cfg); err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			appLogger.Error("Failed to close database:", err)
		}
		if err := database.CloseRedisStore(); err != nil {
			appLogger.Error("Failed to close Redis:", err)
		}
	}()

	if err := database.Migrate(); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := seedData(database.GetDB(), cfg.Seed); err != nil {
		appLogger.Fatalf("Failed to initialize seed data: %v", err)
	}

	store := database.GetRedisStore()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	cancelPing()

	location, err := time.LoadLocation(cfg.Import.TimeZone)
	if err != nil {
		appLogger.Warnf("Unknown import time zone %q, using Local", cfg.Import.TimeZone)
		location = time.Local
	}
	codec := interchange.Codec{Location: location}

	db := database.GetDB()
	contexts := services.NewPermissionContextService(db, store)
	sessions := services.NewSessionService(store)
	users := services.NewUserService(db)
	tags := services.NewTagService(db)
	cates := services.NewCateService(db)
	articles := services.NewArticleService(db, location)

	// 关闭进度推送时不向Redis发布
	progressStore := store
	if !cfg.Import.ProgressPush {
		progressStore = nil
	}
	imports := services.NewImportService(db, articles, tags, cates, progressStore, codec, cfg.Import.MaxFiles)

	svc := &router.Services{
		Auth:        services.NewAuthService(users, contexts, sessions, jwt.GetJWTManager()),
		Roles:       services.NewRoleService(db, contexts, sessions),
		Routes:      services.NewRouteService(db),
		Permissions: services.NewPermissionService(db),
		Tags:        tags,
		Cates:       cates,
		Articles:    articles,
		Imports:     imports,
		Codec:       codec,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Import.ProgressPush {
		hub := services.NewProgressHub(store)
		svc.Hub = hub
		go func() {
			if err := hub.Run(ctx); err != nil {
				appLogger.Errorf("Import progress hub stopped: %v", err)
			}
		}()
	}

	cleaner := services.NewImportLogCleaner(imports, cfg.Import.CleanupCron, cfg.Import.LogRetention)
	if err := cleaner.Start(); err != nil {
		// 不影响主服务启动
		appLogger.Errorf("Failed to start import log cleaner: %v", err)
	}
	defer cleaner.Stop()

	gin.SetMode(cfg.Server.Mode)
	r := router.SetupRouter(cfg, svc)

	server := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// 导出大批量文章时需要较长的写超时
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	appLogger.Infof("Server started on port %s", cfg.Server.Port)

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown:", err)
	}
	appLogger.Info("Server exited")
}
