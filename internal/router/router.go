package router

import (
	"fmt"
	"strings"

	"github.com/promodesk/banner-api/internal/cache"
	"github.com/promodesk/banner-api/internal/config"
	adminhandlers "github.com/promodesk/banner-api/internal/http/handlers/admin"
	publichandlers "github.com/promodesk/banner-api/internal/http/handlers/public"
	"github.com/promodesk/banner-api/internal/logger"
	"github.com/promodesk/banner-api/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "bnr"
	}
	redisClient := cache.Client()
	trackingRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:tracking", redisPrefix),
		WindowSeconds: cfg.Security.TrackingRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.TrackingRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 静态文件服务（上传的图片）- 必须放在最前面
	r.Static("/uploads", "./uploads")

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/banners", publicHandler.GetPublicBanners)
			public.POST("/banners/:id/click", RateLimitMiddleware(redisClient, trackingRule, KeyByIP), publicHandler.TrackBannerClick)
			public.POST("/banners/:id/conversion", RateLimitMiddleware(redisClient, trackingRule, KeyByIP), publicHandler.TrackBannerConversion)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(ActorJWTMiddleware(cfg.JWT.SecretKey))
		{
			// Banner 管理
			admin.GET("/banners", adminHandler.GetAdminBanners)
			admin.POST("/banners", adminHandler.CreateBanner)
			admin.PATCH("/banners/reorder", adminHandler.ReorderBanners)
			admin.PATCH("/banners/bulk", adminHandler.BulkUpdateBanners)
			admin.GET("/banners/:id", adminHandler.GetAdminBanner)
			admin.PUT("/banners/:id", adminHandler.UpdateBanner)
			admin.DELETE("/banners/:id", adminHandler.DeleteBanner)
			admin.DELETE("/banners/:id/permanent", adminHandler.PermanentDeleteBanner)

			// 审批生命周期
			admin.POST("/banners/:id/submit", adminHandler.SubmitBanner)
			admin.POST("/banners/:id/publish", adminHandler.PublishBanner)
			admin.POST("/banners/:id/unpublish", adminHandler.UnpublishBanner)
			admin.POST("/banners/:id/reject", adminHandler.RejectBanner)

			// 互动报表
			admin.GET("/banners/:id/analytics", adminHandler.GetBannerAnalytics)

			// 文件上传
			admin.POST("/upload", adminHandler.UploadFile)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
