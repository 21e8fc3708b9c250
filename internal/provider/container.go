package provider

import (
	"time"

	"github.com/promodesk/banner-api/internal/cache"
	"github.com/promodesk/banner-api/internal/config"
	"github.com/promodesk/banner-api/internal/logger"
	"github.com/promodesk/banner-api/internal/models"
	"github.com/promodesk/banner-api/internal/queue"
	"github.com/promodesk/banner-api/internal/repository"
	"github.com/promodesk/banner-api/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	BannerRepo repository.BannerRepository

	// Services
	BannerService *service.BannerService
	UploadService *service.UploadService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.BannerRepo = repository.NewBannerRepository(db)
}

func (c *Container) initServices() {
	snapshotTTL := time.Duration(c.Config.Banner.SnapshotTTLSeconds) * time.Second
	snapshots := cache.NewBannerSnapshotCache(snapshotTTL)

	c.BannerService = service.NewBannerService(c.BannerRepo, snapshots, c.QueueClient)
	c.UploadService = service.NewUploadService(c.Config)
}

// Close 释放容器持有的资源
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
}
