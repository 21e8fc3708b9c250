package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/promodesk/banner-api/internal/models"

	"github.com/redis/go-redis/v9"
)

const bannerSnapshotVersionKey = "banner:visible:ver"

// BannerSnapshotCache 公开展示列表快照缓存
// 通过版本号整体失效，写路径无需枚举历史查询键
type BannerSnapshotCache struct {
	ttl time.Duration
}

// NewBannerSnapshotCache 创建快照缓存
func NewBannerSnapshotCache(ttl time.Duration) *BannerSnapshotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &BannerSnapshotCache{ttl: ttl}
}

// GetVisible 读取快照
func (c *BannerSnapshotCache) GetVisible(ctx context.Context, bannerType string, limit int) ([]models.Banner, bool, error) {
	if !Enabled() {
		return nil, false, nil
	}
	key, err := c.snapshotKey(ctx, bannerType, limit)
	if err != nil {
		return nil, false, err
	}
	var banners []models.Banner
	hit, err := GetJSON(ctx, key, &banners)
	if err != nil || !hit {
		return nil, false, err
	}
	return banners, true, nil
}

// SetVisible 写入快照
func (c *BannerSnapshotCache) SetVisible(ctx context.Context, bannerType string, limit int, banners []models.Banner) error {
	if !Enabled() {
		return nil
	}
	key, err := c.snapshotKey(ctx, bannerType, limit)
	if err != nil {
		return err
	}
	return SetJSON(ctx, key, banners, c.ttl)
}

// Invalidate 递增版本号使全部快照失效
func (c *BannerSnapshotCache) Invalidate(ctx context.Context) error {
	if !Enabled() {
		return nil
	}
	_, err := Incr(ctx, bannerSnapshotVersionKey)
	return err
}

func (c *BannerSnapshotCache) snapshotKey(ctx context.Context, bannerType string, limit int) (string, error) {
	ver, err := Client().Get(ctx, buildKey(bannerSnapshotVersionKey)).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	if bannerType == "" {
		bannerType = "all"
	}
	return fmt.Sprintf("banner:visible:v%d:%s:%d", ver, bannerType, limit), nil
}
