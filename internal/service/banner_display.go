package service

import (
	"context"
	"time"

	"github.com/promodesk/banner-api/internal/logger"
	"github.com/promodesk/banner-api/internal/models"
)

// ListPublic 公开展示快照：活跃 + 已发布 + 投放窗口包含当前时刻，
// priority 升序、同序按创建时间倒序。
//
// 每条返回记录各自执行一次浏览计数；计数失败只记日志，
// 绝不影响列表响应本身。
func (s *BannerService) ListPublic(ctx context.Context, bannerType string, limit int) ([]models.Banner, error) {
	if bannerType != "" && !models.IsValidBannerType(bannerType) {
		return nil, &ValidationError{Field: "banner_type", Detail: "unknown banner type"}
	}

	banners, err := s.visibleSnapshot(ctx, bannerType, limit)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range banners {
		if err := s.repo.IncrementView(ctx, banners[i].ID, now); err != nil {
			logger.Warnw("banner_view_increment_failed", "banner_id", banners[i].ID, "error", err)
			continue
		}
		banners[i].Analytics.Views++
		banners[i].Analytics.LastViewed = &now
	}
	return banners, nil
}

// visibleSnapshot 读穿透快照缓存；缓存不可用时直接查库
func (s *BannerService) visibleSnapshot(ctx context.Context, bannerType string, limit int) ([]models.Banner, error) {
	if s.snapshots != nil {
		cached, hit, err := s.snapshots.GetVisible(ctx, bannerType, limit)
		if err != nil {
			logger.Warnw("banner_snapshot_read_failed", "error", err)
		} else if hit {
			return cached, nil
		}
	}

	banners, err := s.repo.ListVisible(ctx, bannerType, limit, time.Now())
	if err != nil {
		return nil, err
	}

	if s.snapshots != nil {
		if err := s.snapshots.SetVisible(ctx, bannerType, limit, banners); err != nil {
			logger.Warnw("banner_snapshot_write_failed", "error", err)
		}
	}
	return banners, nil
}
