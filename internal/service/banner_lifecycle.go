package service

import (
	"context"
	"strings"
	"time"

	"github.com/promodesk/banner-api/internal/models"
	"github.com/promodesk/banner-api/internal/logger"
	"github.com/promodesk/banner-api/internal/queue"
)

// SubmitForApproval draft/rejected -> pending_approval
func (s *BannerService) SubmitForApproval(ctx context.Context, id uint, actor string) (*models.Banner, error) {
	banner, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if banner.ApprovalStatus != models.ApprovalStatusDraft && banner.ApprovalStatus != models.ApprovalStatusRejected {
		return nil, &ValidationError{Field: "approval_status", Detail: "only draft or rejected banners can be submitted"}
	}
	banner.ApprovalStatus = models.ApprovalStatusPending
	banner.RejectionReason = ""
	banner.UpdatedBy = EnsureActor(actor)
	if err := s.repo.Save(ctx, banner); err != nil {
		return nil, err
	}
	return banner, nil
}

// Publish 发布：approval_status=approved、is_published=true，记录审批人与时间
//
// is_published 置 true 的唯一入口。投放窗口带结束时间时，
// 顺带调度一个窗口关闭任务，到点自动下线。
func (s *BannerService) Publish(ctx context.Context, id uint, actor string) (*models.Banner, error) {
	banner, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !banner.IsActive {
		return nil, &ValidationError{Field: "is_active", Detail: "archived banners cannot be published"}
	}

	actor = EnsureActor(actor)
	now := time.Now()
	banner.ApprovalStatus = models.ApprovalStatusApproved
	banner.IsPublished = true
	banner.ApprovedBy = actor
	banner.ApprovedAt = &now
	banner.RejectionReason = ""
	banner.UpdatedBy = actor
	if err := s.repo.Save(ctx, banner); err != nil {
		return nil, err
	}

	s.scheduleWindowClose(banner, now)
	s.invalidateSnapshots(ctx)
	return banner, nil
}

// Unpublish 下线：仅翻转 is_published，approval_status 保持不变
func (s *BannerService) Unpublish(ctx context.Context, id uint, actor string) (*models.Banner, error) {
	banner, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	banner.IsPublished = false
	banner.UpdatedBy = EnsureActor(actor)
	if err := s.repo.Save(ctx, banner); err != nil {
		return nil, err
	}
	s.invalidateSnapshots(ctx)
	return banner, nil
}

// Reject 驳回：必须给出非空原因，同时下线
func (s *BannerService) Reject(ctx context.Context, id uint, reason, actor string) (*models.Banner, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrInvalidReason
	}
	banner, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	banner.ApprovalStatus = models.ApprovalStatusRejected
	banner.IsPublished = false
	banner.RejectionReason = reason
	banner.UpdatedBy = EnsureActor(actor)
	if err := s.repo.Save(ctx, banner); err != nil {
		return nil, err
	}
	s.invalidateSnapshots(ctx)
	return banner, nil
}

// SoftDelete 归档：is_active=false、is_published=false，记录与计数保留可查
func (s *BannerService) SoftDelete(ctx context.Context, id uint, actor string) (*models.Banner, error) {
	banner, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	banner.IsActive = false
	banner.IsPublished = false
	banner.UpdatedBy = EnsureActor(actor)
	if err := s.repo.Save(ctx, banner); err != nil {
		return nil, err
	}
	s.invalidateSnapshots(ctx)
	return banner, nil
}

// PermanentDelete 物理删除，不可恢复
func (s *BannerService) PermanentDelete(ctx context.Context, id uint) error {
	banner, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if banner == nil {
		return ErrNotFound
	}
	if err := s.repo.HardDelete(ctx, id); err != nil {
		return err
	}
	s.invalidateSnapshots(ctx)
	return nil
}

// CloseExpiredWindows 下线全部窗口已结束的发布记录，worker 周期调用
func (s *BannerService) CloseExpiredWindows(ctx context.Context, now time.Time) (int64, error) {
	closed, err := s.repo.UnpublishExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if closed > 0 {
		s.invalidateSnapshots(ctx)
	}
	return closed, nil
}

// CloseWindow 窗口关闭任务回调：窗口确实已结束才下线
func (s *BannerService) CloseWindow(ctx context.Context, id uint, now time.Time) error {
	banner, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if banner == nil || !banner.IsPublished {
		return nil
	}
	end := banner.DisplaySettings.EndDate
	if end == nil || end.After(now) {
		// 发布后窗口被改动过，按当前配置为准
		return nil
	}
	banner.IsPublished = false
	if err := s.repo.Save(ctx, banner); err != nil {
		return err
	}
	s.invalidateSnapshots(ctx)
	return nil
}

func (s *BannerService) scheduleWindowClose(banner *models.Banner, now time.Time) {
	end := banner.DisplaySettings.EndDate
	if end == nil || !s.queue.Enabled() {
		return
	}
	delay := end.Sub(now)
	if delay < 0 {
		delay = 0
	}
	err := s.queue.EnqueueBannerWindowClose(queue.BannerWindowClosePayload{BannerID: banner.ID}, delay)
	if err != nil {
		logger.Warnw("banner_window_close_enqueue_failed", "banner_id", banner.ID, "error", err)
	}
}
