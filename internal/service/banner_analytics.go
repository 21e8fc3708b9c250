package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// BannerAnalyticsReport 互动计数报表，比率派生计算，从不落库
type BannerAnalyticsReport struct {
	BannerID    uint       `json:"banner_id"`
	ExternalID  string     `json:"external_id"`
	Title       string     `json:"title"`
	Views       int64      `json:"views"`
	Clicks      int64      `json:"clicks"`
	Conversions int64      `json:"conversions"`
	CTR         string     `json:"ctr"`
	ConversionRate string  `json:"conversion_rate"`
	LastViewed  *time.Time `json:"last_viewed"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// TrackClick 点击计数
func (s *BannerService) TrackClick(ctx context.Context, id uint) error {
	return s.translateCounterError(s.repo.IncrementClick(ctx, id))
}

// TrackConversion 转化计数
func (s *BannerService) TrackConversion(ctx context.Context, id uint) error {
	return s.translateCounterError(s.repo.IncrementConversion(ctx, id))
}

// TrackView 浏览计数（公开列表之外的单条曝光上报）
func (s *BannerService) TrackView(ctx context.Context, id uint) error {
	return s.translateCounterError(s.repo.IncrementView(ctx, id, time.Now()))
}

// GetAnalytics 互动报表；计数为生命周期累计值，时间范围仅校验后回显
func (s *BannerService) GetAnalytics(ctx context.Context, id uint, startDate, endDate *time.Time) (*BannerAnalyticsReport, error) {
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, ErrInvalidDateRange
	}
	banner, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &BannerAnalyticsReport{
		BannerID:       banner.ID,
		ExternalID:     banner.ExternalID,
		Title:          banner.Title,
		Views:          banner.Analytics.Views,
		Clicks:         banner.Analytics.Clicks,
		Conversions:    banner.Analytics.Conversions,
		CTR:            banner.Analytics.CTR().StringFixed(2),
		ConversionRate: banner.Analytics.ConversionRate().StringFixed(2),
		LastViewed:     banner.Analytics.LastViewed,
		StartDate:      startDate,
		EndDate:        endDate,
	}, nil
}

func (s *BannerService) translateCounterError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
