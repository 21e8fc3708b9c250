package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/promodesk/banner-api/internal/logger"
	"github.com/promodesk/banner-api/internal/models"
	"github.com/promodesk/banner-api/internal/queue"
	"github.com/promodesk/banner-api/internal/repository"

	"github.com/google/uuid"
)

const (
	maxTitleLen           = 100
	maxDetailLen          = 1000
	maxMetaTitleLen       = 60
	maxMetaDescriptionLen = 160
)

// BannerService Banner 业务服务
type BannerService struct {
	repo      repository.BannerRepository
	allocator *PriorityAllocator
	snapshots SnapshotCache
	queue     *queue.Client
}

// SnapshotCache 公开列表快照缓存（可为 nil，未启用缓存时直接穿透）
type SnapshotCache interface {
	GetVisible(ctx context.Context, bannerType string, limit int) ([]models.Banner, bool, error)
	SetVisible(ctx context.Context, bannerType string, limit int, banners []models.Banner) error
	Invalidate(ctx context.Context) error
}

// NewBannerService 创建 Banner 服务
func NewBannerService(repo repository.BannerRepository, snapshots SnapshotCache, queueClient *queue.Client) *BannerService {
	return &BannerService{
		repo:      repo,
		allocator: NewPriorityAllocator(repo),
		snapshots: snapshots,
		queue:     queueClient,
	}
}

// ImageInput 图片输入
type ImageInput struct {
	URL        string `json:"url"`
	StorageRef string `json:"storage_ref"`
	AltText    string `json:"alt_text"`
}

// TextPositionInput 文案位置输入
type TextPositionInput struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DisplaySettingsInput 投放配置输入
type DisplaySettingsInput struct {
	ShowOnMobile  *bool      `json:"show_on_mobile"`
	ShowOnDesktop *bool      `json:"show_on_desktop"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
}

// RewardDetailsInput 优惠信息输入
type RewardDetailsInput struct {
	RewardType         *string       `json:"reward_type"`
	DiscountPercentage *float64      `json:"discount_percentage"`
	DiscountAmount     *models.Money `json:"discount_amount"`
	MinOrderValue      *models.Money `json:"min_order_value"`
	MaxDiscountAmount  *models.Money `json:"max_discount_amount"`
	ValidityDays       *int          `json:"validity_days"`
	IsStackable        *bool         `json:"is_stackable"`
}

// SEOInput SEO 输入（slug 不可由调用方指定）
type SEOInput struct {
	MetaTitle       *string `json:"meta_title"`
	MetaDescription *string `json:"meta_description"`
}

// BannerCreateInput 创建 Banner 输入
type BannerCreateInput struct {
	Title           string
	Detail          string
	Image           ImageInput
	Priority        *int
	TextPosition    *TextPositionInput
	IsActive        *bool
	BannerType      string
	DisplaySettings *DisplaySettingsInput
	RewardDetails   *RewardDetailsInput
	SEO             *SEOInput
	Tags            []string
}

// BannerUpdateInput 更新 Banner 输入，逐字段浅合并，未提供的字段保持原值
type BannerUpdateInput struct {
	Title           *string
	Detail          *string
	Image           *ImageInput
	Priority        *int
	TextPosition    *TextPositionInput
	IsActive        *bool
	BannerType      *string
	DisplaySettings *DisplaySettingsInput
	RewardDetails   *RewardDetailsInput
	SEO             *SEOInput
	Tags            *[]string
}

// ListAdmin 获取后台 Banner 列表
func (s *BannerService) ListAdmin(ctx context.Context, filter repository.BannerListFilter) ([]models.Banner, int64, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.BannerType != "" && !models.IsValidBannerType(filter.BannerType) {
		return nil, 0, &ValidationError{Field: "banner_type", Detail: "unknown banner type"}
	}
	return s.repo.List(ctx, filter)
}

// GetByID 根据 ID 获取 Banner
func (s *BannerService) GetByID(ctx context.Context, id uint) (*models.Banner, error) {
	banner, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if banner == nil {
		return nil, ErrNotFound
	}
	return banner, nil
}

// Create 创建 Banner，approval_status 固定为 draft，slug 由标题一次性派生
func (s *BannerService) Create(ctx context.Context, input BannerCreateInput, actor string) (*models.Banner, error) {
	actor = EnsureActor(actor)

	banner := &models.Banner{
		ExternalID:     newExternalID(),
		Title:          strings.TrimSpace(input.Title),
		Detail:         strings.TrimSpace(input.Detail),
		BannerType:     normalizeBannerType(input.BannerType),
		ApprovalStatus: models.ApprovalStatusDraft,
		IsActive:       true,
		IsPublished:    false,
		Tags:           models.NormalizeTagSet(input.Tags),
		CreatedBy:      actor,
		UpdatedBy:      actor,
	}
	banner.Image = models.BannerImage{
		URL:        strings.TrimSpace(input.Image.URL),
		StorageRef: strings.TrimSpace(input.Image.StorageRef),
		AltText:    strings.TrimSpace(input.Image.AltText),
	}
	if input.IsActive != nil {
		banner.IsActive = *input.IsActive
	}
	if input.TextPosition != nil {
		banner.TextPosition = models.TextPosition{X: input.TextPosition.X, Y: input.TextPosition.Y}
	}
	banner.DisplaySettings = models.DisplaySettings{ShowOnMobile: true, ShowOnDesktop: true}
	applyDisplaySettings(&banner.DisplaySettings, input.DisplaySettings)
	applyRewardDetails(&banner.RewardDetails, input.RewardDetails)
	applySEO(&banner.SEO, input.SEO)

	if err := validateBanner(banner); err != nil {
		return nil, err
	}

	priority, err := s.allocator.AssignOrValidate(ctx, input.Priority, 0, banner.IsActive)
	if err != nil {
		return nil, err
	}
	banner.Priority = priority

	slug, err := s.deriveSlug(ctx, banner.Title)
	if err != nil {
		return nil, err
	}
	banner.SEO.Slug = slug

	if err := s.repo.Create(ctx, banner); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			// 并发创建同标题：唯一索引兜住，补后缀重试一次
			banner.SEO.Slug = slug + "-" + uuid.NewString()[:6]
			if retryErr := s.repo.Create(ctx, banner); retryErr != nil {
				return nil, s.translateWriteError(retryErr, banner.Priority)
			}
		} else {
			return nil, s.translateWriteError(err, banner.Priority)
		}
	}

	s.invalidateSnapshots(ctx)
	return banner, nil
}

// Update 逐字段浅合并更新；slug 不随标题变更而重新生成
func (s *BannerService) Update(ctx context.Context, id uint, input BannerUpdateInput, actor string) (*models.Banner, error) {
	banner, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		banner.Title = strings.TrimSpace(*input.Title)
	}
	if input.Detail != nil {
		banner.Detail = strings.TrimSpace(*input.Detail)
	}
	if input.Image != nil {
		if input.Image.URL != "" {
			banner.Image.URL = strings.TrimSpace(input.Image.URL)
		}
		if input.Image.StorageRef != "" {
			banner.Image.StorageRef = strings.TrimSpace(input.Image.StorageRef)
		}
		if input.Image.AltText != "" {
			banner.Image.AltText = strings.TrimSpace(input.Image.AltText)
		}
	}
	if input.BannerType != nil {
		banner.BannerType = normalizeBannerType(*input.BannerType)
	}
	if input.TextPosition != nil {
		banner.TextPosition = models.TextPosition{X: input.TextPosition.X, Y: input.TextPosition.Y}
	}
	if input.IsActive != nil {
		banner.IsActive = *input.IsActive
		if !banner.IsActive {
			banner.IsPublished = false
		}
	}
	applyDisplaySettings(&banner.DisplaySettings, input.DisplaySettings)
	applyRewardDetails(&banner.RewardDetails, input.RewardDetails)
	applySEO(&banner.SEO, input.SEO)
	if input.Tags != nil {
		banner.Tags = models.NormalizeTagSet(*input.Tags)
	}
	banner.UpdatedBy = EnsureActor(actor)

	if err := validateBanner(banner); err != nil {
		return nil, err
	}

	// priority 显式变更或记录重新激活时需要重新校验唯一性
	if input.Priority != nil || (input.IsActive != nil && banner.IsActive) {
		requested := input.Priority
		if requested == nil {
			requested = &banner.Priority
		}
		priority, err := s.allocator.AssignOrValidate(ctx, requested, banner.ID, banner.IsActive)
		if err != nil {
			return nil, err
		}
		banner.Priority = priority
	}

	if err := s.repo.Save(ctx, banner); err != nil {
		return nil, s.translateWriteError(err, banner.Priority)
	}

	s.invalidateSnapshots(ctx)
	return banner, nil
}

// BulkUpdateInput 批量字段更新输入
type BulkUpdateInput struct {
	IsActive    *bool
	IsPublished *bool
	BannerType  *string
}

// BulkUpdate 对一组 id 批量套用同一份部分更新，返回命中/修改计数
//
// is_published 只允许批量下线：置 true 仅能经由显式 publish 操作。
func (s *BannerService) BulkUpdate(ctx context.Context, ids []uint, input BulkUpdateInput, actor string) (repository.BulkWriteResult, error) {
	if len(ids) == 0 {
		return repository.BulkWriteResult{}, &ValidationError{Field: "banner_ids", Detail: "must not be empty"}
	}
	fields := map[string]interface{}{}
	if input.IsActive != nil {
		fields["is_active"] = *input.IsActive
		if !*input.IsActive {
			fields["is_published"] = false
		}
	}
	if input.IsPublished != nil {
		if *input.IsPublished {
			return repository.BulkWriteResult{}, &ValidationError{Field: "is_published", Detail: "publishing requires the publish operation"}
		}
		fields["is_published"] = false
	}
	if input.BannerType != nil {
		normalized := normalizeBannerType(*input.BannerType)
		if !models.IsValidBannerType(normalized) {
			return repository.BulkWriteResult{}, &ValidationError{Field: "banner_type", Detail: "unknown banner type"}
		}
		fields["banner_type"] = normalized
	}
	if len(fields) == 0 {
		return repository.BulkWriteResult{}, &ValidationError{Field: "updates", Detail: "no updatable fields provided"}
	}
	fields["updated_by"] = EnsureActor(actor)

	result, err := s.repo.BulkUpdate(ctx, ids, fields)
	if err != nil {
		return repository.BulkWriteResult{}, s.translateWriteError(err, 0)
	}
	s.invalidateSnapshots(ctx)
	return result, nil
}

// deriveSlug 由标题派生唯一 slug，创建后不再变更
func (s *BannerService) deriveSlug(ctx context.Context, title string) (string, error) {
	base := slugify(title)
	if base == "" {
		base = "banner"
	}
	inUse, err := s.repo.SlugInUse(ctx, base)
	if err != nil {
		return "", err
	}
	if !inUse {
		return base, nil
	}
	return base + "-" + uuid.NewString()[:6], nil
}

func (s *BannerService) translateWriteError(err error, priority int) error {
	if errors.Is(err, repository.ErrDuplicateActivePriority) {
		return &PriorityConflictError{Priority: priority}
	}
	return err
}

func (s *BannerService) invalidateSnapshots(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Invalidate(ctx); err != nil {
		logger.Warnw("banner_snapshot_invalidate_failed", "error", err)
	}
}

func applyDisplaySettings(target *models.DisplaySettings, input *DisplaySettingsInput) {
	if input == nil {
		return
	}
	if input.ShowOnMobile != nil {
		target.ShowOnMobile = *input.ShowOnMobile
	}
	if input.ShowOnDesktop != nil {
		target.ShowOnDesktop = *input.ShowOnDesktop
	}
	if input.StartDate != nil {
		target.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		target.EndDate = input.EndDate
	}
}

func applyRewardDetails(target *models.RewardDetails, input *RewardDetailsInput) {
	if input == nil {
		return
	}
	if input.RewardType != nil {
		target.RewardType = strings.TrimSpace(*input.RewardType)
	}
	if input.DiscountPercentage != nil {
		target.DiscountPercentage = input.DiscountPercentage
	}
	if input.DiscountAmount != nil {
		target.DiscountAmount = input.DiscountAmount
	}
	if input.MinOrderValue != nil {
		target.MinOrderValue = *input.MinOrderValue
	}
	if input.MaxDiscountAmount != nil {
		target.MaxDiscountAmount = input.MaxDiscountAmount
	}
	if input.ValidityDays != nil {
		target.ValidityDays = *input.ValidityDays
	}
	if input.IsStackable != nil {
		target.IsStackable = *input.IsStackable
	}
}

func applySEO(target *models.BannerSEO, input *SEOInput) {
	if input == nil {
		return
	}
	if input.MetaTitle != nil {
		target.MetaTitle = strings.TrimSpace(*input.MetaTitle)
	}
	if input.MetaDescription != nil {
		target.MetaDescription = strings.TrimSpace(*input.MetaDescription)
	}
}

func validateBanner(banner *models.Banner) error {
	if banner.Title == "" {
		return &ValidationError{Field: "title", Detail: "required"}
	}
	if len([]rune(banner.Title)) > maxTitleLen {
		return &ValidationError{Field: "title", Detail: fmt.Sprintf("must be at most %d characters", maxTitleLen)}
	}
	if banner.Detail == "" {
		return &ValidationError{Field: "detail", Detail: "required"}
	}
	if len([]rune(banner.Detail)) > maxDetailLen {
		return &ValidationError{Field: "detail", Detail: fmt.Sprintf("must be at most %d characters", maxDetailLen)}
	}
	if banner.Image.URL == "" {
		return &ValidationError{Field: "image.url", Detail: "required"}
	}
	if !models.IsValidBannerType(banner.BannerType) {
		return &ValidationError{Field: "banner_type", Detail: "unknown banner type"}
	}
	start := banner.DisplaySettings.StartDate
	end := banner.DisplaySettings.EndDate
	if start != nil && end != nil && end.Before(*start) {
		return &ValidationError{Field: "display_settings", Detail: "end_date must not be before start_date"}
	}
	if pct := banner.RewardDetails.DiscountPercentage; pct != nil && (*pct < 0 || *pct > 100) {
		return &ValidationError{Field: "reward_details.discount_percentage", Detail: "must be between 0 and 100"}
	}
	if banner.RewardDetails.MinOrderValue.IsNegative() {
		return &ValidationError{Field: "reward_details.min_order_value", Detail: "must not be negative"}
	}
	if amt := banner.RewardDetails.DiscountAmount; amt != nil && amt.IsNegative() {
		return &ValidationError{Field: "reward_details.discount_amount", Detail: "must not be negative"}
	}
	if banner.RewardDetails.ValidityDays < 0 {
		return &ValidationError{Field: "reward_details.validity_days", Detail: "must not be negative"}
	}
	if len([]rune(banner.SEO.MetaTitle)) > maxMetaTitleLen {
		return &ValidationError{Field: "seo.meta_title", Detail: fmt.Sprintf("must be at most %d characters", maxMetaTitleLen)}
	}
	if len([]rune(banner.SEO.MetaDescription)) > maxMetaDescriptionLen {
		return &ValidationError{Field: "seo.meta_description", Detail: fmt.Sprintf("must be at most %d characters", maxMetaDescriptionLen)}
	}
	return nil
}

func normalizeBannerType(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return models.BannerTypePromotion
	}
	return value
}

func newExternalID() string {
	return "bnr_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// slugify 标题转 slug：小写、非字母数字折叠为连字符
func slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 100 {
		slug = strings.Trim(slug[:100], "-")
	}
	return slug
}
