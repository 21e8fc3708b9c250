package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/promodesk/banner-api/internal/models"

	"gorm.io/gorm"
)

// 存储层约束冲突，由 service 层翻译为业务错误
var (
	// ErrDuplicateActivePriority 活跃记录间 priority 唯一索引冲突
	ErrDuplicateActivePriority = errors.New("duplicate priority among active banners")
	// ErrDuplicateSlug slug 唯一索引冲突
	ErrDuplicateSlug = errors.New("duplicate banner slug")
	// ErrBannerMissing 批量操作中存在未知 id
	ErrBannerMissing = errors.New("one or more banner ids do not exist")
)

// BannerRepository Banner 数据访问接口
type BannerRepository interface {
	List(ctx context.Context, filter BannerListFilter) ([]models.Banner, int64, error)
	ListVisible(ctx context.Context, bannerType string, limit int, now time.Time) ([]models.Banner, error)
	GetByID(ctx context.Context, id uint) (*models.Banner, error)
	Create(ctx context.Context, banner *models.Banner) error
	Save(ctx context.Context, banner *models.Banner) error
	HardDelete(ctx context.Context, id uint) error

	MaxActivePriority(ctx context.Context) (int, error)
	ActivePriorityInUse(ctx context.Context, priority int, excludeID uint) (bool, error)
	SlugInUse(ctx context.Context, slug string) (bool, error)
	UnpublishExpired(ctx context.Context, now time.Time) (int64, error)
	BulkReorder(ctx context.Context, pairs []PriorityPair, updatedBy string) error
	BulkUpdate(ctx context.Context, ids []uint, fields map[string]interface{}) (BulkWriteResult, error)

	IncrementView(ctx context.Context, id uint, now time.Time) error
	IncrementClick(ctx context.Context, id uint) error
	IncrementConversion(ctx context.Context, id uint) error
}

// GormBannerRepository GORM 实现
type GormBannerRepository struct {
	db *gorm.DB
}

// NewBannerRepository 创建 Banner 仓库
func NewBannerRepository(db *gorm.DB) *GormBannerRepository {
	return &GormBannerRepository{db: db}
}

// bannerSortColumns 列表排序字段白名单
var bannerSortColumns = map[string]string{
	"priority":    "priority",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
	"title":       "title",
	"banner_type": "banner_type",
}

// List Banner 列表（过滤 + 搜索 + 排序 + 分页）
func (r *GormBannerRepository) List(ctx context.Context, filter BannerListFilter) ([]models.Banner, int64, error) {
	var banners []models.Banner
	query := r.db.WithContext(ctx).Model(&models.Banner{})

	if filter.BannerType != "" {
		query = query.Where("banner_type = ?", filter.BannerType)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsPublished != nil {
		query = query.Where("is_published = ?", *filter.IsPublished)
	}
	if filter.ApprovalStatus != "" {
		query = query.Where("approval_status = ?", filter.ApprovalStatus)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		condition, argCount := buildSearchCondition(r.db, []string{
			"title", "detail", "seo_meta_title", "seo_meta_description", "seo_slug",
		})
		query = query.Where(condition, repeatLikeArgs(like, argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	column, ok := bannerSortColumns[strings.TrimSpace(filter.SortBy)]
	if !ok {
		column = "priority"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	orderBy := fmt.Sprintf("%s %s", column, direction)
	if column != "created_at" {
		orderBy += ", created_at DESC"
	}

	if err := query.Order(orderBy).Find(&banners).Error; err != nil {
		return nil, 0, err
	}
	return banners, total, nil
}

// ListVisible 获取公开可见的 Banner 快照
//
// 起止窗口两个条件必须同时成立（AND），缺省一端视为不限。
func (r *GormBannerRepository) ListVisible(ctx context.Context, bannerType string, limit int, now time.Time) ([]models.Banner, error) {
	var banners []models.Banner
	query := r.db.WithContext(ctx).Model(&models.Banner{}).
		Where("is_active = ?", true).
		Where("is_published = ?", true).
		Where("(display_start_date IS NULL OR display_start_date <= ?)", now).
		Where("(display_end_date IS NULL OR display_end_date >= ?)", now)

	if bannerType != "" {
		query = query.Where("banner_type = ?", bannerType)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Order("priority ASC, created_at DESC").Find(&banners).Error; err != nil {
		return nil, err
	}
	return banners, nil
}

// GetByID 根据 ID 获取 Banner
func (r *GormBannerRepository) GetByID(ctx context.Context, id uint) (*models.Banner, error) {
	var banner models.Banner
	if err := r.db.WithContext(ctx).First(&banner, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &banner, nil
}

// Create 创建 Banner
func (r *GormBannerRepository) Create(ctx context.Context, banner *models.Banner) error {
	return translateBannerWriteError(r.db.WithContext(ctx).Create(banner).Error)
}

// Save 整体保存 Banner
func (r *GormBannerRepository) Save(ctx context.Context, banner *models.Banner) error {
	return translateBannerWriteError(r.db.WithContext(ctx).Save(banner).Error)
}

// HardDelete 物理删除 Banner（不可恢复）
func (r *GormBannerRepository) HardDelete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Banner{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MaxActivePriority 活跃记录中的最大 priority，无活跃记录时为 0
func (r *GormBannerRepository) MaxActivePriority(ctx context.Context) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).Model(&models.Banner{}).
		Where("is_active = ?", true).
		Select("MAX(priority)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// ActivePriorityInUse 判断 priority 是否已被其他活跃记录占用（快路径预检）
func (r *GormBannerRepository) ActivePriorityInUse(ctx context.Context, priority int, excludeID uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Banner{}).
		Where("is_active = ?", true).
		Where("priority = ?", priority)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SlugInUse 判断 slug 是否已被占用（快路径预检，唯一索引兜底）
func (r *GormBannerRepository) SlugInUse(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Banner{}).
		Where("seo_slug = ?", slug).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UnpublishExpired 下线投放窗口已结束但仍处于发布态的记录
func (r *GormBannerRepository) UnpublishExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Banner{}).
		Where("is_published = ?", true).
		Where("display_end_date IS NOT NULL AND display_end_date < ?", now).
		UpdateColumn("is_published", false)
	return result.RowsAffected, result.Error
}

// BulkReorder 单事务批量重排
//
// 先校验全部 id 存在，再把受影响记录的 priority 挪出正数区间，
// 最后写入目标值。换位（A=1,B=2 -> A=2,B=1）不会在任何时刻触发
// 活跃唯一索引，并发读者只会看到重排前或重排后的完整排序。
func (r *GormBannerRepository) BulkReorder(ctx context.Context, pairs []PriorityPair, updatedBy string) error {
	if len(pairs) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(pairs))
	for _, pair := range pairs {
		ids = append(ids, pair.ID)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Banner{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
			return err
		}
		if count != int64(len(ids)) {
			return ErrBannerMissing
		}

		if err := tx.Model(&models.Banner{}).Where("id IN ?", ids).
			UpdateColumn("priority", gorm.Expr("-priority")).Error; err != nil {
			return err
		}

		now := time.Now()
		for _, pair := range pairs {
			err := tx.Model(&models.Banner{}).Where("id = ?", pair.ID).
				UpdateColumns(map[string]interface{}{
					"priority":   pair.Priority,
					"updated_by": updatedBy,
					"updated_at": now,
				}).Error
			if err != nil {
				return translateBannerWriteError(err)
			}
		}
		return nil
	})
}

// BulkUpdate 批量字段更新，返回命中/修改计数
func (r *GormBannerRepository) BulkUpdate(ctx context.Context, ids []uint, fields map[string]interface{}) (BulkWriteResult, error) {
	var result BulkWriteResult
	if len(ids) == 0 || len(fields) == 0 {
		return result, nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Banner{}).Where("id IN ?", ids).Count(&result.Matched).Error; err != nil {
			return err
		}
		write := tx.Model(&models.Banner{}).Where("id IN ?", ids).Updates(fields)
		if write.Error != nil {
			return translateBannerWriteError(write.Error)
		}
		result.Modified = write.RowsAffected
		return nil
	})
	if err != nil {
		return BulkWriteResult{}, err
	}
	return result, nil
}

// IncrementView 原子自增浏览数并刷新 last_viewed
func (r *GormBannerRepository) IncrementView(ctx context.Context, id uint, now time.Time) error {
	return r.incrementCounter(ctx, id, map[string]interface{}{
		"analytics_views":       gorm.Expr("analytics_views + 1"),
		"analytics_last_viewed": now,
	})
}

// IncrementClick 原子自增点击数
func (r *GormBannerRepository) IncrementClick(ctx context.Context, id uint) error {
	return r.incrementCounter(ctx, id, map[string]interface{}{
		"analytics_clicks": gorm.Expr("analytics_clicks + 1"),
	})
}

// IncrementConversion 原子自增转化数
func (r *GormBannerRepository) IncrementConversion(ctx context.Context, id uint) error {
	return r.incrementCounter(ctx, id, map[string]interface{}{
		"analytics_conversions": gorm.Expr("analytics_conversions + 1"),
	})
}

// incrementCounter 单条 UPDATE 内完成自增，避免读-改-写丢失更新；
// 同时绕过 Save 钩子，计数不触碰 updated_at。
func (r *GormBannerRepository) incrementCounter(ctx context.Context, id uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Banner{}).
		Where("id = ?", id).
		UpdateColumns(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// applyPagination 应用分页参数，统一处理非法页码与偏移量。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return query.Limit(pageSize).Offset(offset)
}

// translateBannerWriteError 把唯一索引冲突翻译为仓库层错误
func translateBannerWriteError(err error) error {
	if err == nil {
		return nil
	}
	message := err.Error()
	duplicated := errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(message, "UNIQUE constraint failed") ||
		strings.Contains(message, "duplicate key value")
	if !duplicated {
		return err
	}
	switch {
	case strings.Contains(message, "uniq_banner_slug") || strings.Contains(message, "seo_slug"):
		return fmt.Errorf("%w: %v", ErrDuplicateSlug, err)
	case strings.Contains(message, "uniq_active_priority") || strings.Contains(message, "priority"):
		return fmt.Errorf("%w: %v", ErrDuplicateActivePriority, err)
	default:
		// TranslateError 开启后 sqlite/postgres 的报文不含索引名时按 priority 处理，
		// banners 表上仅 external_id/slug/priority 三个唯一索引，external_id 由服务端生成
		return fmt.Errorf("%w: %v", ErrDuplicateActivePriority, err)
	}
}
