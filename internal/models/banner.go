package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Banner 类型枚举
const (
	BannerTypeReward       = "reward"
	BannerTypePromotion    = "promotion"
	BannerTypeAnnouncement = "announcement"
	BannerTypeSeasonal     = "seasonal"
)

// Banner 审核状态枚举
const (
	ApprovalStatusDraft    = "draft"
	ApprovalStatusPending  = "pending_approval"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// BannerTypes 全部合法的 Banner 类型
var BannerTypes = []string{
	BannerTypeReward,
	BannerTypePromotion,
	BannerTypeAnnouncement,
	BannerTypeSeasonal,
}

// IsValidBannerType 判断 Banner 类型是否合法
func IsValidBannerType(value string) bool {
	for _, t := range BannerTypes {
		if t == value {
			return true
		}
	}
	return false
}

// BannerImage 图片信息
type BannerImage struct {
	URL        string `gorm:"type:varchar(500);not null" json:"url"`
	StorageRef string `gorm:"type:varchar(200)" json:"storage_ref"`
	AltText    string `gorm:"type:varchar(200)" json:"alt_text"`
}

// TextPosition 文案位置提示（无约束，仅透传给前端）
type TextPosition struct {
	X int `gorm:"default:0" json:"x"`
	Y int `gorm:"default:0" json:"y"`
}

// DisplaySettings 投放窗口与端侧展示配置
type DisplaySettings struct {
	ShowOnMobile  bool       `gorm:"default:true" json:"show_on_mobile"`
	ShowOnDesktop bool       `gorm:"default:true" json:"show_on_desktop"`
	StartDate     *time.Time `gorm:"index" json:"start_date"`
	EndDate       *time.Time `gorm:"index" json:"end_date"`
}

// RewardDetails 奖励类 Banner 的优惠信息
type RewardDetails struct {
	RewardType         string   `gorm:"type:varchar(40)" json:"reward_type"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	DiscountAmount     *Money   `gorm:"type:decimal(20,2)" json:"discount_amount"`
	MinOrderValue      Money    `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_value"`
	MaxDiscountAmount  *Money   `gorm:"type:decimal(20,2)" json:"max_discount_amount"`
	ValidityDays       int      `gorm:"default:0" json:"validity_days"`
	IsStackable        bool     `gorm:"default:false" json:"is_stackable"`
}

// BannerAnalytics 互动计数（只增不减）
type BannerAnalytics struct {
	Views       int64      `gorm:"not null;default:0" json:"views"`
	Clicks      int64      `gorm:"not null;default:0" json:"clicks"`
	Conversions int64      `gorm:"not null;default:0" json:"conversions"`
	LastViewed  *time.Time `json:"last_viewed"`
}

// CTR 点击率（clicks/views*100，保留 2 位小数，views 为 0 时为 0）
func (a BannerAnalytics) CTR() decimal.Decimal {
	if a.Views <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(a.Clicks).
		Div(decimal.NewFromInt(a.Views)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// ConversionRate 转化率（conversions/clicks*100，保留 2 位小数，clicks 为 0 时为 0）
func (a BannerAnalytics) ConversionRate() decimal.Decimal {
	if a.Clicks <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(a.Conversions).
		Div(decimal.NewFromInt(a.Clicks)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// BannerSEO SEO 信息，slug 创建时由标题派生且不可变更
type BannerSEO struct {
	MetaTitle       string `gorm:"type:varchar(60)" json:"meta_title"`
	MetaDescription string `gorm:"type:varchar(160)" json:"meta_description"`
	Slug            string `gorm:"type:varchar(140);not null;uniqueIndex:uniq_banner_slug" json:"slug"`
}

// Banner 促销位排期记录
//
// priority 在 is_active = true 的记录间唯一，由部分唯一索引保证；
// 应用层的冲突预检只是快路径，并发写入时落败方收到唯一键冲突，
// 而不是悄悄产生重复排序。
type Banner struct {
	ID         uint   `gorm:"primarykey" json:"id"`                                                           // 主键
	ExternalID string `gorm:"type:varchar(40);not null;uniqueIndex:uniq_banner_external" json:"external_id"`  // 对外稳定标识
	Title      string `gorm:"type:varchar(100);not null;index" json:"title"`                                  // 标题
	Detail     string `gorm:"type:varchar(1000);not null" json:"detail"`                                      // 详情文案

	Image        BannerImage  `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	TextPosition TextPosition `gorm:"embedded;embeddedPrefix:text_" json:"text_position"`

	Priority    int  `gorm:"not null;index:uniq_active_priority,unique,where:is_active" json:"priority"` // 展示顺序，活跃记录间唯一
	IsActive    bool `gorm:"default:true;index" json:"is_active"`                                        // false 即归档（软删除）
	IsPublished bool `gorm:"default:false;index" json:"is_published"`                                    // 仅 publish 操作可置 true

	BannerType string `gorm:"type:varchar(20);not null;default:'promotion';index" json:"banner_type"` // 类型

	DisplaySettings DisplaySettings `gorm:"embedded;embeddedPrefix:display_" json:"display_settings"`
	RewardDetails   RewardDetails   `gorm:"embedded;embeddedPrefix:reward_" json:"reward_details"`
	Analytics       BannerAnalytics `gorm:"embedded;embeddedPrefix:analytics_" json:"analytics"`
	SEO             BannerSEO       `gorm:"embedded;embeddedPrefix:seo_" json:"seo"`

	ApprovalStatus  string     `gorm:"type:varchar(20);not null;default:'draft';index" json:"approval_status"` // 审核状态
	ApprovedBy      string     `gorm:"type:varchar(120)" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at"`
	RejectionReason string     `gorm:"type:varchar(500)" json:"rejection_reason,omitempty"`

	Tags StringArray `gorm:"type:json" json:"tags"`

	CreatedBy string `gorm:"type:varchar(120);not null" json:"created_by"`
	UpdatedBy string `gorm:"type:varchar(120);not null" json:"updated_by"`

	CreatedAt time.Time `gorm:"index" json:"created_at"` // 创建时间
	UpdatedAt time.Time `json:"updated_at"`              // 更新时间
}

// TableName 指定表名
func (Banner) TableName() string {
	return "banners"
}

// InDisplayWindow 判断投放窗口是否包含给定时刻（两端均为闭区间，缺省不限）
func (b *Banner) InDisplayWindow(now time.Time) bool {
	if b.DisplaySettings.StartDate != nil && b.DisplaySettings.StartDate.After(now) {
		return false
	}
	if b.DisplaySettings.EndDate != nil && b.DisplaySettings.EndDate.Before(now) {
		return false
	}
	return true
}
