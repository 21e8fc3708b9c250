package main

import (
	"time"

	"github.com/promodesk/banner-api/internal/config"
	"github.com/promodesk/banner-api/internal/logger"
	"github.com/promodesk/banner-api/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	now := time.Now()
	weekLater := now.Add(7 * 24 * time.Hour)
	monthLater := now.Add(30 * 24 * time.Hour)
	tenPercent := 10.0
	fixedDiscount := models.NewMoneyFromDecimal(decimal.NewFromInt(20))
	minOrder := models.NewMoneyFromDecimal(decimal.NewFromInt(100))

	banners := []models.Banner{
		{
			ExternalID:     newExternalID(),
			Title:          "新用户立减 10%",
			Detail:         "首单专享，全场通用，叠加规则见活动页。",
			Image:          models.BannerImage{URL: "/uploads/banner/sample-reward.png", AltText: "新用户立减"},
			Priority:       1,
			IsActive:       true,
			IsPublished:    true,
			BannerType:     models.BannerTypeReward,
			ApprovalStatus: models.ApprovalStatusApproved,
			ApprovedBy:     "seed",
			ApprovedAt:     &now,
			DisplaySettings: models.DisplaySettings{
				ShowOnMobile:  true,
				ShowOnDesktop: true,
				StartDate:     &now,
				EndDate:       &monthLater,
			},
			RewardDetails: models.RewardDetails{
				RewardType:         "percentage",
				DiscountPercentage: &tenPercent,
				MinOrderValue:      minOrder,
				ValidityDays:       30,
			},
			SEO:       models.BannerSEO{MetaTitle: "新用户立减 10%", Slug: "new-user-discount"},
			Tags:      models.StringArray{"new-user", "discount"},
			CreatedBy: "seed",
			UpdatedBy: "seed",
		},
		{
			ExternalID:     newExternalID(),
			Title:          "夏季限时满减",
			Detail:         "满 100 减 20，限时一周。",
			Image:          models.BannerImage{URL: "/uploads/banner/sample-seasonal.png", AltText: "夏季满减"},
			Priority:       2,
			IsActive:       true,
			IsPublished:    true,
			BannerType:     models.BannerTypeSeasonal,
			ApprovalStatus: models.ApprovalStatusApproved,
			ApprovedBy:     "seed",
			ApprovedAt:     &now,
			DisplaySettings: models.DisplaySettings{
				ShowOnMobile:  true,
				ShowOnDesktop: true,
				StartDate:     &now,
				EndDate:       &weekLater,
			},
			RewardDetails: models.RewardDetails{
				RewardType:     "fixed_amount",
				DiscountAmount: &fixedDiscount,
				MinOrderValue:  minOrder,
				ValidityDays:   7,
			},
			SEO:       models.BannerSEO{MetaTitle: "夏季限时满减", Slug: "summer-sale"},
			Tags:      models.StringArray{"seasonal", "sale"},
			CreatedBy: "seed",
			UpdatedBy: "seed",
		},
		{
			ExternalID:      newExternalID(),
			Title:           "系统维护公告",
			Detail:          "本周六凌晨 2 点至 4 点进行系统维护，期间服务短暂不可用。",
			Image:           models.BannerImage{URL: "/uploads/banner/sample-announcement.png", AltText: "维护公告"},
			Priority:        3,
			IsActive:        true,
			IsPublished:     false,
			BannerType:      models.BannerTypeAnnouncement,
			ApprovalStatus:  models.ApprovalStatusPending,
			DisplaySettings: models.DisplaySettings{ShowOnMobile: true, ShowOnDesktop: true},
			SEO:             models.BannerSEO{Slug: "maintenance-notice"},
			Tags:            models.StringArray{"announcement"},
			CreatedBy:       "seed",
			UpdatedBy:       "seed",
		},
		{
			ExternalID:      newExternalID(),
			Title:           "品牌周活动预告",
			Detail:          "敬请期待，活动详情稍后公布。",
			Image:           models.BannerImage{URL: "/uploads/banner/sample-promotion.png", AltText: "品牌周"},
			Priority:        4,
			IsActive:        true,
			IsPublished:     false,
			BannerType:      models.BannerTypePromotion,
			ApprovalStatus:  models.ApprovalStatusDraft,
			DisplaySettings: models.DisplaySettings{ShowOnMobile: true, ShowOnDesktop: true},
			SEO:             models.BannerSEO{Slug: "brand-week-teaser"},
			Tags:            models.StringArray{"promotion"},
			CreatedBy:       "seed",
			UpdatedBy:       "seed",
		},
	}

	for _, banner := range banners {
		var existing models.Banner
		if err := models.DB.Where("seo_slug = ?", banner.SEO.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&banner).Error; err != nil {
				stdLog.Printf("Failed to create banner %s: %v", banner.SEO.Slug, err)
			} else {
				stdLog.Printf("Created banner: %s", banner.SEO.Slug)
			}
		} else {
			stdLog.Printf("Banner already exists: %s", banner.SEO.Slug)
		}
	}

	stdLog.Println("Seed finished")
}

func newExternalID() string {
	id := uuid.NewString()
	return "bnr_" + id[:8] + id[9:13]
}
