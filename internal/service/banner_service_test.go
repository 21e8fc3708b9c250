package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/promodesk/banner-api/internal/models"
	"github.com/promodesk/banner-api/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupBannerServiceTest(t *testing.T) (*BannerService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Banner{}); err != nil {
		t.Fatalf("migrate banner model failed: %v", err)
	}
	repo := repository.NewBannerRepository(db)
	return NewBannerService(repo, nil, nil), db
}

func validCreateInput(title string) BannerCreateInput {
	return BannerCreateInput{
		Title:  title,
		Detail: "活动详情文案",
		Image:  ImageInput{URL: "/uploads/banner/sample.png"},
	}
}

func TestCreateAssignsDefaults(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)
	ctx := context.Background()

	banner, err := svc.Create(ctx, validCreateInput("夏季大促 Summer Sale"), "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if banner.ApprovalStatus != models.ApprovalStatusDraft {
		t.Fatalf("new banner approval status want draft got %s", banner.ApprovalStatus)
	}
	if banner.IsPublished {
		t.Fatalf("new banner must not be published")
	}
	if banner.Priority != 1 {
		t.Fatalf("first banner priority want 1 got %d", banner.Priority)
	}
	if banner.BannerType != models.BannerTypePromotion {
		t.Fatalf("default banner type want promotion got %s", banner.BannerType)
	}
	if !strings.HasPrefix(banner.ExternalID, "bnr_") {
		t.Fatalf("external id should carry bnr_ prefix, got %s", banner.ExternalID)
	}
	if banner.SEO.Slug != "summer-sale" {
		t.Fatalf("slug should be derived from latin words of title, got %s", banner.SEO.Slug)
	}
	if banner.CreatedBy != "alice" || banner.UpdatedBy != "alice" {
		t.Fatalf("actor should be recorded, got %s/%s", banner.CreatedBy, banner.UpdatedBy)
	}
	if !banner.DisplaySettings.ShowOnMobile || !banner.DisplaySettings.ShowOnDesktop {
		t.Fatalf("display settings should default to visible on both ends")
	}

	second, err := svc.Create(ctx, validCreateInput("第二张 Banner Two"), "")
	if err != nil {
		t.Fatalf("create second failed: %v", err)
	}
	if second.Priority != 2 {
		t.Fatalf("auto priority want 2 got %d", second.Priority)
	}
	if !strings.HasPrefix(second.CreatedBy, "system-") {
		t.Fatalf("blank actor should fall back to system placeholder, got %s", second.CreatedBy)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		mut   func(*BannerCreateInput)
		field string
	}{
		{name: "missing title", mut: func(in *BannerCreateInput) { in.Title = "  " }, field: "title"},
		{name: "missing detail", mut: func(in *BannerCreateInput) { in.Detail = "" }, field: "detail"},
		{name: "missing image", mut: func(in *BannerCreateInput) { in.Image.URL = "" }, field: "image.url"},
		{name: "unknown type", mut: func(in *BannerCreateInput) { in.BannerType = "popup" }, field: "banner_type"},
		{name: "overlong title", mut: func(in *BannerCreateInput) { in.Title = strings.Repeat("长", 101) }, field: "title"},
		{
			name: "discount out of range",
			mut: func(in *BannerCreateInput) {
				pct := 150.0
				in.RewardDetails = &RewardDetailsInput{DiscountPercentage: &pct}
			},
			field: "reward_details.discount_percentage",
		},
		{
			name: "inverted window",
			mut: func(in *BannerCreateInput) {
				start := time.Now().Add(time.Hour)
				end := time.Now()
				in.DisplaySettings = &DisplaySettingsInput{StartDate: &start, EndDate: &end}
			},
			field: "display_settings",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput("校验用 Banner")
			tc.mut(&input)
			_, err := svc.Create(ctx, input, "alice")
			if !errors.Is(err, ErrInvalidBanner) {
				t.Fatalf("want ErrInvalidBanner got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("want field %s got %v", tc.field, err)
			}
		})
	}
}

func TestCreateExplicitPriorityConflict(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validCreateInput("占位 First"), "alice"); err != nil {
		t.Fatalf("create first failed: %v", err)
	}

	input := validCreateInput("冲突 Second")
	one := 1
	input.Priority = &one
	_, err := svc.Create(ctx, input, "alice")
	if !errors.Is(err, ErrPriorityConflict) {
		t.Fatalf("want ErrPriorityConflict got %v", err)
	}
	var pce *PriorityConflictError
	if !errors.As(err, &pce) || pce.Priority != 1 {
		t.Fatalf("conflict should carry priority 1, got %v", err)
	}

	zero := 0
	input.Priority = &zero
	if _, err := svc.Create(ctx, input, "alice"); !errors.Is(err, ErrInvalidBanner) {
		t.Fatalf("non-positive priority want ErrInvalidBanner got %v", err)
	}
}

func TestCreateDuplicateTitleGetsSuffixedSlug(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validCreateInput("Flash Sale"), "alice")
	if err != nil {
		t.Fatalf("create first failed: %v", err)
	}
	second, err := svc.Create(ctx, validCreateInput("Flash Sale"), "alice")
	if err != nil {
		t.Fatalf("create second failed: %v", err)
	}
	if second.SEO.Slug == first.SEO.Slug {
		t.Fatalf("duplicate title must not reuse slug %s", first.SEO.Slug)
	}
	if !strings.HasPrefix(second.SEO.Slug, first.SEO.Slug+"-") {
		t.Fatalf("suffixed slug should extend the base, got %s", second.SEO.Slug)
	}
}

func TestUpdateKeepsSlugAndMergesFields(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)
	ctx := context.Background()

	banner, err := svc.Create(ctx, validCreateInput("Original Title"), "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	originalSlug := banner.SEO.Slug

	newTitle := "Brand New Title"
	updated, err := svc.Update(ctx, banner.ID, BannerUpdateInput{Title: &newTitle}, "bob")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.SEO.Slug != originalSlug {
		t.Fatalf("slug must not change on title update, got %s", updated.SEO.Slug)
	}
	if updated.Title != newTitle {
		t.Fatalf("title want %q got %q", newTitle, updated.Title)
	}
	if updated.Detail != banner.Detail {
		t.Fatalf("unprovided fields must keep their value")
	}
	if updated.UpdatedBy != "bob" {
		t.Fatalf("updated_by want bob got %s", updated.UpdatedBy)
	}
	if updated.CreatedBy != "alice" {
		t.Fatalf("created_by must not change, got %s", updated.CreatedBy)
	}
}

func TestUpdateDeactivateUnpublishes(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)
	ctx := context.Background()

	banner, err := svc.Create(ctx, validCreateInput("归档测试 Banner"), "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Publish(ctx, banner.ID, "approver"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	inactive := false
	updated, err := svc.Update(ctx, banner.ID, BannerUpdateInput{IsActive: &inactive}, "bob")
	if err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if updated.IsActive || updated.IsPublished {
		t.Fatalf("deactivated banner must also be unpublished, got active=%v published=%v", updated.IsActive, updated.IsPublished)
	}
}

func TestUpdateNotFound(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)

	title := "任意"
	_, err := svc.Update(context.Background(), 404, BannerUpdateInput{Title: &title}, "alice")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound got %v", err)
	}
}

func TestApprovalLifecycle(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)
	ctx := context.Background()

	banner, err := svc.Create(ctx, validCreateInput("生命周期 Banner"), "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	submitted, err := svc.SubmitForApproval(ctx, banner.ID, "alice")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if submitted.ApprovalStatus != models.ApprovalStatusPending {
		t.Fatalf("submit want pending_approval got %s", submitted.ApprovalStatus)
	}

	// pending 状态不能重复提交
	if _, err := svc.SubmitForApproval(ctx, banner.ID, "alice"); !errors.Is(err, ErrInvalidBanner) {
		t.Fatalf("re-submit from pending want ErrInvalidBanner got %v", err)
	}

	if _, err := svc.Reject(ctx, banner.ID, "", "approver"); !errors.Is(err, ErrInvalidReason) {
		t.Fatalf("empty reason want ErrInvalidReason got %v", err)
	}

	rejected, err := svc.Reject(ctx, banner.ID, "图片分辨率不足", "approver")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.ApprovalStatus != models.ApprovalStatusRejected {
		t.Fatalf("reject want rejected got %s", rejected.ApprovalStatus)
	}
	if rejected.RejectionReason != "图片分辨率不足" {
		t.Fatalf("rejection reason want recorded, got %q", rejected.RejectionReason)
	}
	if rejected.IsPublished {
		t.Fatalf("rejected banner must be unpublished")
	}

	// rejected 可以重新提交，原因清空
	resubmitted, err := svc.SubmitForApproval(ctx, banner.ID, "alice")
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if resubmitted.RejectionReason != "" {
		t.Fatalf("resubmit should clear rejection reason, got %q", resubmitted.RejectionReason)
	}

	published, err := svc.Publish(ctx, banner.ID, "approver")
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if published.ApprovalStatus != models.ApprovalStatusApproved || !published.IsPublished {
		t.Fatalf("publish want approved+published got %s/%v", published.ApprovalStatus, published.IsPublished)
	}
	if published.ApprovedBy != "approver" || published.ApprovedAt == nil {
		t.Fatalf("publish should record approver and time")
	}

	unpublished, err := svc.Unpublish(ctx, banner.ID, "approver")
	if err != nil {
		t.Fatalf("unpublish failed: %v", err)
	}
	if unpublished.IsPublished {
		t.Fatalf("unpublish should clear is_published")
	}
	if unpublished.ApprovalStatus != models.ApprovalStatusApproved {
		t.Fatalf("unpublish must keep approval status, got %s", unpublished.ApprovalStatus)
	}
}

func TestPublishArchivedBannerFails(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)
	ctx := context.Background()

	banner, err := svc.Create(ctx, validCreateInput("已归档 Banner"), "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.SoftDelete(ctx, banner.ID, "alice"); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	if _, err := svc.Publish(ctx, banner.ID, "approver"); !errors.Is(err, ErrInvalidBanner) {
		t.Fatalf("publish archived want ErrInvalidBanner got %v", err)
	}
}

func TestSoftDeleteKeepsRecord(t *testing.T) {
	svc, db := setupBannerServiceTest(t)
	ctx := context.Background()

	banner, err := svc.Create(ctx, validCreateInput("软删 Banner"), "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.TrackClick(ctx, banner.ID); err != nil {
		t.Fatalf("track click failed: %v", err)
	}

	deleted, err := svc.SoftDelete(ctx, banner.ID, "bob")
	if err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}
	if deleted.IsActive || deleted.IsPublished {
		t.Fatalf("soft delete should archive and unpublish")
	}

	var got models.Banner
	if err := db.First(&got, banner.ID).Error; err != nil {
		t.Fatalf("archived banner should stay queryable: %v", err)
	}
	if got.Analytics.Clicks != 1 {
		t.Fatalf("analytics must survive soft delete, clicks want 1 got %d", got.Analytics.Clicks)
	}
}

func TestPermanentDelete(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)
	ctx := context.Background()

	banner, err := svc.Create(ctx, validCreateInput("硬删 Banner"), "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.PermanentDelete(ctx, banner.ID); err != nil {
		t.Fatalf("permanent delete failed: %v", err)
	}
	if _, err := svc.GetByID(ctx, banner.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted banner want ErrNotFound got %v", err)
	}
	if err := svc.PermanentDelete(ctx, banner.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete want ErrNotFound got %v", err)
	}
}

func TestBulkUpdateRules(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)
	ctx := context.Background()

	banner, err := svc.Create(ctx, validCreateInput("批量 Banner"), "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Publish(ctx, banner.ID, "approver"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	published := true
	if _, err := svc.BulkUpdate(ctx, []uint{banner.ID}, BulkUpdateInput{IsPublished: &published}, "bob"); !errors.Is(err, ErrInvalidBanner) {
		t.Fatalf("bulk publish want ErrInvalidBanner got %v", err)
	}

	if _, err := svc.BulkUpdate(ctx, nil, BulkUpdateInput{}, "bob"); !errors.Is(err, ErrInvalidBanner) {
		t.Fatalf("empty ids want ErrInvalidBanner got %v", err)
	}
	if _, err := svc.BulkUpdate(ctx, []uint{banner.ID}, BulkUpdateInput{}, "bob"); !errors.Is(err, ErrInvalidBanner) {
		t.Fatalf("no fields want ErrInvalidBanner got %v", err)
	}

	unpublish := false
	result, err := svc.BulkUpdate(ctx, []uint{banner.ID}, BulkUpdateInput{IsPublished: &unpublish}, "bob")
	if err != nil {
		t.Fatalf("bulk unpublish failed: %v", err)
	}
	if result.Matched != 1 || result.Modified != 1 {
		t.Fatalf("bulk result want 1/1 got %d/%d", result.Matched, result.Modified)
	}

	got, err := svc.GetByID(ctx, banner.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.IsPublished {
		t.Fatalf("bulk unpublish should clear is_published")
	}
}

func TestBulkReorderValidation(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, validCreateInput("重排 A"), "alice")
	if err != nil {
		t.Fatalf("create a failed: %v", err)
	}
	b, err := svc.Create(ctx, validCreateInput("重排 B"), "alice")
	if err != nil {
		t.Fatalf("create b failed: %v", err)
	}

	cases := []struct {
		name  string
		pairs []repository.PriorityPair
		want  error
	}{
		{name: "empty", pairs: nil, want: ErrInvalidBanner},
		{name: "zero id", pairs: []repository.PriorityPair{{ID: 0, Priority: 1}}, want: ErrInvalidBanner},
		{name: "non-positive priority", pairs: []repository.PriorityPair{{ID: a.ID, Priority: 0}}, want: ErrInvalidBanner},
		{
			name:  "duplicate id",
			pairs: []repository.PriorityPair{{ID: a.ID, Priority: 1}, {ID: a.ID, Priority: 2}},
			want:  ErrInvalidBanner,
		},
		{
			name:  "duplicate priority",
			pairs: []repository.PriorityPair{{ID: a.ID, Priority: 1}, {ID: b.ID, Priority: 1}},
			want:  ErrInvalidBanner,
		},
		{
			name:  "unknown id",
			pairs: []repository.PriorityPair{{ID: a.ID, Priority: 1}, {ID: b.ID + 99, Priority: 2}},
			want:  ErrUnknownBannerIDs,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.BulkReorder(ctx, tc.pairs, "bob"); !errors.Is(err, tc.want) {
				t.Fatalf("want %v got %v", tc.want, err)
			}
		})
	}

	// 合法换位
	err = svc.BulkReorder(ctx, []repository.PriorityPair{
		{ID: a.ID, Priority: b.Priority},
		{ID: b.ID, Priority: a.Priority},
	}, "bob")
	if err != nil {
		t.Fatalf("swap reorder failed: %v", err)
	}
	got, err := svc.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.Priority != b.Priority {
		t.Fatalf("banner a priority want %d got %d", b.Priority, got.Priority)
	}
}

func TestListPublicCountsViews(t *testing.T) {
	svc, db := setupBannerServiceTest(t)
	ctx := context.Background()

	banner, err := svc.Create(ctx, validCreateInput("公开 Banner"), "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Publish(ctx, banner.ID, "approver"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	draft, err := svc.Create(ctx, validCreateInput("草稿 Banner"), "alice")
	if err != nil {
		t.Fatalf("create draft failed: %v", err)
	}

	banners, err := svc.ListPublic(ctx, "", 10)
	if err != nil {
		t.Fatalf("list public failed: %v", err)
	}
	if len(banners) != 1 || banners[0].ID != banner.ID {
		t.Fatalf("only published banner should be listed, got %d", len(banners))
	}
	if banners[0].Analytics.Views != 1 || banners[0].Analytics.LastViewed == nil {
		t.Fatalf("listing should count one view, got %d", banners[0].Analytics.Views)
	}

	var got models.Banner
	if err := db.First(&got, banner.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.Analytics.Views != 1 {
		t.Fatalf("view count should persist, want 1 got %d", got.Analytics.Views)
	}
	got = models.Banner{}
	if err := db.First(&got, draft.ID).Error; err != nil {
		t.Fatalf("reload draft failed: %v", err)
	}
	if got.Analytics.Views != 0 {
		t.Fatalf("unlisted banner must not be counted, got %d", got.Analytics.Views)
	}

	if _, err := svc.ListPublic(ctx, "popup", 10); !errors.Is(err, ErrInvalidBanner) {
		t.Fatalf("unknown type want ErrInvalidBanner got %v", err)
	}
}

func TestTrackCounters(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)
	ctx := context.Background()

	banner, err := svc.Create(ctx, validCreateInput("计数 Banner"), "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.TrackView(ctx, banner.ID); err != nil {
		t.Fatalf("track view failed: %v", err)
	}
	if err := svc.TrackClick(ctx, banner.ID); err != nil {
		t.Fatalf("track click failed: %v", err)
	}
	if err := svc.TrackConversion(ctx, banner.ID); err != nil {
		t.Fatalf("track conversion failed: %v", err)
	}
	if err := svc.TrackClick(ctx, banner.ID+99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing banner want ErrNotFound got %v", err)
	}

	report, err := svc.GetAnalytics(ctx, banner.ID, nil, nil)
	if err != nil {
		t.Fatalf("get analytics failed: %v", err)
	}
	if report.Views != 1 || report.Clicks != 1 || report.Conversions != 1 {
		t.Fatalf("counters want 1/1/1 got %d/%d/%d", report.Views, report.Clicks, report.Conversions)
	}
	if report.CTR != "100.00" || report.ConversionRate != "100.00" {
		t.Fatalf("rates want 100.00 got ctr=%s conversion=%s", report.CTR, report.ConversionRate)
	}
}

func TestGetAnalyticsRates(t *testing.T) {
	svc, db := setupBannerServiceTest(t)
	ctx := context.Background()

	banner, err := svc.Create(ctx, validCreateInput("报表 Banner"), "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// 零分母不报错，比率为 0
	report, err := svc.GetAnalytics(ctx, banner.ID, nil, nil)
	if err != nil {
		t.Fatalf("get analytics failed: %v", err)
	}
	if report.CTR != "0.00" || report.ConversionRate != "0.00" {
		t.Fatalf("zero counters rates want 0.00 got ctr=%s conversion=%s", report.CTR, report.ConversionRate)
	}

	err = db.Model(&models.Banner{}).Where("id = ?", banner.ID).UpdateColumns(map[string]interface{}{
		"analytics_views":       200,
		"analytics_clicks":      30,
		"analytics_conversions": 3,
	}).Error
	if err != nil {
		t.Fatalf("seed counters failed: %v", err)
	}

	report, err = svc.GetAnalytics(ctx, banner.ID, nil, nil)
	if err != nil {
		t.Fatalf("get analytics failed: %v", err)
	}
	if report.CTR != "15.00" {
		t.Fatalf("ctr want 15.00 got %s", report.CTR)
	}
	if report.ConversionRate != "10.00" {
		t.Fatalf("conversion rate want 10.00 got %s", report.ConversionRate)
	}

	start := time.Now()
	end := start.Add(-time.Hour)
	if _, err := svc.GetAnalytics(ctx, banner.ID, &start, &end); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("inverted range want ErrInvalidDateRange got %v", err)
	}

	if _, err := svc.GetAnalytics(ctx, banner.ID+99, nil, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing banner want ErrNotFound got %v", err)
	}
}

func TestCloseWindowRespectsCurrentConfig(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)
	ctx := context.Background()
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	input := validCreateInput("窗口 Banner")
	input.DisplaySettings = &DisplaySettingsInput{EndDate: &future}
	banner, err := svc.Create(ctx, input, "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Publish(ctx, banner.ID, "approver"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	// 窗口未结束，不下线
	if err := svc.CloseWindow(ctx, banner.ID, now); err != nil {
		t.Fatalf("close window failed: %v", err)
	}
	got, err := svc.GetByID(ctx, banner.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !got.IsPublished {
		t.Fatalf("banner inside its window must stay published")
	}

	if _, err := svc.Update(ctx, banner.ID, BannerUpdateInput{
		DisplaySettings: &DisplaySettingsInput{StartDate: &past, EndDate: &past},
	}, "alice"); err != nil {
		t.Fatalf("shorten window failed: %v", err)
	}

	if err := svc.CloseWindow(ctx, banner.ID, now); err != nil {
		t.Fatalf("close window failed: %v", err)
	}
	got, err = svc.GetByID(ctx, banner.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.IsPublished {
		t.Fatalf("expired window should unpublish the banner")
	}

	// 不存在的 id 静默跳过，避免任务重试
	if err := svc.CloseWindow(ctx, banner.ID+99, now); err != nil {
		t.Fatalf("close window for missing banner should be a no-op, got %v", err)
	}
}

func TestCloseExpiredWindows(t *testing.T) {
	svc, _ := setupBannerServiceTest(t)
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	input := validCreateInput("过期窗口 Banner")
	banner, err := svc.Create(ctx, input, "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Publish(ctx, banner.ID, "approver"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if _, err := svc.Update(ctx, banner.ID, BannerUpdateInput{
		DisplaySettings: &DisplaySettingsInput{EndDate: &past},
	}, "alice"); err != nil {
		t.Fatalf("set past end date failed: %v", err)
	}

	closed, err := svc.CloseExpiredWindows(ctx, time.Now())
	if err != nil {
		t.Fatalf("close expired windows failed: %v", err)
	}
	if closed != 1 {
		t.Fatalf("closed count want 1 got %d", closed)
	}
}

func TestEnsureActor(t *testing.T) {
	if got := EnsureActor("  alice  "); got != "alice" {
		t.Fatalf("actor should be trimmed, got %q", got)
	}
	got := EnsureActor("   ")
	if !strings.HasPrefix(got, "system-") || len(got) != len("system-")+8 {
		t.Fatalf("blank actor should get a system placeholder, got %q", got)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "Summer Sale 2026", want: "summer-sale-2026"},
		{in: "  Hello,   World!  ", want: "hello-world"},
		{in: "全中文标题", want: ""},
		{in: "50% OFF --- now", want: "50-off-now"},
	}
	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Fatalf("slugify(%q) want %q got %q", tc.in, tc.want, got)
		}
	}
}
