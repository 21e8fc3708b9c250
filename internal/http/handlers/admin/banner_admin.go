package admin

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/promodesk/banner-api/internal/http/response"
	"github.com/promodesk/banner-api/internal/repository"
	"github.com/promodesk/banner-api/internal/service"

	"github.com/gin-gonic/gin"
)

// BannerCreateRequest 创建 Banner 请求
type BannerCreateRequest struct {
	Title           string                        `json:"title" binding:"required"`
	Detail          string                        `json:"detail" binding:"required"`
	Image           service.ImageInput            `json:"image" binding:"required"`
	Priority        *int                          `json:"priority"`
	TextPosition    *service.TextPositionInput    `json:"text_position"`
	IsActive        *bool                         `json:"is_active"`
	BannerType      string                        `json:"banner_type"`
	DisplaySettings *displaySettingsRequest       `json:"display_settings"`
	RewardDetails   *service.RewardDetailsInput   `json:"reward_details"`
	SEO             *service.SEOInput             `json:"seo"`
	Tags            []string                      `json:"tags"`
}

// BannerUpdateRequest 更新 Banner 请求，未提供的字段保持原值
type BannerUpdateRequest struct {
	Title           *string                       `json:"title"`
	Detail          *string                       `json:"detail"`
	Image           *service.ImageInput           `json:"image"`
	Priority        *int                          `json:"priority"`
	TextPosition    *service.TextPositionInput    `json:"text_position"`
	IsActive        *bool                         `json:"is_active"`
	BannerType      *string                       `json:"banner_type"`
	DisplaySettings *displaySettingsRequest       `json:"display_settings"`
	RewardDetails   *service.RewardDetailsInput   `json:"reward_details"`
	SEO             *service.SEOInput             `json:"seo"`
	Tags            *[]string                     `json:"tags"`
}

// displaySettingsRequest 投放配置，日期使用 RFC3339 字符串
type displaySettingsRequest struct {
	ShowOnMobile  *bool  `json:"show_on_mobile"`
	ShowOnDesktop *bool  `json:"show_on_desktop"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
}

func (r *displaySettingsRequest) toInput() (*service.DisplaySettingsInput, error) {
	if r == nil {
		return nil, nil
	}
	startDate, err := parseTimeNullable(r.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseTimeNullable(r.EndDate)
	if err != nil {
		return nil, err
	}
	return &service.DisplaySettingsInput{
		ShowOnMobile:  r.ShowOnMobile,
		ShowOnDesktop: r.ShowOnDesktop,
		StartDate:     startDate,
		EndDate:       endDate,
	}, nil
}

// GetAdminBanners 获取后台 Banner 列表
func (h *Handler) GetAdminBanners(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.BannerListFilter{
		Page:           page,
		PageSize:       pageSize,
		BannerType:     c.Query("banner_type"),
		ApprovalStatus: c.Query("approval_status"),
		Search:         c.Query("search"),
		SortBy:         c.Query("sort_by"),
		SortDesc:       c.Query("sort_order") == "desc",
	}

	if raw := c.Query("is_active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid is_active filter", err)
			return
		}
		filter.IsActive = &parsed
	}
	if raw := c.Query("is_published"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid is_published filter", err)
			return
		}
		filter.IsPublished = &parsed
	}

	banners, total, err := h.BannerService.ListAdmin(c.Request.Context(), filter)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBanner) {
			respondError(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to fetch banners", err)
		return
	}

	response.SuccessWithPage(c, banners, response.NewMeta(total, page, pageSize))
}

// GetAdminBanner 获取后台 Banner 详情
func (h *Handler) GetAdminBanner(c *gin.Context) {
	id, ok := parseBannerID(c)
	if !ok {
		return
	}
	banner, err := h.BannerService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondBannerError(c, err, "failed to fetch banner")
		return
	}
	response.Success(c, banner)
}

// CreateBanner 创建 Banner
func (h *Handler) CreateBanner(c *gin.Context) {
	var req BannerCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	displaySettings, err := req.DisplaySettings.toInput()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid display date", err)
		return
	}

	banner, err := h.BannerService.Create(c.Request.Context(), service.BannerCreateInput{
		Title:           req.Title,
		Detail:          req.Detail,
		Image:           req.Image,
		Priority:        req.Priority,
		TextPosition:    req.TextPosition,
		IsActive:        req.IsActive,
		BannerType:      req.BannerType,
		DisplaySettings: displaySettings,
		RewardDetails:   req.RewardDetails,
		SEO:             req.SEO,
		Tags:            req.Tags,
	}, currentActor(c))
	if err != nil {
		respondBannerError(c, err, "failed to create banner")
		return
	}

	response.Created(c, banner)
}

// UpdateBanner 更新 Banner
func (h *Handler) UpdateBanner(c *gin.Context) {
	id, ok := parseBannerID(c)
	if !ok {
		return
	}

	var req BannerUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	displaySettings, err := req.DisplaySettings.toInput()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid display date", err)
		return
	}

	banner, err := h.BannerService.Update(c.Request.Context(), id, service.BannerUpdateInput{
		Title:           req.Title,
		Detail:          req.Detail,
		Image:           req.Image,
		Priority:        req.Priority,
		TextPosition:    req.TextPosition,
		IsActive:        req.IsActive,
		BannerType:      req.BannerType,
		DisplaySettings: displaySettings,
		RewardDetails:   req.RewardDetails,
		SEO:             req.SEO,
		Tags:            req.Tags,
	}, currentActor(c))
	if err != nil {
		respondBannerError(c, err, "failed to update banner")
		return
	}

	response.Success(c, banner)
}

// DeleteBanner 归档 Banner（软删除，记录与计数保留）
func (h *Handler) DeleteBanner(c *gin.Context) {
	id, ok := parseBannerID(c)
	if !ok {
		return
	}
	banner, err := h.BannerService.SoftDelete(c.Request.Context(), id, currentActor(c))
	if err != nil {
		respondBannerError(c, err, "failed to delete banner")
		return
	}
	response.Success(c, gin.H{
		"deleted":   true,
		"permanent": false,
		"banner":    banner,
	})
}

// PermanentDeleteBanner 物理删除 Banner
func (h *Handler) PermanentDeleteBanner(c *gin.Context) {
	id, ok := parseBannerID(c)
	if !ok {
		return
	}
	if err := h.BannerService.PermanentDelete(c.Request.Context(), id); err != nil {
		respondBannerError(c, err, "failed to delete banner")
		return
	}
	response.Success(c, gin.H{
		"deleted":   true,
		"permanent": true,
	})
}

// SubmitBanner 送审
func (h *Handler) SubmitBanner(c *gin.Context) {
	id, ok := parseBannerID(c)
	if !ok {
		return
	}
	banner, err := h.BannerService.SubmitForApproval(c.Request.Context(), id, currentActor(c))
	if err != nil {
		respondBannerError(c, err, "failed to submit banner")
		return
	}
	response.Success(c, banner)
}

// PublishBanner 审批并发布
func (h *Handler) PublishBanner(c *gin.Context) {
	id, ok := parseBannerID(c)
	if !ok {
		return
	}
	banner, err := h.BannerService.Publish(c.Request.Context(), id, currentActor(c))
	if err != nil {
		respondBannerError(c, err, "failed to publish banner")
		return
	}
	response.Success(c, banner)
}

// UnpublishBanner 下线
func (h *Handler) UnpublishBanner(c *gin.Context) {
	id, ok := parseBannerID(c)
	if !ok {
		return
	}
	banner, err := h.BannerService.Unpublish(c.Request.Context(), id, currentActor(c))
	if err != nil {
		respondBannerError(c, err, "failed to unpublish banner")
		return
	}
	response.Success(c, banner)
}

// RejectBannerRequest 驳回请求
type RejectBannerRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectBanner 驳回
func (h *Handler) RejectBanner(c *gin.Context) {
	id, ok := parseBannerID(c)
	if !ok {
		return
	}
	var req RejectBannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "rejection reason is required", err)
		return
	}
	banner, err := h.BannerService.Reject(c.Request.Context(), id, req.Reason, currentActor(c))
	if err != nil {
		respondBannerError(c, err, "failed to reject banner")
		return
	}
	response.Success(c, banner)
}

// ReorderBannersRequest 批量重排请求
type ReorderBannersRequest struct {
	Banners []struct {
		ID       uint `json:"id" binding:"required"`
		Priority int  `json:"priority" binding:"required"`
	} `json:"banners" binding:"required"`
}

// ReorderBanners 批量重排 priority，整组事务内生效
func (h *Handler) ReorderBanners(c *gin.Context) {
	var req ReorderBannersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	pairs := make([]repository.PriorityPair, 0, len(req.Banners))
	for _, item := range req.Banners {
		pairs = append(pairs, repository.PriorityPair{ID: item.ID, Priority: item.Priority})
	}
	if err := h.BannerService.BulkReorder(c.Request.Context(), pairs, currentActor(c)); err != nil {
		respondBannerError(c, err, "failed to reorder banners")
		return
	}
	response.SuccessWithMsg(c, "banners reordered", gin.H{
		"updated": len(pairs),
	})
}

// BulkUpdateBannersRequest 批量字段更新请求
type BulkUpdateBannersRequest struct {
	BannerIDs []uint `json:"banner_ids" binding:"required"`
	Updates   struct {
		IsActive    *bool   `json:"is_active"`
		IsPublished *bool   `json:"is_published"`
		BannerType  *string `json:"banner_type"`
	} `json:"updates" binding:"required"`
}

// BulkUpdateBanners 批量字段更新
func (h *Handler) BulkUpdateBanners(c *gin.Context) {
	var req BulkUpdateBannersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	result, err := h.BannerService.BulkUpdate(c.Request.Context(), req.BannerIDs, service.BulkUpdateInput{
		IsActive:    req.Updates.IsActive,
		IsPublished: req.Updates.IsPublished,
		BannerType:  req.Updates.BannerType,
	}, currentActor(c))
	if err != nil {
		respondBannerError(c, err, "failed to bulk update banners")
		return
	}
	response.Success(c, gin.H{
		"matched":  result.Matched,
		"modified": result.Modified,
	})
}

// GetBannerAnalytics 获取互动报表
func (h *Handler) GetBannerAnalytics(c *gin.Context) {
	id, ok := parseBannerID(c)
	if !ok {
		return
	}
	startDate, err := parseTimeNullable(c.Query("start_date"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid start_date", err)
		return
	}
	endDate, err := parseTimeNullable(c.Query("end_date"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid end_date", err)
		return
	}
	report, err := h.BannerService.GetAnalytics(c.Request.Context(), id, startDate, endDate)
	if err != nil {
		respondBannerError(c, err, "failed to fetch banner analytics")
		return
	}
	response.Success(c, report)
}

// UploadFile 上传 Banner 素材
func (h *Handler) UploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	scene := c.DefaultPostForm("scene", "banner")

	result, err := h.UploadService.SaveFile(file, scene)
	if err != nil {
		if errors.Is(err, service.ErrInvalidUpload) {
			respondError(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to save file", err)
		return
	}

	response.Success(c, gin.H{
		"url":         result.URL,
		"storage_ref": result.StorageRef,
		"filename":    file.Filename,
		"size":        file.Size,
	})
}

func parseBannerID(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "invalid banner id", nil)
		return 0, false
	}
	return uint(id), true
}

// respondBannerError 服务层哨兵错误到响应码的统一映射
func respondBannerError(c *gin.Context, err error, fallback string) {
	var validationErr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, "banner not found")
	case errors.Is(err, service.ErrPriorityConflict):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrUnknownBannerIDs):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidReason):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, err.Error())
	case errors.As(err, &validationErr):
		respondErrorWithDetails(c, http.StatusBadRequest, validationErr.Error(), gin.H{
			"field":  validationErr.Field,
			"detail": validationErr.Detail,
		}, nil)
	case errors.Is(err, service.ErrInvalidBanner):
		response.BadRequest(c, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, fallback, err)
	}
}

func parseTimeNullable(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, nil
		}
	}
	return nil, errors.New("invalid time format, expected RFC3339 or YYYY-MM-DD")
}
