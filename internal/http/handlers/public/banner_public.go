package public

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/promodesk/banner-api/internal/http/response"
	"github.com/promodesk/banner-api/internal/service"

	"github.com/gin-gonic/gin"
)

// GetPublicBanners 获取公开展示 Banner 列表
// 命中的每条记录同步累计一次浏览计数
func (h *Handler) GetPublicBanners(c *gin.Context) {
	bannerType := c.Query("type")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit <= 0 {
		limit = 10
	}
	if maxLimit := h.Config.Banner.MaxPublicLimit; maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}

	banners, err := h.BannerService.ListPublic(c.Request.Context(), bannerType, limit)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBanner) {
			respondError(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to fetch banners", err)
		return
	}

	response.Success(c, banners)
}

// TrackBannerClick 点击上报
func (h *Handler) TrackBannerClick(c *gin.Context) {
	id, ok := parseBannerID(c)
	if !ok {
		return
	}
	if err := h.BannerService.TrackClick(c.Request.Context(), id); err != nil {
		respondTrackingError(c, err)
		return
	}
	response.SuccessWithMsg(c, "click recorded", nil)
}

// TrackBannerConversion 转化上报
func (h *Handler) TrackBannerConversion(c *gin.Context) {
	id, ok := parseBannerID(c)
	if !ok {
		return
	}
	if err := h.BannerService.TrackConversion(c.Request.Context(), id); err != nil {
		respondTrackingError(c, err)
		return
	}
	response.SuccessWithMsg(c, "conversion recorded", nil)
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

func respondTrackingError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		response.NotFound(c, "banner not found")
		return
	}
	respondError(c, http.StatusInternalServerError, "failed to record interaction", err)
}
