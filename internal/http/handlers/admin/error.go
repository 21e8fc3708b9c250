package admin

import (
	handlershared "github.com/promodesk/banner-api/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, status int, msg string, err error) {
	handlershared.RespondError(c, status, msg, err)
}

func respondErrorWithDetails(c *gin.Context, status int, msg string, details interface{}, err error) {
	handlershared.RespondErrorWithDetails(c, status, msg, details, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}
