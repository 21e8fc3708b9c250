package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Success   bool        `json:"success"`             // 是否成功
	Message   string      `json:"message"`             // 提示消息
	Timestamp string      `json:"timestamp"`           // 响应时间
	Data      interface{} `json:"data,omitempty"`      // 数据内容
	Meta      *Meta       `json:"meta,omitempty"`      // 分页信息
	RequestID string      `json:"request_id,omitempty"`
	Details   interface{} `json:"details,omitempty"`   // 错误细节
}

// Meta 分页信息
type Meta struct {
	Total           int64 `json:"total"`
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	TotalPages      int64 `json:"totalPages"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// NewMeta 计算分页信息
func NewMeta(total int64, page, limit int) *Meta {
	if limit <= 0 {
		limit = 1
	}
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return &Meta{
		Total:           total,
		Page:            page,
		Limit:           limit,
		TotalPages:      totalPages,
		HasNextPage:     int64(page) < totalPages,
		HasPreviousPage: page > 1 && total > 0,
	}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	SuccessWithMsg(c, "success", data)
}

// SuccessWithMsg 成功响应（自定义消息）
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Message:   msg,
		Timestamp: now(),
		Data:      data,
		RequestID: requestID(c),
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success:   true,
		Message:   "created",
		Timestamp: now(),
		Data:      data,
		RequestID: requestID(c),
	})
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Message:   "success",
		Timestamp: now(),
		Data:      data,
		Meta:      meta,
		RequestID: requestID(c),
	})
}

// Error 错误响应
func Error(c *gin.Context, status int, msg string) {
	ErrorWithDetails(c, status, msg, nil)
}

// ErrorWithDetails 错误响应（带细节）
func ErrorWithDetails(c *gin.Context, status int, msg string, details interface{}) {
	c.JSON(status, Response{
		Success:   false,
		Message:   msg,
		Timestamp: now(),
		Details:   details,
		RequestID: requestID(c),
	})
}

// NotFound 404响应
func NotFound(c *gin.Context, msg string) {
	Error(c, http.StatusNotFound, msg)
}

// Unauthorized 401响应
func Unauthorized(c *gin.Context, msg string) {
	Error(c, http.StatusUnauthorized, msg)
}

// Forbidden 403响应
func Forbidden(c *gin.Context, msg string) {
	Error(c, http.StatusForbidden, msg)
}

// BadRequest 400响应
func BadRequest(c *gin.Context, msg string) {
	Error(c, http.StatusBadRequest, msg)
}

// Conflict 409响应
func Conflict(c *gin.Context, msg string) {
	Error(c, http.StatusConflict, msg)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func requestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
