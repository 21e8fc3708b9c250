package service

import (
	"errors"
	"fmt"
)

// 服务层哨兵错误，handler 通过 errors.Is 映射为响应码
var (
	// ErrNotFound 目标 Banner 不存在
	ErrNotFound = errors.New("banner not found")
	// ErrInvalidBanner 输入不合法（缺失字段 / 超长 / 越界）
	ErrInvalidBanner = errors.New("invalid banner input")
	// ErrInvalidReason 驳回缺少原因
	ErrInvalidReason = errors.New("rejection reason is required")
	// ErrPriorityConflict 活跃记录间 priority 冲突
	ErrPriorityConflict = errors.New("priority already in use by an active banner")
	// ErrUnknownBannerIDs 批量操作包含不存在的 id
	ErrUnknownBannerIDs = errors.New("one or more banner ids do not exist")
	// ErrInvalidDateRange 分析查询的时间范围非法
	ErrInvalidDateRange = errors.New("start date must not be after end date")
	// ErrInvalidUpload 上传文件不合法
	ErrInvalidUpload = errors.New("invalid upload")
)

// PriorityConflictError 带冲突值的 priority 冲突错误，消息中注明冲突的 priority
type PriorityConflictError struct {
	Priority int
}

func (e *PriorityConflictError) Error() string {
	return fmt.Sprintf("priority %d is already in use by an active banner", e.Priority)
}

// Is 支持 errors.Is(err, ErrPriorityConflict)
func (e *PriorityConflictError) Is(target error) bool {
	return target == ErrPriorityConflict
}

// ValidationError 字段级校验错误，消息中注明字段
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// Is 支持 errors.Is(err, ErrInvalidBanner)
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidBanner
}
