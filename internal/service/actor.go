package service

import (
	"strings"

	"github.com/google/uuid"
)

// EnsureActor 归一化操作者标识
//
// 身份由外部协作方（JWT 中间件）提供；未提供时回退到一次性生成的
// 占位标识，绝不读取任何全局会话状态。
func EnsureActor(actor string) string {
	trimmed := strings.TrimSpace(actor)
	if trimmed != "" {
		return trimmed
	}
	return "system-" + uuid.NewString()[:8]
}
