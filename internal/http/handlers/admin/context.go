package admin

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// currentActor 读取鉴权中间件写入的操作者标识，缺失时返回空串，
// 由服务层补系统占位标识。
func currentActor(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get("actor"); ok {
		if actor, ok := value.(string); ok {
			return strings.TrimSpace(actor)
		}
	}
	return ""
}
