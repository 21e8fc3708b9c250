package queue

import (
	"encoding/json"

	"github.com/promodesk/banner-api/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskBannerWindowClose 展示窗口到期下线任务
	TaskBannerWindowClose = constants.TaskBannerWindowClose
)

// BannerWindowClosePayload 窗口到期下线任务载荷
type BannerWindowClosePayload struct {
	BannerID uint `json:"banner_id"`
}

// NewBannerWindowCloseTask 创建窗口到期下线任务
func NewBannerWindowCloseTask(payload BannerWindowClosePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBannerWindowClose, body), nil
}
