package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/promodesk/banner-api/internal/logger"
	"github.com/promodesk/banner-api/internal/provider"
	"github.com/promodesk/banner-api/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskBannerWindowClose, c.handleBannerWindowClose)
}

func (c *Consumer) handleBannerWindowClose(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_banner_window_close_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.BannerWindowClosePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_banner_window_close_unmarshal_failed", "error", err)
		return err
	}
	if payload.BannerID == 0 {
		logger.Debugw("worker_banner_window_close_skip_invalid_payload", "banner_id", payload.BannerID)
		return nil
	}
	if c.BannerService == nil {
		logger.Warnw("worker_banner_window_close_skip_service_nil", "banner_id", payload.BannerID)
		return nil
	}
	if err := c.BannerService.CloseWindow(ctx, payload.BannerID, time.Now()); err != nil {
		logger.Warnw("worker_banner_window_close_failed", "banner_id", payload.BannerID, "error", err)
		return err
	}
	logger.Infow("worker_banner_window_close_done", "banner_id", payload.BannerID)
	return nil
}
