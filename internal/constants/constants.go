package constants

// 队列与任务名称常量
const (
	QueueDefault          = "default"
	TaskBannerWindowClose = "banner:window_close"
)

// 分页常量
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)
