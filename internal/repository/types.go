package repository

// BannerListFilter 查询 Banner 列表的过滤条件
type BannerListFilter struct {
	Page           int
	PageSize       int
	BannerType     string
	IsActive       *bool
	IsPublished    *bool
	ApprovalStatus string
	Search         string
	SortBy         string
	SortDesc       bool
}

// PriorityPair 批量重排中的一条 (id, priority) 指派
type PriorityPair struct {
	ID       uint `json:"id"`
	Priority int  `json:"priority"`
}

// BulkWriteResult 批量写入的命中与修改计数
type BulkWriteResult struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}
