package service

import (
	"context"
	"errors"

	"github.com/promodesk/banner-api/internal/repository"
)

// PriorityAllocator 活跃 Banner 的展示顺序分配器
//
// 这里的占用检查只是快路径：权威保证来自 banners 表上
// 按 is_active 过滤的部分唯一索引。
type PriorityAllocator struct {
	repo repository.BannerRepository
}

// NewPriorityAllocator 创建分配器
func NewPriorityAllocator(repo repository.BannerRepository) *PriorityAllocator {
	return &PriorityAllocator{repo: repo}
}

// NextPriority 活跃记录最大 priority + 1，无活跃记录时为 1
func (a *PriorityAllocator) NextPriority(ctx context.Context) (int, error) {
	max, err := a.repo.MaxActivePriority(ctx)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// AssignOrValidate 指派或校验 priority
//
// 显式给定时校验未被其他活跃记录占用（更新场景用 excludeID 排除自身），
// 缺省时自动取 NextPriority。非活跃记录不参与唯一性，原值直接放行。
func (a *PriorityAllocator) AssignOrValidate(ctx context.Context, requested *int, excludeID uint, isActive bool) (int, error) {
	if requested == nil {
		return a.NextPriority(ctx)
	}
	priority := *requested
	if priority <= 0 {
		return 0, &ValidationError{Field: "priority", Detail: "must be a positive integer"}
	}
	if !isActive {
		return priority, nil
	}
	inUse, err := a.repo.ActivePriorityInUse(ctx, priority, excludeID)
	if err != nil {
		return 0, err
	}
	if inUse {
		return 0, &PriorityConflictError{Priority: priority}
	}
	return priority, nil
}

// BulkReorder 批量重排：全部 id 先行校验，单事务一次性落库
func (s *BannerService) BulkReorder(ctx context.Context, pairs []repository.PriorityPair, actor string) error {
	if len(pairs) == 0 {
		return &ValidationError{Field: "priorities", Detail: "must not be empty"}
	}
	seenIDs := make(map[uint]struct{}, len(pairs))
	seenPriorities := make(map[int]struct{}, len(pairs))
	for _, pair := range pairs {
		if pair.ID == 0 {
			return &ValidationError{Field: "priorities", Detail: "id must not be zero"}
		}
		if pair.Priority <= 0 {
			return &ValidationError{Field: "priorities", Detail: "priority must be a positive integer"}
		}
		if _, dup := seenIDs[pair.ID]; dup {
			return &ValidationError{Field: "priorities", Detail: "duplicate banner id in request"}
		}
		if _, dup := seenPriorities[pair.Priority]; dup {
			return &ValidationError{Field: "priorities", Detail: "duplicate priority in request"}
		}
		seenIDs[pair.ID] = struct{}{}
		seenPriorities[pair.Priority] = struct{}{}
	}

	err := s.repo.BulkReorder(ctx, pairs, EnsureActor(actor))
	if err != nil {
		if errors.Is(err, repository.ErrBannerMissing) {
			return ErrUnknownBannerIDs
		}
		if errors.Is(err, repository.ErrDuplicateActivePriority) {
			return ErrPriorityConflict
		}
		return err
	}

	s.invalidateSnapshots(ctx)
	return nil
}
