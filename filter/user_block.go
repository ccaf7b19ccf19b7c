package filter

import (
	"context"

	"github.com/highfive-goorm/highfive-back/core"
)

// UserBlockFilter 是用户屏蔽过滤器，过滤掉用户主动屏蔽的商品。
// 匿名用户（guest）通常没有屏蔽列表，key 不存在时视为空。
type UserBlockFilter struct {
	// Store 用于从存储中读取用户屏蔽列表
	Store UserBlockStore

	// KeyPrefix 是 Store 中的 key 前缀，实际 key 为 {KeyPrefix}:{UserID}
	KeyPrefix string
}

// UserBlockStore 是用户屏蔽存储接口。
type UserBlockStore interface {
	// GetUserBlocks 获取用户屏蔽的商品 ID 列表
	GetUserBlocks(ctx context.Context, userID string, keyPrefix string) ([]int64, error)
}

// NewUserBlockFilter 创建一个用户屏蔽过滤器。
func NewUserBlockFilter(storeAdapter *StoreAdapter, keyPrefix string) *UserBlockFilter {
	var store UserBlockStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &UserBlockFilter{
		Store:     store,
		KeyPrefix: keyPrefix,
	}
}

func (f *UserBlockFilter) Name() string {
	return "filter.user_block"
}

func (f *UserBlockFilter) keyPrefix() string {
	if f.KeyPrefix == "" {
		return "user:block"
	}
	return f.KeyPrefix
}

// ShouldFilter 单独使用时每次都读取存储；FilterNode 中会改用 ForRequest 的结果。
func (f *UserBlockFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	prepared, err := f.ForRequest(ctx, rctx)
	if err != nil {
		return false, err
	}
	return prepared.ShouldFilter(ctx, rctx, item)
}

func (f *UserBlockFilter) ForRequest(ctx context.Context, rctx *core.RecommendContext) (Filter, error) {
	if f.Store == nil || rctx == nil || rctx.UserID == "" {
		return newIDSet(f.Name()), nil
	}
	blocked, err := f.Store.GetUserBlocks(ctx, rctx.UserID, f.keyPrefix())
	if err != nil && !core.IsStoreNotFound(err) {
		return nil, err
	}
	return newIDSet(f.Name(), blocked), nil
}
