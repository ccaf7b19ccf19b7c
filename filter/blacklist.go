package filter

import (
	"context"

	"github.com/highfive-goorm/highfive-back/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的商品（下架、违规等）。
type BlacklistFilter struct {
	// ItemIDs 是内存中的黑名单商品 ID 列表
	ItemIDs []int64

	// Store 用于从存储中读取黑名单（可选）
	Store BlacklistStore

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	// GetBlacklist 获取黑名单商品 ID 列表
	GetBlacklist(ctx context.Context, key string) ([]int64, error)
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []int64, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	var store BlacklistStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &BlacklistFilter{
		ItemIDs: itemIDs,
		Store:   store,
		Key:     key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

// ShouldFilter 只检查内存列表；经由 FilterNode 使用时会先 ForRequest 合并存储中的名单。
func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	return newIDSet(f.Name(), f.ItemIDs).ShouldFilter(ctx, rctx, item)
}

// ForRequest 读取一次存储中的黑名单并与内存列表合并。key 不存在视为空名单。
func (f *BlacklistFilter) ForRequest(ctx context.Context, _ *core.RecommendContext) (Filter, error) {
	if f.Store == nil || f.Key == "" {
		return newIDSet(f.Name(), f.ItemIDs), nil
	}
	stored, err := f.Store.GetBlacklist(ctx, f.Key)
	if err != nil && !core.IsStoreNotFound(err) {
		return nil, err
	}
	return newIDSet(f.Name(), f.ItemIDs, stored), nil
}
