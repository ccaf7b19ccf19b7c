package filter

import (
	"context"

	"github.com/highfive-goorm/highfive-back/core"
)

// Filter 是过滤器的抽象接口，用于判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// RequestFilter 是需要按请求准备状态的过滤器（例如从存储读取名单）。
// FilterNode 在每次 Process 开始时调用一次 ForRequest，返回的 Filter 只在本次请求内使用，
// 避免对每个候选都访问一次存储。
type RequestFilter interface {
	Filter
	ForRequest(ctx context.Context, rctx *core.RecommendContext) (Filter, error)
}

// idSet 是按商品 ID 过滤的请求内过滤器
type idSet struct {
	name string
	ids  map[int64]struct{}
}

func newIDSet(name string, ids ...[]int64) *idSet {
	s := &idSet{name: name, ids: make(map[int64]struct{})}
	for _, group := range ids {
		for _, id := range group {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

func (s *idSet) Name() string { return s.name }

func (s *idSet) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := s.ids[item.ID]
	return ok, nil
}
