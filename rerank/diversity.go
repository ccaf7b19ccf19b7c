package rerank

import (
	"context"

	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/pipeline"
)

// Diversity 是按类别打散的 ReRank：同一类别最多 MaxPerKey 个物品保留原位，
// 超出的物品按原有顺序移到列表末尾，不丢弃，因此不会减少结果数量。
// 类别来源优先级：
// - label[Key].Value
// - meta[Key] (string)
type Diversity struct {
	Key       string // 默认 "category_code"
	MaxPerKey int    // 默认 1
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.Key
	if key == "" {
		key = "category_code"
	}
	limit := n.MaxPerKey
	if limit <= 0 {
		limit = 1
	}

	seen := make(map[string]int, 32)
	head := make([]*core.Item, 0, len(items))
	var tail []*core.Item

	for _, it := range items {
		if it == nil {
			continue
		}

		cate := ""
		if lbl, ok := it.Labels[key]; ok {
			cate = lbl.Value
		}
		if cate == "" {
			cate = it.MetaString(key)
		}

		if cate == "" {
			head = append(head, it)
			continue
		}
		if seen[cate] >= limit {
			tail = append(tail, it)
			continue
		}
		seen[cate]++
		head = append(head, it)
	}

	return append(head, tail...), nil
}
