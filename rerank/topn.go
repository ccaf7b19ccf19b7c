package rerank

import (
	"context"

	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个物品。
// 通常作为 Pipeline 的最后一个节点。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.Similar{},        // 召回
//	        &rank.SimilarityNode{},   // 排序
//	        &rerank.TopNNode{},       // 按请求的 top_n 截断
//	    },
//	}
type TopNNode struct {
	// N 是配置的上限：与请求上下文中的 TopN 同时设置时取较小者，
	// N <= 0 时只按请求的 TopN 截断；两者都未设置时不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if rctx != nil && rctx.TopN > 0 && (limit <= 0 || rctx.TopN < limit) {
		limit = rctx.TopN
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
