package rank

import (
	"context"
	"sort"
	"strconv"

	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/pipeline"
	"github.com/highfive-goorm/highfive-back/pkg/utils"
)

// SimilarityNode 按召回阶段写入的相似度排序：Score 降序，Score 相同时目录行号小的在前。
// 排序是稳定的，同一快照与种子下结果完全可复现。
type SimilarityNode struct{}

func (n *SimilarityNode) Name() string        { return "rank.similarity" }
func (n *SimilarityNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SimilarityNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Index < out[j].Index
	})

	for i, it := range out {
		it.PutLabel(utils.LabelRankPosition, utils.NewLabel(strconv.Itoa(i), "rank"))
	}
	return out, nil
}
