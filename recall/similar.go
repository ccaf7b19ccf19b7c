package recall

import (
	"context"
	"fmt"
	"strconv"

	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/pipeline"
	"github.com/highfive-goorm/highfive-back/pkg/utils"
)

// Similar 以种子商品为中心召回目录中所有其它商品，Score 为与种子的相似度。
// 候选按目录顺序输出，排序交给 rank.similarity；种子商品自身永远不在候选中。
type Similar struct {
	// MinScore 低于该相似度的候选被丢弃（可选，默认不过滤）
	MinScore *float64
}

func (r *Similar) Name() string        { return "recall.similar" }
func (r *Similar) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Similar) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || rctx.Catalog == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInternalError, "recall.similar: no catalog in context")
	}
	view := rctx.Catalog
	n := view.Len()
	if n == 0 {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeEmptyCatalog, "recommend: catalog is empty")
	}
	seed := rctx.SeedIndex
	if seed < 0 || seed >= n {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidArgument,
			fmt.Sprintf("recall.similar: seed index %d out of range [0, %d)", seed, n))
	}

	seedLabel := utils.NewLabel(strconv.FormatInt(view.ItemID(seed), 10), r.Name())
	items := make([]*core.Item, 0, n-1)
	for i := 0; i < n; i++ {
		if i == seed {
			continue
		}
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		score := view.Similarity(seed, i)
		if r.MinScore != nil && score < *r.MinScore {
			continue
		}
		it := core.NewItem(view.ItemID(i), i)
		it.Score = score
		it.Meta = view.ItemMeta(i)
		it.PutLabel(utils.LabelRecallSource, utils.NewLabel(r.Name(), "recall"))
		it.PutLabel(utils.LabelSeedID, seedLabel)
		items = append(items, it)
	}
	return items, nil
}

// Process 让 Similar 直接作为 Pipeline 的首个 Node 使用，忽略输入 items。
func (r *Similar) Process(ctx context.Context, rctx *core.RecommendContext, _ []*core.Item) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}
