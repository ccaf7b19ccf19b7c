package filter

import (
	"context"

	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/pipeline"
	"github.com/highfive-goorm/highfive-back/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉。
// 过滤器出错时不中断流程，该过滤器视为放行；OnError 可用于记录。
type FilterNode struct {
	Filters []Filter

	OnError func(filter string, err error)
}

func (n *FilterNode) Name() string {
	return "filter"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	active := make([]Filter, 0, len(n.Filters))
	for _, f := range n.Filters {
		rf, ok := f.(RequestFilter)
		if !ok {
			active = append(active, f)
			continue
		}
		prepared, err := rf.ForRequest(ctx, rctx)
		if err != nil {
			n.report(f.Name(), err)
			continue
		}
		if prepared != nil {
			active = append(active, prepared)
		}
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		filterReason := ""
		for _, f := range active {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				n.report(f.Name(), err)
				continue
			}
			if ok {
				filterReason = f.Name()
				break
			}
		}

		if filterReason != "" {
			item.PutLabel(utils.LabelFiltered, utils.NewLabel("true", filterReason))
			continue
		}
		out = append(out, item)
	}

	return out, nil
}

func (n *FilterNode) report(name string, err error) {
	if n.OnError != nil {
		n.OnError(name, err)
	}
}
