package pipeline

import (
	"context"
	"fmt"

	"github.com/highfive-goorm/highfive-back/core"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链。
type Pipeline struct {
	Nodes []Node

	// Hook 在每个 Node 执行后调用（可选），用于打点与调试日志
	Hook func(node Node, in, out int)
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		if p.Hook != nil {
			p.Hook(node, len(cur), len(next))
		}
		cur = next
	}
	return cur, nil
}

// Names 返回 Node 名称序列
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		names[i] = n.Name()
	}
	return names
}
