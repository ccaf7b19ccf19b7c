package filter

import (
	"context"

	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/pkg/dsl"
)

// ExprFilter 用 CEL 表达式决定是否保留候选：表达式为 true 的商品保留，其余被过滤。
//
// 示例：
//   - `item.meta.gender == rctx.params.gender || item.meta.gender == "U"`
//   - `item.meta.discounted_price <= 100000.0`
type ExprFilter struct {
	program *dsl.Program
}

// NewExprFilter 编译表达式；表达式非法时返回错误。
func NewExprFilter(expr string) (*ExprFilter, error) {
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{program: p}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// Expr 返回原始表达式
func (f *ExprFilter) Expr() string {
	return f.program.String()
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	keep, err := f.program.Evaluate(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
