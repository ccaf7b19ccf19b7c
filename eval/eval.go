// Package eval 离线评估相似商品推荐：把每个商品当作查询，以同类目作为相关性标准，
// 计算 Precision@K 与 Recall@K。
package eval

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/highfive-goorm/highfive-back/catalog"
	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/similarity"
)

// Report 是一次评估的结果。
//
// Recall 只在同类目商品数（不含自身）大于 0 的查询上取平均；
// 没有这样的查询时 Recall 为 0，RecallQueries 为 0。
type Report struct {
	K             int     `json:"k"`
	Precision     float64 `json:"Precision@K"`
	Recall        float64 `json:"Recall@K"`
	Queries       int     `json:"queries"`
	RecallQueries int     `json:"recall_queries"`
}

// Evaluator 评估器。Parallelism <= 0 时使用 GOMAXPROCS。
type Evaluator struct {
	K           int
	Parallelism int
}

type queryResult struct {
	precision float64
	recall    float64
	hasRecall bool
}

// Evaluate 使用默认并发度评估
func Evaluate(ctx context.Context, snap *catalog.Snapshot, sim *similarity.Matrix, k int) (*Report, error) {
	return (&Evaluator{K: k}).Run(ctx, snap, sim)
}

// Run 对快照中的每个商品执行一次 Top-K 查询（种子即该商品的行号）。
// 每个查询的结果按行号存放，汇总顺序固定，结果与并发度无关。
func (e *Evaluator) Run(ctx context.Context, snap *catalog.Snapshot, sim *similarity.Matrix) (*Report, error) {
	if e.K <= 0 {
		return nil, core.NewDomainError(core.ModuleEval, core.ErrorCodeInvalidArgument,
			fmt.Sprintf("eval: k must be positive, got %d", e.K))
	}
	n := snap.Len()
	if n == 0 {
		return nil, core.NewDomainError(core.ModuleEval, core.ErrorCodeEmptyCatalog, "eval: catalog is empty")
	}
	if sim == nil || sim.Size() != n {
		return nil, core.NewDomainError(core.ModuleEval, core.ErrorCodeInternalError, "eval: similarity matrix does not match catalog")
	}

	// 同类目商品数；空类目视为未知，不与任何商品相关
	categoryCount := make(map[string]int)
	for i := range snap.Items {
		if c := snap.Items[i].CategoryCode; c != "" {
			categoryCount[c]++
		}
	}

	results := make([]queryResult, n)
	limit := e.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for q := 0; q < n; q++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			top, err := sim.TopK(q, e.K)
			if err != nil {
				return err
			}
			category := snap.Items[q].CategoryCode

			relevant := 0
			if category != "" {
				for _, i := range top {
					if snap.Items[i].CategoryCode == category {
						relevant++
					}
				}
			}

			r := queryResult{precision: float64(relevant) / float64(e.K)}
			if total := categoryCount[category] - 1; category != "" && total > 0 {
				r.recall = float64(relevant) / float64(total)
				r.hasRecall = true
			}
			results[q] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{K: e.K, Queries: n}
	var precisionSum, recallSum float64
	for _, r := range results {
		precisionSum += r.precision
		if r.hasRecall {
			recallSum += r.recall
			report.RecallQueries++
		}
	}
	report.Precision = precisionSum / float64(n)
	if report.RecallQueries > 0 {
		report.Recall = recallSum / float64(report.RecallQueries)
	}
	return report, nil
}
