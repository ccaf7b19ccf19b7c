package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/highfive-goorm/highfive-back/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译好的 Label DSL 表达式，使用 CEL (Common Expression Language) 实现。
// 编译一次，可被多个请求并发 Evaluate。
//
// 表达式语法（CEL 标准语法）：
//   - 元信息：item.meta.gender == "F" / item.meta.category_code == "001"
//   - 数值：item.score > 0.7 / item.meta.price < 50000.0
//   - 标签：label.recall_source == "similar"
//   - 请求：rctx.params.gender == item.meta.gender
//   - 逻辑：item.meta.discount > 30.0 && item.score >= 0.5
//
// 示例：
//   - `item.meta.category_code == rctx.params.category` → 只保留指定类目
//   - `item.meta.brand_eng in ["nike", "adidas"]` → 品牌白名单
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。表达式为空时返回 nil Program（Evaluate 恒为 true）。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式
func (p *Program) String() string {
	if p == nil {
		return ""
	}
	return p.expr
}

// Evaluate 对单个物品执行表达式，返回布尔结果。
// 注意：CEL 访问不存在的 key 会报错，可以用 has(item.meta.key) 检查存在性。
func (p *Program) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p == nil {
		return true, nil
	}

	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = v.Value
	}

	meta := it.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	item := map[string]any{
		"id":    it.ID,
		"index": it.Index,
		"score": it.Score,
		"meta":  meta,
	}

	ctxMap := map[string]any{
		"user_id": "",
		"scene":   "",
		"params":  map[string]any{},
	}
	if rctx != nil {
		ctxMap["user_id"] = rctx.UserID
		ctxMap["scene"] = rctx.Scene
		if rctx.Params != nil {
			ctxMap["params"] = rctx.Params
		}
	}

	return map[string]any{
		"item":  item,
		"label": labels,
		"rctx":  ctxMap,
	}
}
