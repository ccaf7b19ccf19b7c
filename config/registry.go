package config

import (
	"fmt"
	"sort"

	"github.com/highfive-goorm/highfive-back/pipeline"
)

// 推荐链路的固定骨架：第一个节点必须是 SeedRecallType，其后必须出现 SimilarityRankType。
const (
	SeedRecallType     = "recall.similar"
	SimilarityRankType = "rank.similarity"
)

// NodeBuilder 与 pipeline.NodeBuilder 一致：根据 config 构建 Node。
type NodeBuilder = pipeline.NodeBuilder

// Registry 是一次链路构建可用的 Node 类型表。
// 构建器可以闭包持有外部依赖（存储、错误回调），因此每个进程入口各自创建，不共享全局状态。
type Registry struct {
	builders map[string]NodeBuilder
}

// NewRegistry 创建空的 Registry
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]NodeBuilder)}
}

// Register 注册一种 Node；typeName 为空或 builder 为 nil 时忽略，同名后注册者覆盖。
func (r *Registry) Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	r.builders[typeName] = builder
}

// Types 返回已注册的 Node 类型（排序），用于错误提示。
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.builders))
	for t := range r.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Validate 检查链路非空、所有类型已注册，并且符合推荐骨架：
// 以 recall.similar 开头，之后包含 rank.similarity。
// 结果长度不依赖配置：Engine 在链路末尾按请求的 top_n 统一截断。
func (r *Registry) Validate(cfg *pipeline.Config) error {
	if cfg == nil || len(cfg.Pipeline.Nodes) == 0 {
		return fmt.Errorf("pipeline has no nodes")
	}
	ranked := false
	for i, nc := range cfg.Pipeline.Nodes {
		if _, ok := r.builders[nc.Type]; !ok {
			return fmt.Errorf("node %d: unsupported type %q (supported: %v)", i, nc.Type, r.Types())
		}
		switch {
		case i == 0 && nc.Type != SeedRecallType:
			return fmt.Errorf("pipeline %q must start with %s, got %q", cfg.Pipeline.Name, SeedRecallType, nc.Type)
		case i > 0 && nc.Type == SeedRecallType:
			return fmt.Errorf("pipeline %q: %s may only appear first", cfg.Pipeline.Name, SeedRecallType)
		case nc.Type == SimilarityRankType:
			ranked = true
		}
	}
	if !ranked {
		return fmt.Errorf("pipeline %q must contain %s", cfg.Pipeline.Name, SimilarityRankType)
	}
	return nil
}

// Factory 把注册表转换成 pipeline.NodeFactory
func (r *Registry) Factory() *pipeline.NodeFactory {
	f := pipeline.NewNodeFactory()
	for typeName, builder := range r.builders {
		f.Register(typeName, builder)
	}
	return f
}
