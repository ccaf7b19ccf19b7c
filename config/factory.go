package config

import (
	"fmt"

	"github.com/highfive-goorm/highfive-back/pipeline"
)

// DefaultPipelineConfig 返回内置链路：召回全部相似商品 → 按相似度排序 → 按请求的 top_n 截断。
func DefaultPipelineConfig() *pipeline.Config {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = "similar-items"
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: SeedRecallType},
		{Type: SimilarityRankType},
		{Type: "rerank.topn"},
	}
	return cfg
}

// BuildPipeline 用 reg 校验并构建链路；path 为空时使用 DefaultPipelineConfig。
func BuildPipeline(path string, reg *Registry) (*pipeline.Pipeline, *pipeline.Config, error) {
	if reg == nil {
		return nil, nil, fmt.Errorf("build pipeline: nil registry")
	}
	cfg := DefaultPipelineConfig()
	if path != "" {
		loaded, err := pipeline.LoadFromFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("load pipeline %s: %w", path, err)
		}
		cfg = loaded
	}
	if err := reg.Validate(cfg); err != nil {
		return nil, nil, err
	}
	p, err := cfg.BuildPipeline(reg.Factory())
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}
