// Package builders 提供内置 Node 的构建器，并按依赖组装 config.Registry。
package builders

import (
	"fmt"

	"github.com/highfive-goorm/highfive-back/config"
	"github.com/highfive-goorm/highfive-back/filter"
	"github.com/highfive-goorm/highfive-back/pipeline"
	"github.com/highfive-goorm/highfive-back/pkg/conv"
	"github.com/highfive-goorm/highfive-back/rank"
	"github.com/highfive-goorm/highfive-back/recall"
	"github.com/highfive-goorm/highfive-back/rerank"
)

// Deps 是构建需要外部资源的 Node 时使用的依赖，由入口显式传入 NewRegistry。
type Deps struct {
	// BlacklistStore 供 blacklist / user_block 过滤器读取名单；为 nil 时只使用配置中的 ID
	BlacklistStore *filter.StoreAdapter
	// OnFilterError 记录过滤器错误（可选）
	OnFilterError func(filter string, err error)
}

// NewRegistry 返回注册了全部内置 Node 的 Registry，filter 构建器闭包持有 deps。
func NewRegistry(deps Deps) *config.Registry {
	reg := config.NewRegistry()
	reg.Register(config.SeedRecallType, BuildSimilarNode)
	reg.Register(config.SimilarityRankType, BuildSimilarityRankNode)
	reg.Register("rerank.topn", BuildTopNNode)
	reg.Register("rerank.diversity", BuildDiversityNode)
	reg.Register("filter", deps.BuildFilterNode)
	return reg
}

func BuildSimilarNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := &recall.Similar{}
	if v, ok := cfg["min_score"]; ok {
		f, ok := conv.ToFloat64(v)
		if !ok {
			return nil, fmt.Errorf("min_score must be a number")
		}
		n.MinScore = &f
	}
	return n, nil
}

func BuildSimilarityRankNode(map[string]interface{}) (pipeline.Node, error) {
	return &rank.SimilarityNode{}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("n must not be negative")
	}
	return &rerank.TopNNode{N: int(n)}, nil
}

func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Diversity{
		Key:       conv.ConfigGet(cfg, "key", "category_code"),
		MaxPerKey: int(conv.ConfigGetInt64(cfg, "max_per_key", 1)),
	}, nil
}

// BuildFilterNode 构建过滤节点，blacklist / user_block 从 d.BlacklistStore 读取名单。
func (d Deps) BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "blacklist":
			ids := conv.SliceAnyToInt64(filterMap["item_ids"])
			key := conv.ConfigGet(filterMap, "key", "")
			filters = append(filters, filter.NewBlacklistFilter(ids, d.BlacklistStore, key))

		case "user_block":
			keyPrefix := conv.ConfigGet(filterMap, "key_prefix", "")
			filters = append(filters, filter.NewUserBlockFilter(d.BlacklistStore, keyPrefix))

		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""))
			if err != nil {
				return nil, fmt.Errorf("expr filter: %w", err)
			}
			filters = append(filters, f)

		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	return &filter.FilterNode{Filters: filters, OnError: d.OnFilterError}, nil
}
