// Package engine 持有当前目录快照对应的推荐模型，并对外提供推荐入口。
//
// 模型按目录版本构建一次：同一版本的并发构建经 singleflight 合并，
// 后台刷新发现版本未变时保留已有矩阵。请求侧只读取不可变的 Model。
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/highfive-goorm/highfive-back/catalog"
	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/logging"
	"github.com/highfive-goorm/highfive-back/metrics"
	"github.com/highfive-goorm/highfive-back/pipeline"
)

// Options 引擎参数
type Options struct {
	// DefaultTopN 供调用方在未指定 top_n 时使用
	DefaultTopN int
	// MaxTopN 为 0 时不限制，超过时返回 INVALID_ARGUMENT
	MaxTopN int

	// Cache 为 nil 时不缓存推荐结果
	Cache    core.Store
	CacheTTL time.Duration
}

// Engine 是推荐服务的核心，可并发使用。
type Engine struct {
	source   catalog.Source
	pipeline *pipeline.Pipeline
	opts     Options
	logger   zerolog.Logger

	mu    sync.RWMutex
	model *Model
	group singleflight.Group
}

// New 创建引擎。需要调用 Load 后才能提供推荐。
func New(source catalog.Source, p *pipeline.Pipeline, opts Options) *Engine {
	if opts.DefaultTopN <= 0 {
		opts.DefaultTopN = core.DefaultTopN
	}
	e := &Engine{
		source:   source,
		pipeline: p,
		opts:     opts,
		logger:   logging.WithComponent("engine"),
	}
	if p.Hook == nil {
		p.Hook = func(node pipeline.Node, in, out int) {
			e.logger.Debug().Str("node", node.Name()).Int("in", in).Int("out", out).Msg("node done")
		}
	}
	return e
}

// DefaultTopN 返回默认推荐数量
func (e *Engine) DefaultTopN() int {
	return e.opts.DefaultTopN
}

// Load 加载目录并构建模型；启动时调用，失败即返回错误。
func (e *Engine) Load(ctx context.Context) error {
	_, err := e.Refresh(ctx)
	return err
}

// Refresh 重新读取目录。版本未变化时返回 changed=false 且不重建矩阵。
func (e *Engine) Refresh(ctx context.Context) (changed bool, err error) {
	snap, err := e.source.Load(ctx)
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("error").Inc()
		return false, fmt.Errorf("load catalog from %s: %w", e.source.Name(), err)
	}

	if cur := e.current(); cur != nil && cur.Version() == snap.Version {
		metrics.CatalogReloads.WithLabelValues("unchanged").Inc()
		return false, nil
	}

	v, err, shared := e.group.Do(snap.Version, func() (interface{}, error) {
		return BuildModel(snap)
	})
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("error").Inc()
		return false, fmt.Errorf("build model %s: %w", snap.Version, err)
	}
	m := v.(*Model)

	e.mu.Lock()
	if e.model != nil && e.model.Version() == m.Version() {
		e.mu.Unlock()
		metrics.CatalogReloads.WithLabelValues("unchanged").Inc()
		return false, nil
	}
	e.model = m
	e.mu.Unlock()

	metrics.CatalogReloads.WithLabelValues("changed").Inc()
	metrics.CatalogItems.Set(float64(m.Len()))
	if !shared {
		metrics.SnapshotBuildDuration.Observe(m.BuildDuration.Seconds())
	}

	evt := e.logger.Info()
	if m.Len() == 0 {
		evt = e.logger.Warn()
	}
	evt.Str("version", m.Version()).
		Int("items", m.Len()).
		Dur("build", m.BuildDuration).
		Msg("catalog snapshot loaded")
	return true, nil
}

// Run 按 interval 周期刷新目录，直到 ctx 结束。interval <= 0 时立即返回。
// 刷新失败只记日志，继续使用旧模型。
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.Refresh(ctx); err != nil {
				e.logger.Error().Err(err).Msg("catalog refresh failed")
			}
		}
	}
}

// Model 返回当前模型；尚未加载时返回 UNAVAILABLE。
func (e *Engine) Model() (*Model, error) {
	m := e.current()
	if m == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeUnavailable, "recommend: catalog not loaded")
	}
	return m, nil
}

func (e *Engine) current() *Model {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

// Recommend 为用户返回 topN 个与其种子商品最相似的商品 ID。
func (e *Engine) Recommend(ctx context.Context, userID string, topN int) (*core.Result, error) {
	return e.RecommendWithParams(ctx, userID, topN, nil)
}

// RecommendWithParams 同 Recommend，params 透传给链路（CEL 过滤表达式通过 rctx.params 读取）。
// 带 params 的请求不走结果缓存。
func (e *Engine) RecommendWithParams(ctx context.Context, userID string, topN int, params map[string]any) (*core.Result, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, e.fail("user", core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidArgument, "recommend: user id is empty"))
	}
	if err := e.checkTopN(topN); err != nil {
		return nil, e.fail("user", err)
	}
	m, err := e.Model()
	if err != nil {
		return nil, e.fail("user", err)
	}

	cacheable := e.opts.Cache != nil && len(params) == 0
	key := cacheKey(m.Version(), "u", userID, topN)
	if cacheable {
		if res, ok := e.cached(ctx, key); ok {
			metrics.Recommendations.WithLabelValues("user", "cached").Inc()
			return res, nil
		}
	}

	seed, err := core.SeedIndex(userID, m.Len())
	if err != nil {
		return nil, e.fail("user", err)
	}
	res, err := e.run(ctx, m, &core.RecommendContext{
		UserID:    userID,
		Scene:     "user",
		TopN:      topN,
		SeedIndex: seed,
		Params:    params,
	})
	if err != nil {
		return nil, e.fail("user", err)
	}
	res.UserID = userID

	if cacheable {
		e.store(ctx, key, res)
	}
	metrics.Recommendations.WithLabelValues("user", "ok").Inc()
	logging.Ctx(ctx).Debug().
		Str("user_id", userID).
		Int64("seed_id", res.SeedID).
		Int("count", len(res.ProductIDs)).
		Msg("recommendation computed")
	return res, nil
}

// Similar 返回与给定商品最相似的 topN 个商品 ID（以该商品为种子）。
func (e *Engine) Similar(ctx context.Context, productID int64, topN int) (*core.Result, error) {
	if err := e.checkTopN(topN); err != nil {
		return nil, e.fail("similar", err)
	}
	m, err := e.Model()
	if err != nil {
		return nil, e.fail("similar", err)
	}
	if m.Len() == 0 {
		return nil, e.fail("similar", core.NewDomainError(core.ModuleRecommend, core.ErrorCodeEmptyCatalog, "recommend: catalog is empty"))
	}
	idx, ok := m.Snapshot.IndexOf(productID)
	if !ok {
		return nil, e.fail("similar", core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNotFound,
			fmt.Sprintf("recommend: product %d not in catalog", productID)))
	}

	key := cacheKey(m.Version(), "p", strconv.FormatInt(productID, 10), topN)
	if e.opts.Cache != nil {
		if res, ok := e.cached(ctx, key); ok {
			metrics.Recommendations.WithLabelValues("similar", "cached").Inc()
			return res, nil
		}
	}

	res, err := e.run(ctx, m, &core.RecommendContext{
		Scene:     "similar",
		TopN:      topN,
		SeedIndex: idx,
	})
	if err != nil {
		return nil, e.fail("similar", err)
	}
	if e.opts.Cache != nil {
		e.store(ctx, key, res)
	}
	metrics.Recommendations.WithLabelValues("similar", "ok").Inc()
	return res, nil
}

// Items 按 ID 返回目录中的商品，未知 ID 被跳过；顺序与 ids 一致。
func (e *Engine) Items(ids []int64) ([]catalog.Item, error) {
	m, err := e.Model()
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Item, 0, len(ids))
	for _, id := range ids {
		if i, ok := m.Snapshot.IndexOf(id); ok {
			out = append(out, m.Snapshot.Items[i])
		}
	}
	return out, nil
}

func (e *Engine) checkTopN(topN int) error {
	if topN <= 0 {
		return core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidArgument,
			fmt.Sprintf("recommend: top_n must be positive, got %d", topN))
	}
	if e.opts.MaxTopN > 0 && topN > e.opts.MaxTopN {
		return core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidArgument,
			fmt.Sprintf("recommend: top_n must not exceed %d, got %d", e.opts.MaxTopN, topN))
	}
	return nil
}

func (e *Engine) run(ctx context.Context, m *Model, rctx *core.RecommendContext) (*core.Result, error) {
	rctx.Catalog = m

	start := time.Now()
	items, err := e.pipeline.Run(ctx, rctx, nil)
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	// 链路配置可以省略 rerank.topn，结果长度以请求为准
	if rctx.TopN > 0 && len(items) > rctx.TopN {
		items = items[:rctx.TopN]
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return &core.Result{
		ProductIDs: ids,
		SeedID:     m.ItemID(rctx.SeedIndex),
		Version:    m.Version(),
	}, nil
}

func (e *Engine) fail(kind string, err error) error {
	outcome := "error"
	if de := core.GetDomainError(err); de != nil {
		outcome = strings.ToLower(de.Code)
	}
	metrics.Recommendations.WithLabelValues(kind, outcome).Inc()
	return err
}

// cachedResult 是缓存中的结果；Result 的 SeedID/Version 不参与默认序列化，这里单独保存。
type cachedResult struct {
	UserID     string  `json:"user_id"`
	ProductIDs []int64 `json:"product_ids"`
	SeedID     int64   `json:"seed_id"`
	Version    string  `json:"version"`
}

func cacheKey(version, kind, id string, topN int) string {
	return fmt.Sprintf("rec:%s:%s:%s:%d", version, kind, id, topN)
}

func (e *Engine) cached(ctx context.Context, key string) (*core.Result, bool) {
	raw, err := e.opts.Cache.Get(ctx, key)
	if err != nil {
		if !core.IsStoreNotFound(err) {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("result cache read failed")
		}
		metrics.CacheMisses.Inc()
		return nil, false
	}
	var c cachedResult
	if err := json.Unmarshal(raw, &c); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("result cache entry corrupt")
		metrics.CacheMisses.Inc()
		return nil, false
	}
	metrics.CacheHits.Inc()
	return &core.Result{UserID: c.UserID, ProductIDs: c.ProductIDs, SeedID: c.SeedID, Version: c.Version}, true
}

func (e *Engine) store(ctx context.Context, key string, res *core.Result) {
	raw, err := json.Marshal(cachedResult{
		UserID:     res.UserID,
		ProductIDs: res.ProductIDs,
		SeedID:     res.SeedID,
		Version:    res.Version,
	})
	if err != nil {
		return
	}
	if err := e.opts.Cache.Set(ctx, key, raw, int(e.opts.CacheTTL/time.Second)); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("result cache write failed")
	}
}
