// Package productsvc 调用商品服务的批量查询接口，把推荐出的商品 ID 补全为展示用的商品详情。
//
// 所有调用都经过熔断器：商品服务持续失败时快速拒绝，避免拖慢推荐接口。
package productsvc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/highfive-goorm/highfive-back/catalog"
	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/logging"
	"github.com/highfive-goorm/highfive-back/metrics"
)

// Product 是商品服务返回的商品详情（只取推荐展示需要的字段）。
type Product struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	ImgURL          string  `json:"img_url"`
	BrandKor        string  `json:"brand_kor"`
	Discount        float64 `json:"discount"`
	Price           float64 `json:"price"`
	DiscountedPrice float64 `json:"discounted_price"`
}

// Fetcher 按 ID 批量获取商品详情，返回顺序与 ids 一致。
type Fetcher interface {
	Bulk(ctx context.Context, ids []int64) ([]Product, error)
}

// FetcherFunc 让普通函数实现 Fetcher（例如未配置商品服务时直接读本地目录）
type FetcherFunc func(ctx context.Context, ids []int64) ([]Product, error)

func (f FetcherFunc) Bulk(ctx context.Context, ids []int64) ([]Product, error) {
	return f(ctx, ids)
}

// Config 商品服务客户端配置
type Config struct {
	BaseURL string
	Timeout time.Duration

	// 熔断器参数
	MaxRequests  uint32        // 半开状态允许的并发请求数
	Interval     time.Duration // 关闭状态下计数清零的周期
	OpenTimeout  time.Duration // 打开状态持续多久后进入半开
	FailureRatio float64       // 失败率达到该值时打开
	MinRequests  uint32        // 计算失败率所需的最少请求数
}

// Client 是带熔断器的商品服务客户端，可并发使用。
type Client struct {
	bulkURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[[]Product]
	name    string
	logger  zerolog.Logger
}

const breakerName = "product-service"

// New 创建客户端。httpClient 为 nil 时按 cfg.Timeout 新建。
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidArgument, "productsvc: base url is empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.6
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 5
	}

	c := &Client{
		bulkURL: base + "/bulk",
		http:    httpClient,
		name:    breakerName,
		logger:  logging.WithComponent("productsvc"),
	}

	metrics.CircuitBreakerState.WithLabelValues(c.name).Set(0)

	c.cb = gobreaker.NewCircuitBreaker[[]Product](gobreaker.Settings{
		Name:        c.name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				c.logger.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_ratio", ratio).Msg("opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			c.logger.Info().Str("from", fromStr).Str("to", toStr).Msg("circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
		// 调用方取消不计为商品服务失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return c, nil
}

// State 返回当前熔断器状态
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}

type bulkRequest struct {
	ProductIDs []int64 `json:"product_ids"`
}

// Bulk 调用 POST {base}/bulk，并把结果按 ids 的顺序重排；商品服务未返回的 ID 被跳过。
//
// 熔断打开时返回 UNAVAILABLE，其余失败返回 UPSTREAM。
func (c *Client) Bulk(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}

	products, err := c.cb.Execute(func() ([]Product, error) {
		return c.post(ctx, ids)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(c.name, "rejected").Inc()
			c.logger.Warn().Err(err).Msg("request rejected")
			return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable,
				fmt.Sprintf("productsvc: %v", err))
		}
		metrics.CircuitBreakerRequests.WithLabelValues(c.name, "failure").Inc()
		if core.IsDomainError(err) {
			return nil, err
		}
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUpstream,
			fmt.Sprintf("productsvc: %v", err))
	}
	metrics.CircuitBreakerRequests.WithLabelValues(c.name, "success").Inc()

	return reorder(ids, products), nil
}

func (c *Client) post(ctx context.Context, ids []int64) ([]Product, error) {
	body, err := json.Marshal(bulkRequest{ProductIDs: ids})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bulkURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", c.bulkURL, err)
	}
	defer resp.Body.Close()

	logging.Ctx(ctx).Debug().
		Int("status", resp.StatusCode).
		Int("ids", len(ids)).
		Dur("elapsed", time.Since(start)).
		Msg("product bulk lookup")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUpstream,
			fmt.Sprintf("productsvc: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUpstream,
			fmt.Sprintf("productsvc: decode response: %v", err))
	}
	return products, nil
}

// reorder 按推荐顺序排列商品详情，重复 ID 只保留第一条。
func reorder(ids []int64, products []Product) []Product {
	byID := make(map[int64]Product, len(products))
	for _, p := range products {
		if _, ok := byID[p.ID]; !ok {
			byID[p.ID] = p
		}
	}
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// FromCatalog 把目录商品转换为商品详情，用于未配置商品服务时直接使用本地目录。
func FromCatalog(items []catalog.Item) []Product {
	out := make([]Product, len(items))
	for i := range items {
		it := &items[i]
		out[i] = Product{
			ID:              it.ID,
			Name:            it.Name,
			ImgURL:          it.ImgURL,
			BrandKor:        it.BrandKor,
			Discount:        it.Discount,
			Price:           it.Price,
			DiscountedPrice: it.DiscountedPrice,
		}
	}
	return out
}
