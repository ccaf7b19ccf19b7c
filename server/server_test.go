package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highfive-goorm/highfive-back/catalog"
	"github.com/highfive-goorm/highfive-back/config"
	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/engine"
	"github.com/highfive-goorm/highfive-back/pipeline"
	"github.com/highfive-goorm/highfive-back/productsvc"
	"github.com/highfive-goorm/highfive-back/rank"
	"github.com/highfive-goorm/highfive-back/recall"
	"github.com/highfive-goorm/highfive-back/rerank"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	src := &catalog.StaticSource{
		Products: []catalog.Product{
			{ID: 1, Name: "a", ImgURL: "a.jpg", BrandID: 1, HasBrandID: true, Gender: "M", CategoryCode: "001", Discount: 10, Price: 1000, DiscountedPrice: 900},
			{ID: 2, Name: "b", ImgURL: "b.jpg", BrandID: 2, HasBrandID: true, Gender: "F", CategoryCode: "002", Discount: 20, Price: 2000, DiscountedPrice: 1600},
			{ID: 3, Name: "c", ImgURL: "c.jpg", BrandID: 1, HasBrandID: true, Gender: "M", CategoryCode: "001", Discount: 0, Price: 1500, DiscountedPrice: 1500},
			{ID: 4, Name: "d", ImgURL: "d.jpg", BrandID: 2, HasBrandID: true, Gender: "F", CategoryCode: "003", Discount: 50, Price: 3000, DiscountedPrice: 1500},
			{ID: 5, Name: "e", ImgURL: "e.jpg", Gender: "U", CategoryCode: "002", Discount: 30, Price: 500, DiscountedPrice: 350},
		},
		Brands: []catalog.Brand{
			{ID: 1, BrandEng: "alpha", BrandKor: "알파", LikeCount: 10},
			{ID: 2, BrandEng: "beta", BrandKor: "베타", LikeCount: 3},
		},
	}
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{&recall.Similar{}, &rank.SimilarityNode{}, &rerank.TopNNode{}}}
	e := engine.New(src, p, engine.Options{DefaultTopN: 2, MaxTopN: 100})
	require.NoError(t, e.Load(context.Background()))
	return e
}

// localFetcher 直接从目录取商品详情
func localFetcher(e *engine.Engine) productsvc.Fetcher {
	return productsvc.FetcherFunc(func(_ context.Context, ids []int64) ([]productsvc.Product, error) {
		items, err := e.Items(ids)
		if err != nil {
			return nil, err
		}
		return productsvc.FromCatalog(items), nil
	})
}

func testServer(t *testing.T, fetcher productsvc.Fetcher) (*Server, *engine.Engine) {
	t.Helper()
	e := testEngine(t)
	if fetcher == nil {
		fetcher = localFetcher(e)
	}
	cfg := config.Default().Server
	cfg.RequestTimeout = 5 * time.Second
	return New(e, fetcher, cfg), e
}

func do(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t, nil)
	rec := do(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRecommendGuest(t *testing.T) {
	s, e := testServer(t, nil)

	rec := do(t, s, "/recommend/guest?top_n=3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp RecommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "비회원", resp.UserAccount)
	require.Len(t, resp.Recommends, 3)

	want, err := e.Recommend(context.Background(), "guest", 3)
	require.NoError(t, err)
	for i, item := range resp.Recommends {
		assert.Equal(t, want.ProductIDs[i], item.ID)
		assert.NotEmpty(t, item.ImgURL)
	}
}

func TestRecommendPriceIsDiscounted(t *testing.T) {
	fetcher := productsvc.FetcherFunc(func(_ context.Context, ids []int64) ([]productsvc.Product, error) {
		out := make([]productsvc.Product, len(ids))
		for i, id := range ids {
			out[i] = productsvc.Product{ID: id, Price: 1000, DiscountedPrice: 700, Discount: 30}
		}
		return out, nil
	})
	s, _ := testServer(t, fetcher)

	rec := do(t, s, "/recommend/someone")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp RecommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "someone", resp.UserAccount)
	require.Len(t, resp.Recommends, 2)
	assert.Equal(t, 700.0, resp.Recommends[0].Price)
}

func TestRecommendIDs(t *testing.T) {
	s, _ := testServer(t, nil)

	rec := do(t, s, "/recommend/guest/ids?top_n=100")
	require.Equal(t, http.StatusOK, rec.Code)

	var res core.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "guest", res.UserID)
	assert.Len(t, res.ProductIDs, 4)
}

func TestSimilarEndpoint(t *testing.T) {
	s, _ := testServer(t, nil)

	rec := do(t, s, "/similar/1?top_n=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SimilarResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.ProductID)
	assert.Equal(t, []int64{3}, resp.Similar)
}

func TestCatalogMeta(t *testing.T) {
	s, e := testServer(t, nil)
	m, err := e.Model()
	require.NoError(t, err)

	rec := do(t, s, "/catalog/meta")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp CatalogMetaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, m.Version(), resp.Version)
	assert.Equal(t, 5, resp.Items)
	require.NotNil(t, resp.Features)
	assert.Contains(t, resp.Features.FeatureColumns, "brand_eng_freq")
}

func TestErrorMapping(t *testing.T) {
	failing := func(err error) productsvc.Fetcher {
		return productsvc.FetcherFunc(func(context.Context, []int64) ([]productsvc.Product, error) {
			return nil, err
		})
	}
	tests := []struct {
		name    string
		fetcher productsvc.Fetcher
		path    string
		status  int
	}{
		{"zero top_n", nil, "/recommend/guest?top_n=0", http.StatusBadRequest},
		{"negative top_n", nil, "/recommend/guest/ids?top_n=-3", http.StatusBadRequest},
		{"non-numeric top_n", nil, "/recommend/guest?top_n=abc", http.StatusBadRequest},
		{"top_n above max", nil, "/recommend/guest/ids?top_n=101", http.StatusBadRequest},
		{"blank user", nil, "/recommend/%20%20/ids", http.StatusBadRequest},
		{"bad product id", nil, "/similar/xyz", http.StatusBadRequest},
		{"unknown product", nil, "/similar/999", http.StatusNotFound},
		{"product service failure", failing(errors.New("connection refused")), "/recommend/guest", http.StatusBadGateway},
		{"circuit open", failing(core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable, "circuit breaker is open")), "/recommend/guest", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := testServer(t, tt.fetcher)
			rec := do(t, s, tt.path)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Detail)
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{core.ErrorCodeSchema, http.StatusInternalServerError},
		{core.ErrorCodeTypeMismatch, http.StatusInternalServerError},
		{core.ErrorCodeEmptyCatalog, http.StatusInternalServerError},
		{core.ErrorCodeInvalidArgument, http.StatusBadRequest},
		{core.ErrorCodeNotFound, http.StatusNotFound},
		{core.ErrorCodeUpstream, http.StatusBadGateway},
		{core.ErrorCodeUnavailable, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusOf(core.NewDomainError("test", tt.code, "x")), tt.code)
	}
}

func TestRateLimit(t *testing.T) {
	e := testEngine(t)
	cfg := config.Default().Server
	cfg.RateLimitReqs = 1
	cfg.RateLimitWindow = time.Minute
	s := New(e, localFetcher(e), cfg)

	assert.Equal(t, http.StatusOK, do(t, s, "/recommend/guest/ids").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, s, "/recommend/guest/ids").Code)
	// 健康检查不限流
	assert.Equal(t, http.StatusOK, do(t, s, "/health").Code)
}
