package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highfive-goorm/highfive-back/catalog"
	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/pipeline"
	"github.com/highfive-goorm/highfive-back/rank"
	"github.com/highfive-goorm/highfive-back/recall"
	"github.com/highfive-goorm/highfive-back/rerank"
	"github.com/highfive-goorm/highfive-back/store"
)

func sampleSource() *catalog.StaticSource {
	return &catalog.StaticSource{
		Products: []catalog.Product{
			{ID: 101, Name: "셔츠", BrandID: 1, HasBrandID: true, Gender: "M", CategoryCode: "001", Discount: 10, Rank: 1, LikeCount: 10, ViewCount: 100, Price: 30000, DiscountedPrice: 27000},
			{ID: 102, Name: "바지", BrandID: 2, HasBrandID: true, Gender: "F", CategoryCode: "002", Discount: 30, Rank: 5, LikeCount: 3, ViewCount: 40, Price: 50000, DiscountedPrice: 35000},
			{ID: 103, Name: "니트", BrandID: 1, HasBrandID: true, Gender: "M", CategoryCode: "001", Discount: 0, Rank: 2, LikeCount: 50, ViewCount: 900, Price: 45000, DiscountedPrice: 45000},
			{ID: 104, Name: "치마", BrandID: 3, HasBrandID: true, Gender: "F", CategoryCode: "003", Discount: 50, Rank: 9, LikeCount: 1, ViewCount: 5, Price: 20000, DiscountedPrice: 10000},
			{ID: 105, Name: "자켓", BrandID: 2, HasBrandID: true, Gender: "U", CategoryCode: "004", Discount: 20, Rank: 3, LikeCount: 22, ViewCount: 310, Price: 120000, DiscountedPrice: 96000},
		},
		Brands: []catalog.Brand{
			{ID: 1, BrandEng: "alpha", BrandKor: "알파", LikeCount: 100},
			{ID: 2, BrandEng: "beta", BrandKor: "베타", LikeCount: 20},
			{ID: 3, BrandEng: "gamma", BrandKor: "감마", LikeCount: 5},
		},
	}
}

func defaultPipeline() *pipeline.Pipeline {
	return &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.Similar{},
		&rank.SimilarityNode{},
		&rerank.TopNNode{},
	}}
}

func newLoadedEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e := New(sampleSource(), defaultPipeline(), opts)
	require.NoError(t, e.Load(context.Background()))
	return e
}

func TestRecommendDeterministic(t *testing.T) {
	e := newLoadedEngine(t, Options{})
	ctx := context.Background()

	first, err := e.Recommend(ctx, "user-42", 3)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.Recommend(ctx, "user-42", 3)
		require.NoError(t, err)
		assert.Equal(t, first.ProductIDs, again.ProductIDs)
		assert.Equal(t, first.SeedID, again.SeedID)
	}
	assert.Equal(t, "user-42", first.UserID)
}

func TestRecommendExcludesSeed(t *testing.T) {
	e := newLoadedEngine(t, Options{})
	for _, user := range []string{"guest", "a", "b", "c", "홍길동", "b50b7a33-902f-420b-afa9-8f90b99cddf9"} {
		res, err := e.Recommend(context.Background(), user, 4)
		require.NoError(t, err)
		assert.NotContains(t, res.ProductIDs, res.SeedID, user)

		seen := map[int64]bool{}
		for _, id := range res.ProductIDs {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
	}
}

func TestRecommendLength(t *testing.T) {
	e := newLoadedEngine(t, Options{MaxTopN: 100})
	tests := []struct {
		topN int
		want int
	}{
		{1, 1},
		{3, 3},
		{4, 4},
		{5, 4},
		{100, 4},
	}
	for _, tt := range tests {
		res, err := e.Recommend(context.Background(), "guest", tt.topN)
		require.NoError(t, err)
		assert.Len(t, res.ProductIDs, tt.want, "top_n=%d", tt.topN)
	}
}

func TestRecommendMatchesSimilarityOrder(t *testing.T) {
	e := newLoadedEngine(t, Options{})
	m, err := e.Model()
	require.NoError(t, err)

	res, err := e.Recommend(context.Background(), "guest", 3)
	require.NoError(t, err)

	seed, err := core.SeedIndex("guest", m.Len())
	require.NoError(t, err)
	assert.Equal(t, m.ItemID(seed), res.SeedID)

	want, err := m.Sim.TopK(seed, 3)
	require.NoError(t, err)
	assert.Equal(t, m.Snapshot.IDs(want), res.ProductIDs)
}

func TestRecommendLengthWithoutTopNNode(t *testing.T) {
	tests := []struct {
		name  string
		nodes []pipeline.Node
	}{
		{"no topn node", []pipeline.Node{&recall.Similar{}, &rank.SimilarityNode{}}},
		{"topn node with larger cap", []pipeline.Node{&recall.Similar{}, &rank.SimilarityNode{}, &rerank.TopNNode{N: 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(sampleSource(), &pipeline.Pipeline{Nodes: tt.nodes}, Options{})
			require.NoError(t, e.Load(context.Background()))
			m, err := e.Model()
			require.NoError(t, err)

			res, err := e.Recommend(context.Background(), "x", 2)
			require.NoError(t, err)
			require.Len(t, res.ProductIDs, 2)

			seed, err := core.SeedIndex("x", m.Len())
			require.NoError(t, err)
			want, err := m.Sim.TopK(seed, 2)
			require.NoError(t, err)
			assert.Equal(t, m.Snapshot.IDs(want), res.ProductIDs)

			sim, err := e.Similar(context.Background(), 101, 1)
			require.NoError(t, err)
			assert.Equal(t, []int64{103}, sim.ProductIDs)
		})
	}
}

func TestRecommendInvalidArguments(t *testing.T) {
	e := newLoadedEngine(t, Options{MaxTopN: 10})
	tests := []struct {
		name   string
		userID string
		topN   int
	}{
		{"empty user", "", 3},
		{"whitespace user", "  \t", 3},
		{"zero top_n", "guest", 0},
		{"negative top_n", "guest", -1},
		{"above max", "guest", 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Recommend(context.Background(), tt.userID, tt.topN)
			require.Error(t, err)
			assert.True(t, core.IsInvalidArgument(err), "got %v", err)
		})
	}
}

func TestRecommendEmptyCatalog(t *testing.T) {
	e := New(&catalog.StaticSource{}, defaultPipeline(), Options{})
	require.NoError(t, e.Load(context.Background()))

	_, err := e.Recommend(context.Background(), "guest", 6)
	require.Error(t, err)
	assert.True(t, core.IsEmptyCatalog(err))

	_, err = e.Similar(context.Background(), 1, 6)
	assert.True(t, core.IsEmptyCatalog(err))
}

func TestRecommendNotLoaded(t *testing.T) {
	e := New(sampleSource(), defaultPipeline(), Options{})
	_, err := e.Recommend(context.Background(), "guest", 6)
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
}

func TestSimilar(t *testing.T) {
	e := newLoadedEngine(t, Options{})

	res, err := e.Similar(context.Background(), 101, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(101), res.SeedID)
	assert.Len(t, res.ProductIDs, 2)
	assert.NotContains(t, res.ProductIDs, int64(101))
	// 同品牌、同类目、同性别的商品最相似
	assert.Equal(t, int64(103), res.ProductIDs[0])

	_, err = e.Similar(context.Background(), 999, 2)
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
}

func TestRefreshUnchanged(t *testing.T) {
	e := newLoadedEngine(t, Options{})
	before, err := e.Model()
	require.NoError(t, err)

	changed, err := e.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)

	after, err := e.Model()
	require.NoError(t, err)
	assert.Same(t, before, after)
}

func TestRecommendCached(t *testing.T) {
	cache := store.NewMemoryStore()
	defer cache.Close()

	e := newLoadedEngine(t, Options{Cache: cache})
	ctx := context.Background()

	first, err := e.Recommend(ctx, "guest", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	second, err := e.Recommend(ctx, "guest", 3)
	require.NoError(t, err)
	assert.Equal(t, first.ProductIDs, second.ProductIDs)
	assert.Equal(t, first.SeedID, second.SeedID)
	assert.Equal(t, first.Version, second.Version)
}

func TestItems(t *testing.T) {
	e := newLoadedEngine(t, Options{})
	items, err := e.Items([]int64{105, 999, 101})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(105), items[0].ID)
	assert.Equal(t, "베타", items[0].BrandKor)
	assert.Equal(t, int64(101), items[1].ID)
}

func TestDefaultTopN(t *testing.T) {
	assert.Equal(t, core.DefaultTopN, New(sampleSource(), defaultPipeline(), Options{}).DefaultTopN())
	assert.Equal(t, 3, New(sampleSource(), defaultPipeline(), Options{DefaultTopN: 3}).DefaultTopN())
}
