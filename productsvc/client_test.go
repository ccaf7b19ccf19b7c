package productsvc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highfive-goorm/highfive-back/catalog"
	"github.com/highfive-goorm/highfive-back/core"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Config{
		BaseURL:      url,
		Timeout:      time.Second,
		MaxRequests:  1,
		OpenTimeout:  time.Minute,
		FailureRatio: 0.5,
		MinRequests:  2,
	}, nil)
	require.NoError(t, err)
	return c
}

func TestBulkReordersToRequestOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bulk", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		var req bulkRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, []int64{3, 1, 2}, req.ProductIDs)

		// 商品服务按 ID 升序返回，且缺少 2
		_, _ = w.Write([]byte(`[{"id":1,"name":"a","discounted_price":900},{"id":3,"name":"c","brand_kor":"브랜드"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/")
	products, err := c.Bulk(context.Background(), []int64{3, 1, 2})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(3), products[0].ID)
	assert.Equal(t, "브랜드", products[0].BrandKor)
	assert.Equal(t, int64(1), products[1].ID)
	assert.Equal(t, 900.0, products[1].DiscountedPrice)
}

func TestBulkEmptyIDs(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	products, err := newTestClient(t, srv.URL).Bulk(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestBulkErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{not json`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestClient(t, srv.URL).Bulk(context.Background(), []int64{1})
			require.Error(t, err)
			assert.True(t, core.IsUpstream(err), "got %v", err)
		})
	}
}

func TestBreakerOpens(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := c.Bulk(ctx, []int64{1})
		require.True(t, core.IsUpstream(err))
	}
	assert.Equal(t, gobreaker.StateOpen, c.State())

	_, err := c.Bulk(ctx, []int64{1})
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "  "}, nil)
	require.Error(t, err)
	assert.True(t, core.IsInvalidArgument(err))
}

func TestFetcherFunc(t *testing.T) {
	var f Fetcher = FetcherFunc(func(_ context.Context, ids []int64) ([]Product, error) {
		out := make([]Product, len(ids))
		for i, id := range ids {
			out[i] = Product{ID: id}
		}
		return out, nil
	})
	products, err := f.Bulk(context.Background(), []int64{7, 8})
	require.NoError(t, err)
	assert.Equal(t, int64(8), products[1].ID)
}

func TestFromCatalog(t *testing.T) {
	items := []catalog.Item{{
		Product:  catalog.Product{ID: 5, Name: "셔츠", ImgURL: "x.jpg", Discount: 10, Price: 1000, DiscountedPrice: 900},
		BrandKor: "알파",
	}}
	products := FromCatalog(items)
	require.Len(t, products, 1)
	assert.Equal(t, Product{ID: 5, Name: "셔츠", ImgURL: "x.jpg", BrandKor: "알파", Discount: 10, Price: 1000, DiscountedPrice: 900}, products[0])
}
