package feature

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highfive-goorm/highfive-back/catalog"
	"github.com/highfive-goorm/highfive-back/core"
)

func item(id int64, gender, category, brand string, discount, price float64) catalog.Item {
	return catalog.Item{
		Product: catalog.Product{
			ID:              id,
			Gender:          gender,
			CategoryCode:    category,
			Discount:        discount,
			Rank:            float64(id),
			LikeCount:       float64(id * 10),
			ViewCount:       float64(id * 100),
			Price:           price,
			DiscountedPrice: price * (1 - discount/100),
		},
		BrandEng:       brand,
		BrandLikeCount: 50,
		BrandMatched:   brand != "",
	}
}

func sampleItems() []catalog.Item {
	return []catalog.Item{
		item(1, "M", "002", "nike", 10, 20000),
		item(2, "F", "001", "adidas", 0, 35000),
		item(3, "U", "001", "nike", 30, 12000),
		item(4, "F", "003", "", 50, 80000),
	}
}

func TestBuilderColumns(t *testing.T) {
	b := NewBuilder()
	m, err := b.FitTransform(sampleItems())
	require.NoError(t, err)

	want := []string{
		"discount", "rank",
		"like_count", "view_count", "brand_like_count",
		"discounted_price", "price",
		"gender=F", "gender=M", "gender=U",
		"category_code=001", "category_code=002", "category_code=003",
		"brand_eng_freq",
	}
	assert.Equal(t, want, m.Columns())
	assert.Equal(t, 4, m.Rows())
	assert.Equal(t, len(want), m.Cols())
	assert.Equal(t, want, b.Metadata().FeatureColumns)
}

func TestMinMaxRange(t *testing.T) {
	m, err := NewBuilder().FitTransform(sampleItems())
	require.NoError(t, err)

	for _, name := range []string{"discount", "rank", "discounted_price", "price"} {
		j, ok := m.ColumnIndex(name)
		require.True(t, ok, name)
		col := m.Col(j)
		minV, maxV := col[0], col[0]
		for _, v := range col {
			assert.GreaterOrEqual(t, v, 0.0, name)
			assert.LessOrEqual(t, v, 1.0, name)
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
		assert.Equal(t, 0.0, minV, name)
		assert.InDelta(t, 1.0, maxV, 1e-12, name)
	}
}

func TestConstantColumns(t *testing.T) {
	items := sampleItems()
	for i := range items {
		items[i].Discount = 20
	}
	m, err := NewBuilder().FitTransform(items)
	require.NoError(t, err)

	for _, name := range []string{"discount", "brand_like_count"} {
		j, _ := m.ColumnIndex(name)
		for _, v := range m.Col(j) {
			assert.Equal(t, 0.0, v, name)
		}
	}
}

func TestOneHot(t *testing.T) {
	items := sampleItems()
	items[0].Gender = ""
	m, err := NewBuilder().FitTransform(items)
	require.NoError(t, err)

	// 空值不构成类别，编码为全 0
	assert.Equal(t, []string{"F", "U"}, onehotCats(m, "gender="))

	row := rowMap(m, 0)
	assert.Equal(t, 0.0, row["gender=F"])
	assert.Equal(t, 0.0, row["gender=U"])

	row = rowMap(m, 1)
	assert.Equal(t, 1.0, row["gender=F"])
	assert.Equal(t, 1.0, row["category_code=001"])
	assert.Equal(t, 0.0, row["category_code=002"])
}

func TestFrequency(t *testing.T) {
	b := NewBuilder()
	m, err := b.FitTransform(sampleItems())
	require.NoError(t, err)

	j, _ := m.ColumnIndex(FrequencyColumn)
	col := m.Col(j)
	assert.InDelta(t, 0.5, col[0], 1e-12)  // nike
	assert.InDelta(t, 0.25, col[1], 1e-12) // adidas
	assert.InDelta(t, 0.25, col[3], 1e-12) // 未匹配品牌

	sum := 0.0
	for _, f := range b.Metadata().Frequency["brand_eng"].Frequencies {
		sum += f
	}
	assert.InDelta(t, 1.0, sum, 1e-12)

	// 拟合后出现的新品牌编码为 0
	unseen := []catalog.Item{item(9, "X", "999", "puma", 5, 1000)}
	out, err := b.Transform(unseen)
	require.NoError(t, err)
	row := rowMap(out, 0)
	assert.Equal(t, 0.0, row[FrequencyColumn])
	for _, c := range b.Columns() {
		if len(c) > 7 && c[:7] == "gender=" {
			assert.Equal(t, 0.0, row[c])
		}
	}
}

func TestRobustScaler(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		median float64
		iqr    float64
	}{
		{"odd", []float64{1, 2, 3, 4, 5}, 3, 2},
		{"even", []float64{1, 2, 3, 4}, 2.5, 1.5},
		{"constant", []float64{7, 7, 7}, 7, 0},
		{"single", []float64{3}, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &RobustScaler{}
			s.Fit(tt.values)
			assert.InDelta(t, tt.median, s.Median, 1e-12)
			assert.InDelta(t, tt.iqr, s.IQR, 1e-12)
			if tt.iqr == 0 {
				assert.Equal(t, 1.0, s.Transform(tt.median+1))
			}
		})
	}
}

func TestLog1p(t *testing.T) {
	assert.Equal(t, 0.0, Log1p(-5))
	assert.Equal(t, 0.0, Log1p(0))
	assert.InDelta(t, math.Log(2), Log1p(1), 1e-12)
}

func TestBuilderErrors(t *testing.T) {
	b := NewBuilder()
	_, err := b.Transform(sampleItems())
	assert.Error(t, err)

	_, err = b.FitTransform(nil)
	assert.True(t, core.IsEmptyCatalog(err))
}

func TestMetadataRoundTrip(t *testing.T) {
	items := sampleItems()
	b := NewBuilder()
	want, err := b.FitTransform(items)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "feature_meta.json")
	require.NoError(t, b.Metadata().WriteFile(path))

	meta, err := LoadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, len(items), meta.FittedRows)

	restored, err := FromMetadata(meta)
	require.NoError(t, err)
	got, err := restored.Transform(items)
	require.NoError(t, err)

	assert.Equal(t, want.Columns(), got.Columns())
	for i := 0; i < want.Rows(); i++ {
		assert.InDeltaSlice(t, want.Row(i), got.Row(i), 1e-12)
	}

	delete(meta.Robust, "like_count")
	_, err = FromMetadata(meta)
	assert.True(t, core.IsSchema(err))
}

func rowMap(m *Matrix, i int) map[string]float64 {
	out := make(map[string]float64, m.Cols())
	for j, c := range m.Columns() {
		out[c] = m.At(i, j)
	}
	return out
}

func onehotCats(m *Matrix, prefix string) []string {
	var out []string
	for _, c := range m.Columns() {
		if len(c) > len(prefix) && c[:len(prefix)] == prefix {
			out = append(out, c[len(prefix):])
		}
	}
	return out
}
