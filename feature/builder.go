// Package feature 把目录商品编码为稠密特征矩阵。
//
// 列分组及顺序固定：
//  1. 有界比例列 discount, rank：Min-Max
//  2. 长尾计数列 like_count, view_count, brand_like_count：log1p 后 Robust
//  3. 价格列 discounted_price, price：log1p 后 Min-Max
//  4. 低基数类别 gender, category_code：One-Hot（类别按字典序）
//  5. 高基数类别 brand_eng：频率编码
package feature

import (
	"fmt"

	"github.com/highfive-goorm/highfive-back/catalog"
	"github.com/highfive-goorm/highfive-back/core"
)

type numericStage struct {
	name   string
	value  func(*catalog.Item) float64
	log    bool
	scaler Scaler
}

func (s *numericStage) raw(it *catalog.Item) float64 {
	v := s.value(it)
	if s.log {
		return Log1p(v)
	}
	return v
}

type categoricalStage struct {
	name    string
	value   func(*catalog.Item) string
	encoder *OneHotEncoder
}

// Builder 特征构建器。Fit 从目录学习缩放/编码参数，Transform 按学到的参数编码。
// Fit 不可与其它调用并发；拟合完成后 Transform 可并发调用。
type Builder struct {
	numeric     []*numericStage
	categorical []*categoricalStage
	frequency   *FrequencyEncoder

	columns []string
	rows    int
	fitted  bool
	meta    *Metadata
}

// NewBuilder 创建未拟合的特征构建器
func NewBuilder() *Builder {
	return &Builder{
		numeric: []*numericStage{
			{name: "discount", value: func(it *catalog.Item) float64 { return it.Discount }, scaler: &MinMaxScaler{}},
			{name: "rank", value: func(it *catalog.Item) float64 { return it.Rank }, scaler: &MinMaxScaler{}},
			{name: "like_count", value: func(it *catalog.Item) float64 { return it.LikeCount }, log: true, scaler: &RobustScaler{}},
			{name: "view_count", value: func(it *catalog.Item) float64 { return it.ViewCount }, log: true, scaler: &RobustScaler{}},
			{name: "brand_like_count", value: func(it *catalog.Item) float64 { return it.BrandLikeCount }, log: true, scaler: &RobustScaler{}},
			{name: "discounted_price", value: func(it *catalog.Item) float64 { return it.DiscountedPrice }, log: true, scaler: &MinMaxScaler{}},
			{name: "price", value: func(it *catalog.Item) float64 { return it.Price }, log: true, scaler: &MinMaxScaler{}},
		},
		categorical: []*categoricalStage{
			{name: "gender", value: func(it *catalog.Item) string { return it.Gender }, encoder: &OneHotEncoder{}},
			{name: "category_code", value: func(it *catalog.Item) string { return it.CategoryCode }, encoder: &OneHotEncoder{}},
		},
		frequency: &FrequencyEncoder{},
	}
}

// FrequencyColumn 是 brand_eng 频率编码后的列名
const FrequencyColumn = "brand_eng_freq"

// Fit 学习参数。空目录返回 EMPTY_CATALOG。
func (b *Builder) Fit(items []catalog.Item) error {
	if len(items) == 0 {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeEmptyCatalog, "feature: cannot fit an empty catalog")
	}

	col := make([]float64, len(items))
	for _, st := range b.numeric {
		for i := range items {
			col[i] = st.raw(&items[i])
		}
		st.scaler.Fit(col)
	}

	cats := make([]string, len(items))
	for _, st := range b.categorical {
		for i := range items {
			cats[i] = st.value(&items[i])
		}
		st.encoder.Fit(cats)
	}

	for i := range items {
		cats[i] = items[i].BrandEng
	}
	b.frequency.Fit(cats)

	b.rows = len(items)
	b.fitted = true
	b.columns = b.buildColumns()
	b.meta = b.buildMetadata()
	return nil
}

// Transform 按拟合参数编码 items，行顺序与 items 一致。
func (b *Builder) Transform(items []catalog.Item) (*Matrix, error) {
	if !b.fitted {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInternalError, "feature: builder is not fitted")
	}
	if len(items) == 0 {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeEmptyCatalog, "feature: cannot transform an empty catalog")
	}

	d := len(b.columns)
	data := make([]float64, len(items)*d)
	for i := range items {
		it := &items[i]
		row := data[i*d : (i+1)*d]
		j := 0
		for _, st := range b.numeric {
			row[j] = st.scaler.Transform(st.raw(it))
			j++
		}
		for _, st := range b.categorical {
			w := st.encoder.Width()
			st.encoder.EncodeInto(row[j:j+w], st.value(it))
			j += w
		}
		row[j] = b.frequency.Encode(it.BrandEng)
	}
	return NewMatrix(len(items), b.columns, data), nil
}

// FitTransform 拟合并编码同一批 items（请求路径使用）。
func (b *Builder) FitTransform(items []catalog.Item) (*Matrix, error) {
	if err := b.Fit(items); err != nil {
		return nil, err
	}
	return b.Transform(items)
}

// Columns 返回拟合后的列名顺序
func (b *Builder) Columns() []string {
	out := make([]string, len(b.columns))
	copy(out, b.columns)
	return out
}

// Metadata 返回拟合参数；未拟合时为 nil。
func (b *Builder) Metadata() *Metadata {
	return b.meta
}

func (b *Builder) buildColumns() []string {
	cols := make([]string, 0, len(b.numeric)+1)
	for _, st := range b.numeric {
		cols = append(cols, st.name)
	}
	for _, st := range b.categorical {
		cols = append(cols, st.encoder.Names(st.name)...)
	}
	return append(cols, FrequencyColumn)
}

func (b *Builder) buildMetadata() *Metadata {
	meta := newMetadata(b.rows)
	meta.FeatureColumns = b.Columns()
	meta.FeatureCount = len(b.columns)
	for _, st := range b.numeric {
		switch s := st.scaler.(type) {
		case *MinMaxScaler:
			meta.MinMax[st.name] = *s
		case *RobustScaler:
			meta.Robust[st.name] = *s
		}
	}
	for _, st := range b.categorical {
		meta.OneHot[st.name] = *st.encoder
	}
	meta.Frequency["brand_eng"] = *b.frequency
	return meta
}

// FromMetadata 用已保存的参数还原一个已拟合的 Builder，只用于 Transform。
func FromMetadata(meta *Metadata) (*Builder, error) {
	if meta == nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeSchema, "feature: nil metadata")
	}
	b := NewBuilder()
	for _, st := range b.numeric {
		switch s := st.scaler.(type) {
		case *MinMaxScaler:
			p, ok := meta.MinMax[st.name]
			if !ok {
				return nil, missingParam(st.name)
			}
			*s = p
		case *RobustScaler:
			p, ok := meta.Robust[st.name]
			if !ok {
				return nil, missingParam(st.name)
			}
			*s = p
		}
	}
	for _, st := range b.categorical {
		p, ok := meta.OneHot[st.name]
		if !ok {
			return nil, missingParam(st.name)
		}
		*st.encoder = p
	}
	freq, ok := meta.Frequency["brand_eng"]
	if !ok {
		return nil, missingParam("brand_eng")
	}
	*b.frequency = freq

	b.rows = meta.FittedRows
	b.fitted = true
	b.columns = b.buildColumns()
	b.meta = meta
	return b, nil
}

func missingParam(col string) error {
	return core.NewDomainError(core.ModuleFeature, core.ErrorCodeSchema,
		fmt.Sprintf("feature: metadata has no parameters for column %q", col))
}
