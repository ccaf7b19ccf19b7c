// Package catalog 负责目录快照的加载边界：读取商品/品牌记录集，校验结构与类型，
// 按品牌 ID 左连接，并计算快照版本。
//
// 核心推荐逻辑只依赖这里产出的强类型 Item，不依赖任何 Web 框架或 ORM 类型。
package catalog

import "time"

// Product 是一条原始商品记录。数值列缺失（null）时按 0 处理。
type Product struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	ImgURL          string  `json:"img_url"`
	BrandID         int64   `json:"brand_id"`
	HasBrandID      bool    `json:"-"`
	Gender          string  `json:"gender"`
	CategoryCode    string  `json:"category_code"`
	Discount        float64 `json:"discount"`
	Rank            float64 `json:"rank"`
	LikeCount       float64 `json:"like_count"`
	ViewCount       float64 `json:"view_count"`
	Price           float64 `json:"price"`
	DiscountedPrice float64 `json:"discounted_price"`
}

// Brand 是一条品牌记录，BrandEng 是连接后参与频率编码的高基数字段。
type Brand struct {
	ID        int64   `json:"id"`
	BrandEng  string  `json:"brand_eng"`
	BrandKor  string  `json:"brand_kor"`
	LikeCount float64 `json:"like_count"`
}

// Item 是连接后的目录商品（CatalogItem），推荐的基本单位。
// 品牌未匹配时 BrandEng 为空、BrandLikeCount 为 0、BrandMatched 为 false。
type Item struct {
	Product

	BrandEng       string  `json:"brand_eng"`
	BrandKor       string  `json:"brand_kor"`
	BrandLikeCount float64 `json:"like_count_brand"`
	BrandMatched   bool    `json:"-"`
}

// Meta 把商品属性展开为 map，供 Pipeline 中的 Label / CEL 表达式读取。
func (it *Item) Meta() map[string]any {
	return map[string]any{
		"name":             it.Name,
		"brand_id":         it.BrandID,
		"brand_eng":        it.BrandEng,
		"brand_kor":        it.BrandKor,
		"gender":           it.Gender,
		"category_code":    it.CategoryCode,
		"discount":         it.Discount,
		"rank":             it.Rank,
		"like_count":       it.LikeCount,
		"view_count":       it.ViewCount,
		"price":            it.Price,
		"discounted_price": it.DiscountedPrice,
		"like_count_brand": it.BrandLikeCount,
	}
}

// Snapshot 是某一时刻完整的目录：Items 的顺序即特征矩阵的行顺序。
// 构建完成后只读。
type Snapshot struct {
	Items    []Item
	Version  string
	LoadedAt time.Time

	index map[int64]int
}

// NewSnapshot 基于已连接的商品列表构建快照。
func NewSnapshot(items []Item, version string) *Snapshot {
	idx := make(map[int64]int, len(items))
	for i := range items {
		idx[items[i].ID] = i
	}
	return &Snapshot{
		Items:    items,
		Version:  version,
		LoadedAt: time.Now(),
		index:    idx,
	}
}

// Len 返回目录商品数量
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}

// IndexOf 返回商品 ID 对应的行号
func (s *Snapshot) IndexOf(id int64) (int, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.index[id]
	return i, ok
}

// IDs 按行号把下标序列映射回商品 ID
func (s *Snapshot) IDs(indices []int) []int64 {
	out := make([]int64, len(indices))
	for k, i := range indices {
		out[k] = s.Items[i].ID
	}
	return out
}
