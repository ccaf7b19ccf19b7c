package catalog

// Join 按 brand_id 左连接商品与品牌，保持商品顺序，输出行数等于商品数。
// 同一品牌 ID 出现多次时取第一条，避免连接后商品行重复。
func Join(products []Product, brands []Brand) []Item {
	byID := make(map[int64]*Brand, len(brands))
	for i := range brands {
		if _, ok := byID[brands[i].ID]; !ok {
			byID[brands[i].ID] = &brands[i]
		}
	}

	items := make([]Item, len(products))
	for i, p := range products {
		items[i] = Item{Product: p}
		if !p.HasBrandID {
			continue
		}
		if b, ok := byID[p.BrandID]; ok {
			items[i].BrandEng = b.BrandEng
			items[i].BrandKor = b.BrandKor
			items[i].BrandLikeCount = b.LikeCount
			items[i].BrandMatched = true
		}
	}
	return items
}
