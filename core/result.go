package core

// Result 是一次推荐的输出：用户 ID + 按相似度降序排列的商品 ID。
// 不包含种子商品本身，且不含重复 ID。
type Result struct {
	UserID     string  `json:"user_id"`
	ProductIDs []int64 `json:"product_id"`

	// SeedID 是种子商品 ID，仅用于观测，不参与序列化
	SeedID int64 `json:"-"`
	// Version 是生成结果时的目录快照版本
	Version string `json:"-"`
}
