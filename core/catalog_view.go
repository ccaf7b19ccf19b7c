package core

// CatalogView 是一次推荐请求看到的只读目录：快照中的商品与两两相似度。
// 行号在快照内稳定，与特征矩阵、相似度矩阵的行号一致。
type CatalogView interface {
	// Len 返回目录商品数量
	Len() int
	// Version 返回目录快照版本
	Version() string
	// ItemID 返回第 i 行的商品 ID
	ItemID(i int) int64
	// ItemMeta 返回第 i 行的商品属性
	ItemMeta(i int) map[string]any
	// Similarity 返回第 i、j 行之间的相似度
	Similarity(i, j int) float64
}
