package core

import "github.com/highfive-goorm/highfive-back/pkg/utils"

// Item 是推荐链路中的统一承载结构：目录位置、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
//
// Index 是该商品在目录快照中的行号，与特征矩阵、相似度矩阵的行号一致，
// 是链路内部唯一的定位手段（矩阵内部不做商品 ID 查找）。
type Item struct {
	ID     int64
	Index  int
	Score  float64
	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(id int64, index int) *Item {
	return &Item{
		ID:     id,
		Index:  index,
		Score:  0,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// MetaString 读取字符串类型的元信息，不存在或类型不符时返回空串。
func (it *Item) MetaString(key string) string {
	if it.Meta == nil {
		return ""
	}
	s, _ := it.Meta[key].(string)
	return s
}
