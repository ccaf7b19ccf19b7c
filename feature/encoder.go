package feature

import (
	"sort"
)

// OneHotEncoder One-Hot 编码（独热编码）
// 将类别特征转换为二进制向量，每个拟合时见过的类别对应一个维度，类别按字典序排列。
// 未知类别与空值编码为全 0。
// 空串与缺失值不会被拟合成独立类别：sklearn OneHotEncoder 会把 NaN / "" 各自当作一个类别，
// 这里不这样做，因此缺失性别或类目的商品在这些列上与任何商品都不重合。
type OneHotEncoder struct {
	Categories []string `json:"categories"`
}

// Fit 收集去重后的非空类别并排序
func (e *OneHotEncoder) Fit(values []string) {
	seen := make(map[string]struct{}, len(values))
	cats := make([]string, 0)
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		cats = append(cats, v)
	}
	sort.Strings(cats)
	e.Categories = cats
}

// Width 返回编码后的维度数
func (e *OneHotEncoder) Width() int {
	return len(e.Categories)
}

// EncodeInto 把 value 写入 dst（长度为 Width），dst 需预先清零。
// Categories 已排序，二分查找即可，Transform 可并发调用。
func (e *OneHotEncoder) EncodeInto(dst []float64, value string) {
	i := sort.SearchStrings(e.Categories, value)
	if i < len(e.Categories) && e.Categories[i] == value {
		dst[i] = 1.0
	}
}

// Names 返回 "<key>=<category>" 形式的列名
func (e *OneHotEncoder) Names(key string) []string {
	names := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		names[i] = key + "=" + c
	}
	return names
}

// FrequencyEncoder 频率编码
// 用类别在拟合数据中出现的比例编码；未见过的类别编码为 0。
// 空字符串是一个普通类别（例如未匹配到品牌）。
type FrequencyEncoder struct {
	Frequencies map[string]float64 `json:"frequencies"`
}

// Fit 统计每个类别的 count / total
func (e *FrequencyEncoder) Fit(values []string) {
	e.Frequencies = make(map[string]float64)
	if len(values) == 0 {
		return
	}
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	total := float64(len(values))
	for k, c := range counts {
		e.Frequencies[k] = float64(c) / total
	}
}

// Encode 编码单个值
func (e *FrequencyEncoder) Encode(value string) float64 {
	if freq, ok := e.Frequencies[value]; ok {
		return freq
	}
	return 0.0
}
