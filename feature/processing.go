package feature

import (
	"math"
	"sort"
)

// Scaler 是按列拟合的数值缩放器：Fit 从整列学习参数，Transform 逐值变换。
type Scaler interface {
	Fit(values []float64)
	Transform(value float64) float64
}

// MinMaxScaler Min-Max 归一化
// 公式: x' = (x - min) / (max - min)
// 特点: 拟合数据被缩放到 [0, 1] 区间；常数列（max == min）输出 0
type MinMaxScaler struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Fit 记录列的最小值与最大值
func (s *MinMaxScaler) Fit(values []float64) {
	if len(values) == 0 {
		s.Min, s.Max = 0, 0
		return
	}
	s.Min, s.Max = values[0], values[0]
	for _, v := range values[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
}

// Transform 归一化单个值
func (s *MinMaxScaler) Transform(value float64) float64 {
	rangeVal := s.Max - s.Min
	if rangeVal > 0 {
		return (value - s.Min) / rangeVal
	}
	return 0
}

// RobustScaler Robust 标准化
// 公式: x' = (x - median) / IQR
// 特点: 对异常值鲁棒；IQR 为 0 时除以 1，常数列因此全为 0
type RobustScaler struct {
	Median float64 `json:"median"`
	IQR    float64 `json:"iqr"` // 四分位距 (P75 - P25)
}

// Fit 计算中位数与四分位距
func (s *RobustScaler) Fit(values []float64) {
	stats := ComputeStatistics(values)
	s.Median = stats.Median
	s.IQR = stats.P75 - stats.P25
}

// Transform 标准化单个值
func (s *RobustScaler) Transform(value float64) float64 {
	scale := s.IQR
	if scale == 0 {
		scale = 1
	}
	return (value - s.Median) / scale
}

// Log1p Log 变换
// 公式: x' = log(x + 1)
// 特点: 处理长尾分布，压缩大值；负值截断为 0
func Log1p(value float64) float64 {
	if value < 0 {
		return 0
	}
	return math.Log1p(value)
}

// FeatureStatistics 特征统计信息
type FeatureStatistics struct {
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
	Median float64
	P25    float64
	P75    float64
	P95    float64
	P99    float64
}

// ComputeStatistics 计算特征统计信息
func ComputeStatistics(values []float64) *FeatureStatistics {
	if len(values) == 0 {
		return &FeatureStatistics{}
	}

	// 复制并排序
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	stats := &FeatureStatistics{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	stats.Mean = sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - stats.Mean) * (v - stats.Mean)
	}
	stats.Std = math.Sqrt(variance / float64(len(values)))

	stats.Median = computePercentile(sorted, 0.5)
	stats.P25 = computePercentile(sorted, 0.25)
	stats.P75 = computePercentile(sorted, 0.75)
	stats.P95 = computePercentile(sorted, 0.95)
	stats.P99 = computePercentile(sorted, 0.99)

	return stats
}

// computePercentile 计算分位数（相邻秩之间线性插值）
func computePercentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	if sorted[lower] == sorted[upper] {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
