// Package similarity 计算目录商品之间的两两余弦相似度。
//
// 复杂度 O(n²·d)，内存 O(n²)；目录规模很大时需要换成近似最近邻，这里不做。
package similarity

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/feature"
)

// Matrix 是 n×n 对称相似度矩阵，构建后只读。
type Matrix struct {
	data *mat.SymDense
}

// Cosine 计算特征矩阵各行之间的余弦相似度。
// 零范数行与任何行（包括自身）的相似度为 0；其余行的对角线恰为 1。
func Cosine(m *feature.Matrix) (*Matrix, error) {
	if m == nil || m.Rows() == 0 {
		return nil, core.NewDomainError(core.ModuleSimilarity, core.ErrorCodeEmptyCatalog, "similarity: empty feature matrix")
	}
	n, d := m.Rows(), m.Cols()

	unit := mat.NewDense(n, d, nil)
	zero := make([]bool, n)
	for i := 0; i < n; i++ {
		row := m.Row(i)
		norm := floats.Norm(row, 2)
		if norm == 0 || math.IsNaN(norm) {
			zero[i] = true
			continue
		}
		floats.Scale(1/norm, row)
		unit.SetRow(i, row)
	}

	sym := mat.NewSymDense(n, nil)
	sym.SymOuterK(1, unit)

	for i := 0; i < n; i++ {
		if zero[i] {
			sym.SetSym(i, i, 0)
			continue
		}
		sym.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			if v := sym.At(i, j); v > 1 || v < -1 {
				sym.SetSym(i, j, math.Max(-1, math.Min(1, v)))
			}
		}
	}
	return &Matrix{data: sym}, nil
}

// Size 返回矩阵边长
func (s *Matrix) Size() int {
	return s.data.SymmetricDim()
}

// At 返回第 i、j 个商品的相似度
func (s *Matrix) At(i, j int) float64 {
	return s.data.At(i, j)
}

// Row 复制第 i 行
func (s *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, s.data)
}

// Symmetric 返回只读视图
func (s *Matrix) Symmetric() mat.Symmetric {
	return s.data
}

// TopK 返回与 seed 最相似的 k 个下标：排除 seed 自身，按相似度降序，
// 相似度相同时下标小的在前；k 大于 n-1 时返回全部 n-1 个。
func (s *Matrix) TopK(seed, k int) ([]int, error) {
	n := s.Size()
	if seed < 0 || seed >= n {
		return nil, core.NewDomainError(core.ModuleSimilarity, core.ErrorCodeInvalidArgument,
			fmt.Sprintf("similarity: seed index %d out of range [0, %d)", seed, n))
	}
	if k <= 0 {
		return nil, core.NewDomainError(core.ModuleSimilarity, core.ErrorCodeInvalidArgument,
			fmt.Sprintf("similarity: k must be positive, got %d", k))
	}

	row := s.Row(seed)
	idx := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != seed {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return row[idx[a]] > row[idx[b]]
	})
	if k < len(idx) {
		idx = idx[:k]
	}
	return idx, nil
}
