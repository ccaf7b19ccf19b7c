package feature

import (
	"gonum.org/v1/gonum/mat"
)

// Matrix 是目录的稠密特征矩阵（n 行 × d 列），行 i 对应 Snapshot.Items[i]。
// 构建完成后只读，可被多个请求并发读取。
type Matrix struct {
	data    *mat.Dense
	columns []string
}

// NewMatrix 用行主序数据构建特征矩阵；rows、len(columns) 必须大于 0。
func NewMatrix(rows int, columns []string, data []float64) *Matrix {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Matrix{
		data:    mat.NewDense(rows, len(cols), data),
		columns: cols,
	}
}

// Rows 返回行数（目录商品数）
func (m *Matrix) Rows() int {
	r, _ := m.data.Dims()
	return r
}

// Cols 返回特征维度
func (m *Matrix) Cols() int {
	_, c := m.data.Dims()
	return c
}

// Columns 返回列名（副本）
func (m *Matrix) Columns() []string {
	out := make([]string, len(m.columns))
	copy(out, m.columns)
	return out
}

// ColumnIndex 返回列名对应的列号
func (m *Matrix) ColumnIndex(name string) (int, bool) {
	for i, c := range m.columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// At 返回 (i, j) 处的值
func (m *Matrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

// Row 复制第 i 行
func (m *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.data)
}

// Col 复制第 j 列
func (m *Matrix) Col(j int) []float64 {
	return mat.Col(nil, j, m.data)
}

// Dense 返回只读视图，供相似度计算使用。
func (m *Matrix) Dense() mat.Matrix {
	return m.data
}
