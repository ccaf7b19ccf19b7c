package feature

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
)

// Metadata 是 Builder 拟合出的全部参数，可序列化为 feature_meta.json，
// 也可通过 FromMetadata 还原出只做 Transform 的 Builder。
type Metadata struct {
	// FeatureColumns 特征列名列表（按顺序）
	FeatureColumns []string `json:"feature_columns"`
	// FeatureCount 特征数量
	FeatureCount int `json:"feature_count"`
	// FittedRows 拟合时的目录大小
	FittedRows int `json:"fitted_rows"`
	// CreatedAt 拟合时间
	CreatedAt string `json:"created_at"`

	MinMax    map[string]MinMaxScaler     `json:"min_max"`
	Robust    map[string]RobustScaler     `json:"robust"`
	OneHot    map[string]OneHotEncoder    `json:"one_hot"`
	Frequency map[string]FrequencyEncoder `json:"frequency"`
}

// LoadMetadata 从文件加载特征元数据
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取特征元数据文件失败: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("解析特征元数据失败: %w", err)
	}
	return &meta, nil
}

// WriteFile 把特征元数据写入文件
func (m *Metadata) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化特征元数据失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入特征元数据文件失败: %w", err)
	}
	return nil
}

func newMetadata(rows int) *Metadata {
	return &Metadata{
		FittedRows: rows,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		MinMax:     map[string]MinMaxScaler{},
		Robust:     map[string]RobustScaler{},
		OneHot:     map[string]OneHotEncoder{},
		Frequency:  map[string]FrequencyEncoder{},
	}
}
