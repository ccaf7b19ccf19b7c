package engine

import (
	"time"

	"github.com/highfive-goorm/highfive-back/catalog"
	"github.com/highfive-goorm/highfive-back/feature"
	"github.com/highfive-goorm/highfive-back/similarity"
)

// Model 是某个目录版本对应的全部推荐数据：快照、特征矩阵、相似度矩阵。
// 构建后只读，可被任意多个请求并发读取；实现 core.CatalogView。
type Model struct {
	Snapshot   *catalog.Snapshot
	Features   *feature.Matrix
	Sim        *similarity.Matrix
	Metadata   *feature.Metadata

	BuiltAt       time.Time
	BuildDuration time.Duration
}

// BuildModel 对快照执行特征构建与相似度计算。空目录得到一个没有矩阵的 Model，
// 推荐时由种子选择返回 EMPTY_CATALOG。
func BuildModel(snap *catalog.Snapshot) (*Model, error) {
	start := time.Now()
	m := &Model{Snapshot: snap}
	if snap.Len() > 0 {
		builder := feature.NewBuilder()
		features, err := builder.FitTransform(snap.Items)
		if err != nil {
			return nil, err
		}
		sim, err := similarity.Cosine(features)
		if err != nil {
			return nil, err
		}
		m.Features = features
		m.Sim = sim
		m.Metadata = builder.Metadata()
	}
	m.BuiltAt = time.Now()
	m.BuildDuration = m.BuiltAt.Sub(start)
	return m, nil
}

func (m *Model) Len() int {
	return m.Snapshot.Len()
}

func (m *Model) Version() string {
	if m.Snapshot == nil {
		return ""
	}
	return m.Snapshot.Version
}

func (m *Model) ItemID(i int) int64 {
	return m.Snapshot.Items[i].ID
}

func (m *Model) ItemMeta(i int) map[string]any {
	return m.Snapshot.Items[i].Meta()
}

func (m *Model) Similarity(i, j int) float64 {
	return m.Sim.At(i, j)
}
