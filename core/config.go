package core

// 推荐数量的默认值，配置缺省时使用。
const (
	// DefaultTopN 是在线推荐未指定 top_n 时返回的数量
	DefaultTopN = 6
	// DefaultEvalK 是离线评估每个查询取的近邻数
	DefaultEvalK = 6
)
