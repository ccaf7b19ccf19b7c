package core

import "github.com/highfive-goorm/highfive-back/pkg/utils"

// RecommendContext 承载用户/场景/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string // 不透明字符串，仅用于确定种子商品
	Scene  string

	// TopN 是本次请求期望的结果数量（已校验为正数）
	TopN int

	// SeedIndex 是本次请求选中的种子商品在目录中的行号
	SeedIndex int

	// Catalog 是本次请求使用的目录快照视图，由引擎在进入 Pipeline 前设置
	Catalog CatalogView

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数（例如 CEL 过滤表达式可读取的 gender 偏好等）
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
