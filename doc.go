// Package highfive 是 highfive 商城的相似商品推荐服务。
//
// 设计要点：
//   - 内容相似度：商品属性编码为特征矩阵，两两余弦相似度即推荐依据
//   - 确定性种子：同一用户在同一目录快照下总是得到同一个种子商品与同一份推荐
//   - Pipeline-first：推荐链路由 Node 串联（recall.similar → rank.similarity → rerank.topn），可经 YAML 扩展过滤与打散
//   - 快照不可变：目录按版本构建一次矩阵，请求侧只读
//
// 入口：cmd/recommendd（HTTP 服务）与 cmd/receval（离线 Precision@K / Recall@K 评估）。
package highfive
