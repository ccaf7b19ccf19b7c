package core

import (
	"hash/fnv"
	"math/rand/v2"
)

// UserSeed 把用户 ID 映射为 32 位无符号种子：FNV-1a 32 位哈希（天然落在 [0, 2^32)）。
func UserSeed(userID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return h.Sum32()
}

// SeedIndex 为用户确定性地选出种子商品的行号，范围 [0, n)。
//
// 算法（跨版本必须保持一致）：
//  1. seed = UserSeed(userID)
//  2. 以 PCG(seed, 0) 初始化 math/rand/v2 生成器
//  3. 抽取一次 IntN(n)
//
// 同一目录快照下，同一用户永远得到同一个种子商品；种子与用户偏好无关，仅用于可复现。
func SeedIndex(userID string, n int) (int, error) {
	if n <= 0 {
		return 0, NewDomainError(ModuleRecommend, ErrorCodeEmptyCatalog, "recommend: catalog is empty")
	}
	rng := rand.New(rand.NewPCG(uint64(UserSeed(userID)), 0))
	return rng.IntN(n), nil
}
