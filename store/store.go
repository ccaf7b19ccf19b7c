// Package store 提供 core.Store 的实现：内存（单实例/测试）与 Redis（多实例共享）。
// 接口定义在 core 包。
package store

import (
	"context"
	"fmt"

	"github.com/highfive-goorm/highfive-back/core"
)

// 后端名称
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config 是存储后端配置
type Config struct {
	Backend       string
	RedisAddr     string
	RedisDB       int
	RedisPassword string
}

// Open 按配置创建存储；Backend 为空或 none 时返回 (nil, nil)，调用方应视为不启用缓存。
func Open(ctx context.Context, cfg Config) (core.Store, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		s, err := NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
