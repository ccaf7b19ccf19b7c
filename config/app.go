package config

import (
	"time"

	"github.com/highfive-goorm/highfive-back/core"
)

// App 是服务的完整配置。加载顺序：结构体默认值 → YAML 文件 → 环境变量。
type App struct {
	Server         ServerConfig         `koanf:"server"`
	Catalog        CatalogConfig        `koanf:"catalog"`
	Recommend      RecommendConfig      `koanf:"recommend"`
	Cache          CacheConfig          `koanf:"cache"`
	ProductService ProductServiceConfig `koanf:"product_service"`
	Logging        LoggingConfig        `koanf:"logging"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port" validate:"min=1,max=65535"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`
	// RateLimitReqs 为 0 时不限流
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// CatalogConfig 目录来源配置
type CatalogConfig struct {
	ProductPath string `koanf:"product_path" validate:"required"`
	BrandPath   string `koanf:"brand_path" validate:"required"`
	// RefreshInterval 为 0 时只在启动时加载一次
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"min=0"`
}

// RecommendConfig 推荐参数
type RecommendConfig struct {
	DefaultTopN int `koanf:"default_top_n" validate:"min=1"`
	// MaxTopN 为 0 时不限制
	MaxTopN int `koanf:"max_top_n" validate:"min=0"`
	// PipelineFile 为空时使用内置的默认链路
	PipelineFile string `koanf:"pipeline_file"`
}

// CacheConfig 结果缓存配置
type CacheConfig struct {
	Backend       string        `koanf:"backend" validate:"oneof=none memory redis"`
	TTL           time.Duration `koanf:"ttl" validate:"min=0"`
	RedisAddr     string        `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB       int           `koanf:"redis_db" validate:"min=0"`
	RedisPassword string        `koanf:"redis_password"`
}

// ProductServiceConfig 商品服务（批量查询商品详情）配置
type ProductServiceConfig struct {
	BaseURL string        `koanf:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	// 熔断器参数
	BreakerMaxRequests  uint32        `koanf:"breaker_max_requests" validate:"min=1"`
	BreakerInterval     time.Duration `koanf:"breaker_interval"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio" validate:"gt=0,lte=1"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests" validate:"min=1"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Default 返回默认配置
func Default() *App {
	return &App{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8009,
			RequestTimeout:  10 * time.Second,
			RateLimitReqs:   0,
			RateLimitWindow: time.Minute,
			ShutdownTimeout: 15 * time.Second,
		},
		Catalog: CatalogConfig{
			ProductPath:     "data/product.json",
			BrandPath:       "data/brand.json",
			RefreshInterval: 0,
		},
		Recommend: RecommendConfig{
			DefaultTopN: core.DefaultTopN,
			MaxTopN:     100,
		},
		Cache: CacheConfig{
			Backend: "none",
			TTL:     10 * time.Minute,
		},
		ProductService: ProductServiceConfig{
			BaseURL:             "",
			Timeout:             5 * time.Second,
			BreakerMaxRequests:  3,
			BreakerInterval:     time.Minute,
			BreakerTimeout:      30 * time.Second,
			BreakerFailureRatio: 0.6,
			BreakerMinRequests:  5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Addr 返回监听地址
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
