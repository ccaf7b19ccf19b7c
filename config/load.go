package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths 是依次查找的配置文件路径，使用第一个存在的。
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/highfive/recommend.yaml",
}

// ConfigPathEnvVar 可覆盖配置文件路径
const ConfigPathEnvVar = "CONFIG_PATH"

// envMappings 把环境变量映射到配置路径。未列出的变量被忽略。
var envMappings = map[string]string{
	"http_host":               "server.host",
	"http_port":               "server.port",
	"request_timeout":         "server.request_timeout",
	"rate_limit_reqs":         "server.rate_limit_reqs",
	"rate_limit_window":       "server.rate_limit_window",
	"shutdown_timeout":        "server.shutdown_timeout",
	"product_path":            "catalog.product_path",
	"brand_path":              "catalog.brand_path",
	"catalog_refresh":         "catalog.refresh_interval",
	"default_top_n":           "recommend.default_top_n",
	"max_top_n":               "recommend.max_top_n",
	"pipeline_file":           "recommend.pipeline_file",
	"cache_backend":           "cache.backend",
	"cache_ttl":               "cache.ttl",
	"redis_addr":              "cache.redis_addr",
	"redis_db":                "cache.redis_db",
	"redis_password":          "cache.redis_password",
	"product_base_url":        "product_service.base_url",
	"product_service_timeout": "product_service.timeout",
	"log_level":               "logging.level",
	"log_format":              "logging.format",
	"log_caller":              "logging.caller",
}

// Load 按 默认值 → 配置文件 → 环境变量 的顺序加载并校验配置。
func Load() (*App, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom 与 Load 相同，但显式指定配置文件（为空时跳过文件层）。
func LoadFrom(path string) (*App, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &App{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
