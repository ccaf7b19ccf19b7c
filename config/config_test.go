package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/pipeline"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:8009", cfg.Server.Addr())
	assert.Equal(t, 6, cfg.Recommend.DefaultTopN)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  request_timeout: 3s
catalog:
  product_path: /data/product.csv
  brand_path: /data/brand.csv
  refresh_interval: 5m
cache:
  backend: memory
`), 0o644))

	t.Setenv("PRODUCT_BASE_URL", "http://product:8000/product")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "/data/product.csv", cfg.Catalog.ProductPath)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.RefreshInterval)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "http://product:8000/product", cfg.ProductService.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// 未覆盖的字段保留默认值
	assert.Equal(t, 100, cfg.Recommend.MaxTopN)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*App)
	}{
		{"bad port", func(c *App) { c.Server.Port = 0 }},
		{"unknown cache backend", func(c *App) { c.Cache.Backend = "memcached" }},
		{"redis without addr", func(c *App) { c.Cache.Backend = "redis" }},
		{"default above max", func(c *App) { c.Recommend.DefaultTopN = 200 }},
		{"zero default top_n", func(c *App) { c.Recommend.DefaultTopN = 0 }},
		{"bad log level", func(c *App) { c.Logging.Level = "loud" }},
		{"bad product url", func(c *App) { c.ProductService.BaseURL = "not a url" }},
		{"missing product path", func(c *App) { c.Catalog.ProductPath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

type stubNode struct{ name string }

func (n stubNode) Name() string        { return n.name }
func (n stubNode) Kind() pipeline.Kind { return pipeline.KindRank }
func (n stubNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return items, nil
}

func stubRegistry() *Registry {
	reg := NewRegistry()
	for _, name := range []string{SeedRecallType, SimilarityRankType, "rerank.topn", "filter"} {
		reg.Register(name, func(map[string]interface{}) (pipeline.Node, error) {
			return stubNode{name: name}, nil
		})
	}
	return reg
}

func writePipeline(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRegistryTypes(t *testing.T) {
	reg := stubRegistry()
	reg.Register("", nil)
	assert.Equal(t, []string{"filter", "rank.similarity", "recall.similar", "rerank.topn"}, reg.Types())
}

func TestBuildPipelineDefault(t *testing.T) {
	p, cfg, err := BuildPipeline("", stubRegistry())
	require.NoError(t, err)
	assert.Equal(t, "similar-items", cfg.Pipeline.Name)
	assert.Equal(t, []string{"recall.similar", "rank.similarity", "rerank.topn"}, p.Names())
}

func TestBuildPipelineNilRegistry(t *testing.T) {
	_, _, err := BuildPipeline("", nil)
	assert.Error(t, err)
}

func TestBuildPipelineShape(t *testing.T) {
	tests := []struct {
		name    string
		nodes   string
		wantErr string
	}{
		{
			name:  "recall and rank only",
			nodes: "    - type: recall.similar\n    - type: rank.similarity\n",
		},
		{
			name:  "filter between",
			nodes: "    - type: recall.similar\n    - type: filter\n    - type: rank.similarity\n    - type: rerank.topn\n",
		},
		{
			name:    "unknown type",
			nodes:   "    - type: recall.does_not_exist\n",
			wantErr: "unsupported type",
		},
		{
			name:    "does not start with seed recall",
			nodes:   "    - type: rank.similarity\n    - type: recall.similar\n",
			wantErr: "must start with recall.similar",
		},
		{
			name:    "seed recall twice",
			nodes:   "    - type: recall.similar\n    - type: recall.similar\n    - type: rank.similarity\n",
			wantErr: "may only appear first",
		},
		{
			name:    "no similarity rank",
			nodes:   "    - type: recall.similar\n    - type: rerank.topn\n",
			wantErr: "must contain rank.similarity",
		},
		{
			name:    "empty",
			nodes:   "",
			wantErr: "no nodes",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePipeline(t, "pipeline:\n  name: custom\n  nodes:\n"+tt.nodes)
			p, _, err := BuildPipeline(path, stubRegistry())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, p.Nodes)
		})
	}
}
