// Command recommendd 运行相似商品推荐 HTTP 服务。
//
// 配置来源依次为内置默认值、config.yaml（或 CONFIG_PATH 指定的文件）、环境变量。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/highfive-goorm/highfive-back/catalog"
	"github.com/highfive-goorm/highfive-back/config"
	"github.com/highfive-goorm/highfive-back/config/builders"
	"github.com/highfive-goorm/highfive-back/engine"
	"github.com/highfive-goorm/highfive-back/filter"
	"github.com/highfive-goorm/highfive-back/logging"
	"github.com/highfive-goorm/highfive-back/productsvc"
	"github.com/highfive-goorm/highfive-back/server"
	"github.com/highfive-goorm/highfive-back/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("recommendd exited")
	}
	logging.Info().Msg("recommendd stopped")
}

func run(ctx context.Context, cfg *config.App) error {
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("product_path", cfg.Catalog.ProductPath).
		Str("brand_path", cfg.Catalog.BrandPath).
		Str("cache", cfg.Cache.Backend).
		Bool("product_service", cfg.ProductService.BaseURL != "").
		Msg("configuration loaded")

	cache, err := store.Open(ctx, store.Config{
		Backend:       cfg.Cache.Backend,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisDB:       cfg.Cache.RedisDB,
		RedisPassword: cfg.Cache.RedisPassword,
	})
	if err != nil {
		return err
	}
	filterLog := logging.WithComponent("filter")
	deps := builders.Deps{
		OnFilterError: func(name string, err error) {
			filterLog.Warn().Err(err).Str("filter", name).Msg("filter failed, keeping items")
		},
	}
	if cache != nil {
		defer cache.Close()
		deps.BlacklistStore = filter.NewStoreAdapter(cache)
	}

	p, pcfg, err := config.BuildPipeline(cfg.Recommend.PipelineFile, builders.NewRegistry(deps))
	if err != nil {
		return err
	}
	logging.Info().Str("pipeline", pcfg.Pipeline.Name).Strs("nodes", p.Names()).Msg("pipeline built")

	source := &catalog.FileSource{
		ProductPath: cfg.Catalog.ProductPath,
		BrandPath:   cfg.Catalog.BrandPath,
	}
	eng := engine.New(source, p, engine.Options{
		DefaultTopN: cfg.Recommend.DefaultTopN,
		MaxTopN:     cfg.Recommend.MaxTopN,
		Cache:       cache,
		CacheTTL:    cfg.Cache.TTL,
	})
	if err := eng.Load(ctx); err != nil {
		return err
	}
	go eng.Run(ctx, cfg.Catalog.RefreshInterval)

	var products productsvc.Fetcher
	if cfg.ProductService.BaseURL != "" {
		client, err := productsvc.New(productsvc.Config{
			BaseURL:      cfg.ProductService.BaseURL,
			Timeout:      cfg.ProductService.Timeout,
			MaxRequests:  cfg.ProductService.BreakerMaxRequests,
			Interval:     cfg.ProductService.BreakerInterval,
			OpenTimeout:  cfg.ProductService.BreakerTimeout,
			FailureRatio: cfg.ProductService.BreakerFailureRatio,
			MinRequests:  cfg.ProductService.BreakerMinRequests,
		}, nil)
		if err != nil {
			return err
		}
		products = client
	} else {
		logging.Warn().Msg("product service not configured, serving product details from the local catalog")
		products = productsvc.FetcherFunc(func(_ context.Context, ids []int64) ([]productsvc.Product, error) {
			items, err := eng.Items(ids)
			if err != nil {
				return nil, err
			}
			return productsvc.FromCatalog(items), nil
		})
	}

	return server.New(eng, products, cfg.Server).ListenAndServe(ctx)
}
