// Command receval 对目录做一次离线评估，输出 Precision@K / Recall@K。
//
//	receval -products data/product.json -brands data/brand.json -k 6
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/goccy/go-json"

	"github.com/highfive-goorm/highfive-back/catalog"
	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/engine"
	"github.com/highfive-goorm/highfive-back/eval"
	"github.com/highfive-goorm/highfive-back/logging"
)

func main() {
	var (
		products    = flag.String("products", "data/product.json", "product records (json or csv)")
		brands      = flag.String("brands", "data/brand.json", "brand records (json or csv)")
		k           = flag.Int("k", core.DefaultEvalK, "number of neighbours per query")
		parallelism = flag.Int("parallelism", 0, "concurrent queries, 0 means GOMAXPROCS")
		metaOut     = flag.String("meta-out", "", "write fitted feature metadata to this file")
		logLevel    = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	logging.Init(logging.Config{Level: *logLevel, Format: "console"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *products, *brands, *k, *parallelism, *metaOut); err != nil {
		fmt.Fprintln(os.Stderr, "receval:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, productPath, brandPath string, k, parallelism int, metaOut string) error {
	snap, err := (&catalog.FileSource{ProductPath: productPath, BrandPath: brandPath}).Load(ctx)
	if err != nil {
		return err
	}
	model, err := engine.BuildModel(snap)
	if err != nil {
		return err
	}
	logging.Info().Int("items", model.Len()).Dur("build", model.BuildDuration).Msg("model built")

	if metaOut != "" && model.Metadata != nil {
		if err := model.Metadata.WriteFile(metaOut); err != nil {
			return err
		}
	}

	report, err := (&eval.Evaluator{K: k, Parallelism: parallelism}).Run(ctx, model.Snapshot, model.Sim)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
