// Package server 用 chi 暴露推荐服务的 HTTP 接口。
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/highfive-goorm/highfive-back/config"
	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/engine"
	"github.com/highfive-goorm/highfive-back/logging"
	"github.com/highfive-goorm/highfive-back/productsvc"
)

// Recommender 是 HTTP 层依赖的推荐能力，由 *engine.Engine 实现。
type Recommender interface {
	RecommendWithParams(ctx context.Context, userID string, topN int, params map[string]any) (*core.Result, error)
	Similar(ctx context.Context, productID int64, topN int) (*core.Result, error)
	Model() (*engine.Model, error)
	DefaultTopN() int
}

// Server 持有路由与依赖
type Server struct {
	rec      Recommender
	products productsvc.Fetcher
	cfg      config.ServerConfig
	logger   zerolog.Logger
	handler  http.Handler
}

// New 创建 HTTP 服务
func New(rec Recommender, products productsvc.Fetcher, cfg config.ServerConfig) *Server {
	s := &Server{
		rec:      rec,
		products: products,
		cfg:      cfg,
		logger:   logging.WithComponent("server"),
	}
	s.handler = s.routes()
	return s
}

// Handler 返回完整的路由
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(s.cfg.RateLimitReqs, s.cfg.RateLimitWindow))
		if s.cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))
		}

		r.Get("/recommend/{user_id}", s.recommend)
		r.Get("/recommend/{user_id}/ids", s.recommendIDs)
		r.Get("/similar/{product_id}", s.similar)
		r.Get("/catalog/meta", s.catalogMeta)
	})
	return r
}

// ListenAndServe 监听 cfg.Addr()，ctx 结束后在 ShutdownTimeout 内优雅关闭。
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Msg("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
