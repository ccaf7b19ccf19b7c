package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/highfive-goorm/highfive-back/config"
	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/feature"
)

// guestUserID 未登录用户的固定 ID，展示名为 guestAccount
const (
	guestUserID  = "guest"
	guestAccount = "비회원"
)

// RecommendItem 是推荐列表中的一个展示项；Price 为折后价。
type RecommendItem struct {
	ID       int64   `json:"id"`
	ImgURL   string  `json:"img_url"`
	Name     string  `json:"name"`
	BrandKor string  `json:"brand_kor"`
	Discount float64 `json:"discount"`
	Price    float64 `json:"price"`
}

// RecommendResponse 是 GET /recommend/{user_id} 的响应
type RecommendResponse struct {
	UserAccount string          `json:"user_account"`
	Recommends  []RecommendItem `json:"recommends"`
}

// SimilarResponse 是 GET /similar/{product_id} 的响应
type SimilarResponse struct {
	ProductID int64   `json:"product_id"`
	Similar   []int64 `json:"similar"`
}

// CatalogMetaResponse 是 GET /catalog/meta 的响应
type CatalogMetaResponse struct {
	Version       string            `json:"version"`
	Items         int               `json:"items"`
	LoadedAt      time.Time         `json:"loaded_at"`
	BuiltAt       time.Time         `json:"built_at"`
	BuildDuration string            `json:"build_duration"`
	Features      *feature.Metadata `json:"features,omitempty"`
}

type topNQuery struct {
	TopN int `validate:"min=1"`
}

// parseTopN 读取 top_n 查询参数，缺省时使用默认值。
func (s *Server) parseTopN(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("top_n")
	if raw == "" {
		return s.rec.DefaultTopN(), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidArgument,
			fmt.Sprintf("top_n must be an integer, got %q", raw))
	}
	if err := config.Validator().Struct(topNQuery{TopN: n}); err != nil {
		return 0, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidArgument,
			fmt.Sprintf("top_n must be positive, got %d", n))
	}
	return n, nil
}

// requestParams 收集除 top_n 外的查询参数，供链路中的表达式过滤使用。
func requestParams(r *http.Request) map[string]any {
	q := r.URL.Query()
	if len(q) == 0 {
		return nil
	}
	params := make(map[string]any, len(q))
	for k, v := range q {
		if k == "top_n" || len(v) == 0 {
			continue
		}
		params[k] = v[0]
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) recommendResult(r *http.Request) (*core.Result, error) {
	topN, err := s.parseTopN(r)
	if err != nil {
		return nil, err
	}
	return s.rec.RecommendWithParams(r.Context(), chi.URLParam(r, "user_id"), topN, requestParams(r))
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	res, err := s.recommendResult(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	products, err := s.products.Bulk(r.Context(), res.ProductIDs)
	if err != nil {
		if !core.IsUnavailable(err) && !core.IsUpstream(err) {
			err = core.NewDomainError(core.ModuleService, core.ErrorCodeUpstream, fmt.Sprintf("product service: %v", err))
		}
		writeError(w, r, err)
		return
	}

	resp := RecommendResponse{
		UserAccount: userAccount(res.UserID),
		Recommends:  make([]RecommendItem, 0, len(products)),
	}
	for _, p := range products {
		resp.Recommends = append(resp.Recommends, RecommendItem{
			ID:       p.ID,
			ImgURL:   p.ImgURL,
			Name:     p.Name,
			BrandKor: p.BrandKor,
			Discount: p.Discount,
			Price:    p.DiscountedPrice,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) recommendIDs(w http.ResponseWriter, r *http.Request) {
	res, err := s.recommendResult(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) similar(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "product_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, r, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidArgument,
			fmt.Sprintf("product_id must be an integer, got %q", raw)))
		return
	}
	topN, err := s.parseTopN(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.rec.Similar(r.Context(), id, topN)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SimilarResponse{ProductID: id, Similar: res.ProductIDs})
}

func (s *Server) catalogMeta(w http.ResponseWriter, r *http.Request) {
	m, err := s.rec.Model()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CatalogMetaResponse{
		Version:       m.Version(),
		Items:         m.Len(),
		LoadedAt:      m.Snapshot.LoadedAt,
		BuiltAt:       m.BuiltAt,
		BuildDuration: m.BuildDuration.String(),
		Features:      m.Metadata,
	})
}

// userAccount 返回展示用的账号名；账号服务接入前非 guest 用户直接显示 ID。
func userAccount(userID string) string {
	if userID == guestUserID {
		return guestAccount
	}
	return userID
}
