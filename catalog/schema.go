package catalog

import (
	"fmt"
	"math"

	"github.com/highfive-goorm/highfive-back/pkg/conv"
)

// 商品与品牌记录集的必需列。name / img_url / brand_kor 只用于展示，缺失不报错。
var (
	ProductRequiredColumns = []string{
		"id", "brand_id", "gender", "category_code",
		"discount", "rank", "like_count", "view_count",
		"price", "discounted_price",
	}
	BrandRequiredColumns = []string{"id", "brand_eng", "like_count"}
)

// checkColumns 返回第一个缺失的必需列对应的 SchemaError。
// 没有任何记录时不检查（空目录由推荐阶段报告）。
func checkColumns(kind string, recs *Records, required []string) error {
	if len(recs.Rows) == 0 && len(recs.Columns) == 0 {
		return nil
	}
	for _, col := range required {
		if !recs.Has(col) {
			return schemaError(fmt.Sprintf("catalog: %s records missing required column %q", kind, col))
		}
	}
	return nil
}

// rowReader 读取单条记录的各列，遇到类型错误时带上列名与行号。
type rowReader struct {
	kind string
	row  int
	rec  map[string]any
}

func (r rowReader) number(col string) (float64, error) {
	v, _, err := conv.ParseNumeric(r.rec[col])
	if err != nil {
		return 0, typeMismatch(fmt.Sprintf("catalog: %s column %q row %d: %v", r.kind, col, r.row, err))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, nil
	}
	return v, nil
}

// id 读取整型标识；缺失时 ok 为 false。
func (r rowReader) id(col string) (id int64, ok bool, err error) {
	v, missing, err := conv.ParseInt64(r.rec[col])
	if err != nil {
		return 0, false, typeMismatch(fmt.Sprintf("catalog: %s column %q row %d: %v", r.kind, col, r.row, err))
	}
	if missing {
		return 0, false, nil
	}
	return v, true, nil
}

func (r rowReader) text(col string) string {
	s, _ := conv.ToCategory(r.rec[col])
	return s
}

// DecodeProducts 把原始记录集转换为 Product 列表。
func DecodeProducts(recs *Records) ([]Product, error) {
	if err := checkColumns("product", recs, ProductRequiredColumns); err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(recs.Rows))
	seen := make(map[int64]int, len(recs.Rows))
	for i, rec := range recs.Rows {
		r := rowReader{kind: "product", row: i, rec: rec}
		id, ok, err := r.id("id")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, schemaError(fmt.Sprintf("catalog: product row %d has no id", i))
		}
		if prev, dup := seen[id]; dup {
			return nil, schemaError(fmt.Sprintf("catalog: duplicate product id %d at rows %d and %d", id, prev, i))
		}
		seen[id] = i

		p := Product{
			ID:           id,
			Name:         r.text("name"),
			ImgURL:       r.text("img_url"),
			Gender:       r.text("gender"),
			CategoryCode: r.text("category_code"),
		}
		if p.BrandID, p.HasBrandID, err = r.id("brand_id"); err != nil {
			return nil, err
		}
		for _, f := range []struct {
			col string
			dst *float64
		}{
			{"discount", &p.Discount},
			{"rank", &p.Rank},
			{"like_count", &p.LikeCount},
			{"view_count", &p.ViewCount},
			{"price", &p.Price},
			{"discounted_price", &p.DiscountedPrice},
		} {
			if *f.dst, err = r.number(f.col); err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// DecodeBrands 把原始记录集转换为 Brand 列表；没有 id 的品牌行无法参与连接，直接跳过。
func DecodeBrands(recs *Records) ([]Brand, error) {
	if err := checkColumns("brand", recs, BrandRequiredColumns); err != nil {
		return nil, err
	}
	out := make([]Brand, 0, len(recs.Rows))
	for i, rec := range recs.Rows {
		r := rowReader{kind: "brand", row: i, rec: rec}
		id, ok, err := r.id("id")
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		likes, err := r.number("like_count")
		if err != nil {
			return nil, err
		}
		out = append(out, Brand{
			ID:        id,
			BrandEng:  r.text("brand_eng"),
			BrandKor:  r.text("brand_kor"),
			LikeCount: likes,
		})
	}
	return out, nil
}
