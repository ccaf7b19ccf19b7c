// Package conv 提供类型转换、配置取值等泛型工具，用于简化各模块中的重复逻辑。
package conv

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ToFloat64 将 any 转为 float64。
// 支持 float64、float32、int、int64、int32、json.Number；bool 不视为数值。
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ParseNumeric 解析目录中的数值单元格。
//   - nil、空串、"null"、"NaN" 视为缺失：返回 (0, true, nil)
//   - 数值类型与可解析为数字的字符串：返回 (v, false, nil)
//   - 其他（bool、无法解析的字符串、对象）返回错误
func ParseNumeric(v any) (value float64, missing bool, err error) {
	if v == nil {
		return 0, true, nil
	}
	if f, ok := ToFloat64(v); ok {
		return f, false, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, false, fmt.Errorf("not a number: %T", v)
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "nan", "none":
		return 0, true, nil
	}
	f, perr := strconv.ParseFloat(s, 64)
	if perr != nil {
		return 0, false, fmt.Errorf("not a number: %q", s)
	}
	return f, false, nil
}

// maxExactFloatInt 是 float64 能精确表示的最大整数 2^53
const maxExactFloatInt = 1 << 53

// ParseInt64 解析整型标识单元格，不经过 float64 中转，避免大 ID 丢精度或溢出。
//   - 缺失值的判定与 ParseNumeric 相同：返回 (0, true, nil)
//   - 十进制整数字符串 / json.Number 用 strconv.ParseInt 精确解析，超出 int64 返回错误
//   - "101.0"、"1e3" 之类的写法及 float64 值只在是整数且绝对值不超过 2^53 时接受
func ParseInt64(v any) (value int64, missing bool, err error) {
	switch val := v.(type) {
	case nil:
		return 0, true, nil
	case int:
		return int64(val), false, nil
	case int64:
		return val, false, nil
	case int32:
		return int64(val), false, nil
	case float64:
		return exactInt(val)
	case float32:
		return exactInt(float64(val))
	case json.Number:
		return parseIntString(val.String())
	case string:
		return parseIntString(val)
	default:
		return 0, false, fmt.Errorf("not an integer: %T", v)
	}
}

func parseIntString(s string) (int64, bool, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "nan", "none":
		return 0, true, nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i, false, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, false, fmt.Errorf("integer %s out of int64 range", s)
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return 0, false, fmt.Errorf("not an integer: %q", s)
	}
	return exactInt(f)
}

func exactInt(f float64) (int64, bool, error) {
	if math.IsNaN(f) {
		return 0, true, nil
	}
	if f != math.Trunc(f) {
		return 0, false, fmt.Errorf("%v is not an integer", f)
	}
	if math.Abs(f) > maxExactFloatInt {
		return 0, false, fmt.Errorf("%v is out of exact integer range", f)
	}
	return int64(f), false, nil
}

// ToCategory 把类别型单元格规范为字符串；nil 返回 ("", false)。
// 数值按最短十进制表示（category_code 可能被写成数字）。
func ToCategory(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return fmt.Sprintf("%v", val), true
	}
}

// ConvertSlice 将 []T 按 convert 转为 []U，convert 返回 false 的元素被跳过。
func ConvertSlice[T, U any](s []T, convert func(T) (U, bool)) []U {
	if s == nil {
		return nil
	}
	out := make([]U, 0, len(s))
	for _, v := range s {
		if u, ok := convert(v); ok {
			out = append(out, u)
		}
	}
	return out
}

// SliceAnyToInt64 将 []any（YAML/JSON 解析出的 ID 列表）转为 []int64。
// 元素可以是整数或整数字符串，无法精确解析的元素被跳过。
func SliceAnyToInt64(v any) []int64 {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	return ConvertSlice(raw, func(e any) (int64, bool) {
		i, missing, err := ParseInt64(e)
		if err != nil || missing {
			return 0, false
		}
		return i, true
	})
}

// ConfigGet 从 map[string]any（如 YAML/JSON 解析结果）按 key 取 T，取不到或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	t, ok := v.(T)
	if !ok {
		return defaultVal
	}
	return t
}

// ConfigGetInt64 从 config 取 int64。YAML/JSON 常得到 int 或 float64，此处兼容并统一为 int64。
func ConfigGetInt64(m map[string]any, key string, defaultVal int64) int64 {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case int:
		return int64(val)
	case int64:
		return val
	case float64:
		return int64(val)
	case float32:
		return int64(val)
	default:
		return defaultVal
	}
}
