package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），也支持 errors.Is 与哨兵错误比较（按 Code）
//
// 使用场景：
//   - Catalog 错误：SCHEMA, TYPE_MISMATCH
//   - Recommend 错误：EMPTY_CATALOG, INVALID_ARGUMENT, NOT_FOUND
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 商品服务错误：UPSTREAM（调用失败）, UNAVAILABLE（熔断打开）
//
// 所有错误对触发它的单次请求都是终止性的：计算是纯函数，重试不会改变结果。
type DomainError struct {
	Code    string // 错误代码（如 "SCHEMA", "INVALID_ARGUMENT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "catalog", "feature", "recommend"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is 让 errors.Is(err, ErrSchema) 之类的判断按错误代码匹配，忽略具体消息。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
	ErrorCodeUpstream      = "UPSTREAM"       // 下游服务返回错误

	// 推荐链路错误代码
	ErrorCodeSchema          = "SCHEMA"           // 缺少必需列 / 输入结构非法
	ErrorCodeTypeMismatch    = "TYPE_MISMATCH"    // 数值列中出现非数值
	ErrorCodeEmptyCatalog    = "EMPTY_CATALOG"    // 商品目录为空
	ErrorCodeInvalidArgument = "INVALID_ARGUMENT" // top_n 非正数、user_id 非法等
)

// 模块名称常量
const (
	ModuleStore      = "store"      // 存储模块
	ModuleCatalog    = "catalog"    // 目录加载模块
	ModuleFeature    = "feature"    // 特征模块
	ModuleSimilarity = "similarity" // 相似度模块
	ModuleRecommend  = "recommend"  // 推荐模块
	ModuleEval       = "eval"       // 离线评估模块
	ModuleService    = "service"    // 外部服务模块
)

// 哨兵错误，用于 errors.Is 判断（只比较 Code）。
var (
	ErrSchema          = NewDomainError("", ErrorCodeSchema, "schema error")
	ErrTypeMismatch    = NewDomainError("", ErrorCodeTypeMismatch, "type mismatch")
	ErrEmptyCatalog    = NewDomainError("", ErrorCodeEmptyCatalog, "empty catalog")
	ErrInvalidArgument = NewDomainError("", ErrorCodeInvalidArgument, "invalid argument")
	ErrNotFound        = NewDomainError("", ErrorCodeNotFound, "not found")
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsUpstream 检查错误是否为 UPSTREAM
func IsUpstream(err error) bool { return hasCode(err, ErrorCodeUpstream) }

// IsSchema 检查错误是否为 SCHEMA
func IsSchema(err error) bool { return hasCode(err, ErrorCodeSchema) }

// IsTypeMismatch 检查错误是否为 TYPE_MISMATCH
func IsTypeMismatch(err error) bool { return hasCode(err, ErrorCodeTypeMismatch) }

// IsEmptyCatalog 检查错误是否为 EMPTY_CATALOG
func IsEmptyCatalog(err error) bool { return hasCode(err, ErrorCodeEmptyCatalog) }

// IsInvalidArgument 检查错误是否为 INVALID_ARGUMENT
func IsInvalidArgument(err error) bool { return hasCode(err, ErrorCodeInvalidArgument) }
