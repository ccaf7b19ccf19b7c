package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/highfive-goorm/highfive-back/core"
	"github.com/highfive-goorm/highfive-back/logging"
)

type errorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// statusOf 把领域错误映射为 HTTP 状态码
func statusOf(err error) int {
	switch {
	case core.IsInvalidArgument(err):
		return http.StatusBadRequest
	case core.IsNotFound(err):
		return http.StatusNotFound
	case core.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case core.IsUpstream(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		// SCHEMA / TYPE_MISMATCH / EMPTY_CATALOG 及其它内部错误
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	resp := errorResponse{Detail: err.Error()}
	if de := core.GetDomainError(err); de != nil {
		resp.Code = de.Code
	}

	evt := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		evt = logging.Ctx(r.Context()).Error()
	}
	evt.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("failed to encode JSON response")
	}
}
