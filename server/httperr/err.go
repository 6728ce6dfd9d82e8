// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httperr

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/zintix-labs/tumblelab/errs"
)

var wire = jsoniter.ConfigCompatibleWithStandardLibrary

// Body 錯誤回應的 JSON 形狀
type Body struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Level string `json:"level,omitempty"`
	Extra string `json:"extra,omitempty"`
}

// StatusCode 將錯誤映射成 HTTP status code。
//
//   - ctx timeout/cancel      → 504/408
//   - AutoplayHardStop        → 422（與上游「免費遊戲已結束」訊號一致）
//   - errs.Warn               → 400（回應格式、請求參數、對帳問題）
//   - errs.Fatal / 其他錯誤    → 500
//
// 放在 server/* 而不是 errs，核心錯誤包不依賴 net/http。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, errs.ErrAutoplayHardStop):
		return http.StatusUnprocessableEntity
	}
	if e, ok := errs.AsErr(err); ok && e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// NewBody 取出 errs.E 的分類與層級；5xx 不外洩內部訊息
func NewBody(err error, status int) Body {
	b := Body{Error: err.Error()}
	if e, ok := errs.AsErr(err); ok {
		b.Kind = e.Kind.String()
		b.Level = errs.ErrLv(e.ErrLv)
		b.Extra = e.Extra
	}
	if status >= 500 && status != http.StatusGatewayTimeout {
		b.Error = http.StatusText(status)
		b.Extra = ""
	}
	return b
}

// Errs 寫回 JSON 錯誤
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = wire.NewEncoder(w).Encode(NewBody(err, status))
}

// Log 只記錄需要關注的錯誤：408/409/429 為 Warn，5xx 為 Error；4xx 由 access log 涵蓋
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	switch status := StatusCode(err); {
	case status == http.StatusRequestTimeout || status == http.StatusConflict || status == http.StatusTooManyRequests:
		log.Warn(msg, slog.Int("status", status), slog.Any("err", err))
	case status >= 500:
		log.Error(msg, slog.Int("status", status), slog.Any("err", err))
	}
}
