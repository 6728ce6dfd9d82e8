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

package v1

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	tumblelab "github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/server/cache"
	"github.com/zintix-labs/tumblelab/server/httperr"
	"github.com/zintix-labs/tumblelab/server/metrics"
	"github.com/zintix-labs/tumblelab/server/svrcfg"
	"github.com/zintix-labs/tumblelab/spec"
)

var wire = jsoniter.ConfigCompatibleWithStandardLibrary

// Handler v1 API。本身不持有可變的解析狀態，每個請求建立自己的 Session。
type Handler struct {
	lab     *tumblelab.Lab
	cache   *cache.Outcomes
	met     *metrics.Metrics
	log     *slog.Logger
	timeout time.Duration
}

// NewHandler sCfg 必須先通過 Valid
func NewHandler(sCfg *svrcfg.SvrCfg) (*Handler, error) {
	if sCfg == nil || sCfg.Lab == nil {
		return nil, errs.NewFatal("v1 handler requires a lab")
	}
	return &Handler{
		lab:     sCfg.Lab,
		cache:   sCfg.Cache,
		met:     sCfg.Metrics,
		log:     sCfg.Log.With(slog.String("api", "v1")),
		timeout: sCfg.Timeout,
	}, nil
}

// session 以名稱或 gid 找遊戲；兩者都給時必須指向同一款
func (h *Handler) session(name string, gid spec.GID) (*tumblelab.Session, string, error) {
	if name != "" {
		e, ok := h.lab.EntryByName(name)
		if !ok {
			return nil, "", errNotFound
		}
		if gid != 0 && e.GID != gid {
			return nil, "", errs.Warnf("game %q has gid %d, not %d", name, e.GID, gid)
		}
		gid = e.GID
	}
	e, ok := h.lab.EntryByID(gid)
	if !ok {
		return nil, "", errNotFound
	}
	s, err := h.lab.NewSession(gid)
	if err != nil {
		return nil, "", err
	}
	return s, e.Name, nil
}

func (h *Handler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

var errNotFound = errs.NewWarn("not found")

// fail 統一寫錯誤；未知遊戲與快取未命中回 404
func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if err == errNotFound {
		writeJSON(w, http.StatusNotFound, httperr.Body{Error: msg + ": not found"})
		return
	}
	httperr.Log(h.log, msg, err)
	httperr.Errs(w, err)
}

// writeJSON 先編碼到記憶體，確保不會寫到一半才失敗
func writeJSON(w http.ResponseWriter, status int, v any) {
	var b bytes.Buffer
	if err := wire.NewEncoder(&b).Encode(v); err != nil {
		httperr.Errs(w, errs.Wrap(err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b.Bytes())
}
