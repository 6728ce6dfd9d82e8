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

package api

import (
	"net/http"

	v1 "github.com/zintix-labs/tumblelab/server/api/v1"
	"github.com/zintix-labs/tumblelab/server/netsvr"
	"github.com/zintix-labs/tumblelab/server/netsvr/middleware"
	"github.com/zintix-labs/tumblelab/server/svrcfg"
)

// RegisterRoutes sCfg 必須先通過 Valid
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	registerMiddleware(svr, sCfg)
	registerOps(svr, sCfg)
	return registerV1API(svr, sCfg)
}

func registerMiddleware(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(sCfg.Metrics.Middleware)
	svr.Use(middleware.Recover(sCfg.Log))
	svr.Use(middleware.Compression)
}

// 維運：存活檢查與指標
func registerOps(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) {
	svr.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	svr.Handle("/metrics", sCfg.Metrics.Handler())
}

func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	h, err := v1.NewHandler(sCfg)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Post("/resolve", h.Resolve)
		vOne.Post("/replay", h.Replay)
		vOne.Get("/games", h.Games)
		vOne.Get("/outcome/*", h.Outcome)
	})
	return nil
}
