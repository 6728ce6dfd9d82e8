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

package server

import (
	"context"
	"log/slog"

	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/server/api"
	"github.com/zintix-labs/tumblelab/server/app"
	"github.com/zintix-labs/tumblelab/server/netsvr"
	"github.com/zintix-labs/tumblelab/server/svrcfg"
)

// Build 驗證設定、建立 chi server 並註冊路由，但不啟動。測試與自訂啟動流程使用。
func Build(sCfg *svrcfg.SvrCfg) (*netsvr.ChiAdapter, error) {
	if sCfg == nil {
		return nil, errs.NewFatal("server config is required")
	}
	if err := sCfg.Valid(); err != nil {
		return nil, err
	}
	svr := netsvr.NewChiServer(sCfg.Addr, netsvr.Timeouts{})
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		return nil, err
	}
	return svr, nil
}

// Run 組裝預設 server 並阻塞到收到終止信號或 ctx 結束。
//
// 所有依賴都經由 SvrCfg 注入；.env 與環境變數的讀取由呼叫端（cmd/svr）負責。
func Run(ctx context.Context, sCfg *svrcfg.SvrCfg, extra ...app.Component) error {
	svr, err := Build(sCfg)
	if err != nil {
		return err
	}
	return serve(ctx, sCfg, svr, extra)
}

// RunWithSvr 路由掛到呼叫端提供的 NetSvr（例如自訂 listener、TLS 或既有的 router）
func RunWithSvr(ctx context.Context, sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr, extra ...app.Component) error {
	if sCfg == nil {
		return errs.NewFatal("server config is required")
	}
	if err := sCfg.Valid(); err != nil {
		return err
	}
	if svr == nil {
		return errs.NewFatal("svr is required")
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return errs.NewFatal("chi server is not ready")
	}
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		return err
	}
	return serve(ctx, sCfg, svr, extra)
}

func serve(ctx context.Context, sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr, extra []app.Component) error {
	a := app.NewWith(svr).WithLogger(sCfg.Log)
	for _, c := range extra {
		a.Register(c)
	}
	sCfg.Log.Info("[tumblelab] listening", slog.String("addr", svr.Address()))
	if err := a.RunContext(ctx); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	sCfg.Log.Info("[tumblelab] stopped")
	return nil
}
