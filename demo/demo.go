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

// Package demo 內建遊戲設定（sweet_tumble、wild_cascade）組成的 Lab，給範例、CLI 與測試使用。
package demo

import (
	"io/fs"

	tumblelab "github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/catalog"
	"github.com/zintix-labs/tumblelab/demo/demo_configs"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/server/cache"
	"github.com/zintix-labs/tumblelab/server/logger"
	"github.com/zintix-labs/tumblelab/server/metrics"
	"github.com/zintix-labs/tumblelab/server/svrcfg"
)

func NewCatalog() (*catalog.Catalog, error) {
	return catalog.New(demo_configs.FS)
}

// NewLab 註冊並凍結內建設定；extra 可額外加入 os.DirFS 之類的設定來源
func NewLab(opts []tumblelab.Option, extra ...fs.FS) (*tumblelab.Lab, error) {
	cfgs := append(tumblelab.Configs(demo_configs.FS), extra...)
	lab, err := tumblelab.NewAuto(cfgs, opts...)
	if err != nil {
		return nil, errs.Wrap(err, "new demo lab failed")
	}
	return lab, nil
}

// NewServerConfig 依環境設定組裝 server；回傳的 AsyncHandler 需在結束時 Close
func NewServerConfig(env svrcfg.Env, extra ...fs.FS) (*svrcfg.SvrCfg, *logger.AsyncHandler, error) {
	log, ah := logger.NewAsync(8192, env.LogMode)
	lab, err := NewLab(env.LabOptions(log), extra...)
	if err != nil {
		ah.Close()
		return nil, nil, err
	}
	return &svrcfg.SvrCfg{
		Log:     log,
		Lab:     lab,
		Addr:    env.Addr,
		Timeout: env.Timeout,
		Cache:   cache.NewOutcomes(env.CacheSize, env.CacheTTL),
		Metrics: metrics.New(true),
	}, ah, nil
}
