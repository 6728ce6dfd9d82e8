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

package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/zintix-labs/tumblelab/demo"
	"github.com/zintix-labs/tumblelab/server"
	"github.com/zintix-labs/tumblelab/server/app"
	"github.com/zintix-labs/tumblelab/server/logger"
	"github.com/zintix-labs/tumblelab/server/svrcfg"
)

// 內建 demo 設定的解析服務。設定順序：.env → 環境變數 → flag。
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type flags struct {
	envFile    string
	addr       string
	logMode    string
	gridPolicy string
	cacheSize  int
	cacheTTL   time.Duration
	timeout    time.Duration
	configDir  string
}

func run() error {
	f := new(flags)
	flag.StringVar(&f.envFile, "env", "", "env file (default: .env if present)")
	flag.StringVar(&f.addr, "addr", "", "listen address, overrides "+svrcfg.EnvAddr)
	flag.StringVar(&f.logMode, "log-mode", "", "dev|prod|silence, overrides "+svrcfg.EnvLogMode)
	flag.StringVar(&f.gridPolicy, "grid-policy", "", "clamp|failfast, overrides "+svrcfg.EnvGridPolicy)
	flag.IntVar(&f.cacheSize, "cache-size", 0, "outcome cache entries, overrides "+svrcfg.EnvCacheSize)
	flag.DurationVar(&f.cacheTTL, "cache-ttl", 0, "outcome cache ttl, overrides "+svrcfg.EnvCacheTTL)
	flag.DurationVar(&f.timeout, "timeout", 0, "per request resolve timeout, overrides "+svrcfg.EnvTimeout)
	flag.StringVar(&f.configDir, "configs", "", "extra directory of game configs (yaml/json)")
	flag.Parse()

	var envFiles []string
	if f.envFile != "" {
		envFiles = append(envFiles, f.envFile)
	}
	env, err := svrcfg.LoadEnv(envFiles...)
	if err != nil {
		return err
	}
	if err := f.apply(&env); err != nil {
		return err
	}

	var extra []fs.FS
	if f.configDir != "" {
		extra = append(extra, os.DirFS(f.configDir))
	}
	sCfg, ah, err := demo.NewServerConfig(env, extra...)
	if err != nil {
		return err
	}
	defer ah.Close()

	// 最後一個關閉，server 關閉過程的 log 也能寫出
	done := make(chan struct{})
	flush := app.Func{
		RunFn: func() error {
			<-done
			return nil
		},
		ShutdownFn: func(context.Context) error {
			ah.Close()
			close(done)
			return nil
		},
	}
	return server.Run(context.Background(), sCfg, flush)
}

// apply 有給值的 flag 覆蓋環境設定
func (f *flags) apply(env *svrcfg.Env) error {
	if f.addr != "" {
		env.Addr = f.addr
	}
	if f.logMode != "" {
		m, err := logger.ParseMode(f.logMode)
		if err != nil {
			return err
		}
		env.LogMode = m
	}
	if f.gridPolicy != "" {
		p, err := svrcfg.ParseGridPolicy(f.gridPolicy)
		if err != nil {
			return err
		}
		env.GridPolicy = p
	}
	if f.cacheSize > 0 {
		env.CacheSize = f.cacheSize
	}
	if f.cacheTTL > 0 {
		env.CacheTTL = f.cacheTTL
	}
	if f.timeout > 0 {
		env.Timeout = f.timeout
	}
	return nil
}
