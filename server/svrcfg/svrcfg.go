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

package svrcfg

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	tumblelab "github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/grid"
	"github.com/zintix-labs/tumblelab/server/cache"
	"github.com/zintix-labs/tumblelab/server/logger"
	"github.com/zintix-labs/tumblelab/server/metrics"
)

// 環境變數名稱
const (
	EnvAddr       = "TUMBLELAB_ADDR"
	EnvLogMode    = "TUMBLELAB_LOG_MODE"
	EnvCacheSize  = "TUMBLELAB_CACHE_SIZE"
	EnvCacheTTL   = "TUMBLELAB_CACHE_TTL"
	EnvGridPolicy = "TUMBLELAB_GRID_POLICY"
	EnvTimeout    = "TUMBLELAB_REQUEST_TIMEOUT"
)

const (
	defaultTimeout = 5 * time.Second
	maxTimeout     = time.Minute
)

// Env 由 .env 與環境變數讀出的原始設定；flag 可以再覆蓋
type Env struct {
	Addr       string
	LogMode    logger.LogMode
	CacheSize  int
	CacheTTL   time.Duration
	GridPolicy grid.Policy
	Timeout    time.Duration
}

// LoadEnv 先讀 .env（未指定檔案時，.env 不存在不算錯），再讀環境變數。
// 已存在的環境變數不會被 .env 覆蓋。
func LoadEnv(files ...string) (Env, error) {
	if err := godotenv.Load(files...); err != nil {
		if len(files) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return Env{}, errs.Wrap(err, "load env file")
		}
	}
	return FromEnv()
}

// FromEnv 只讀環境變數；格式錯誤時回傳 Warn
func FromEnv() (Env, error) {
	e := Env{
		Addr:      getEnv(EnvAddr, ""),
		CacheSize: cache.DefaultSize,
		CacheTTL:  cache.DefaultTTL,
		Timeout:   defaultTimeout,
	}
	var err error
	var list []error
	if e.LogMode, err = logger.ParseMode(getEnv(EnvLogMode, "")); err != nil {
		list = append(list, err)
	}
	if e.GridPolicy, err = ParseGridPolicy(getEnv(EnvGridPolicy, "")); err != nil {
		list = append(list, err)
	}
	if v := getEnv(EnvCacheSize, ""); v != "" {
		if e.CacheSize, err = strconv.Atoi(v); err != nil || e.CacheSize <= 0 {
			list = append(list, errs.Warnf("%s must be a positive integer, got %q", EnvCacheSize, v))
		}
	}
	if v := getEnv(EnvCacheTTL, ""); v != "" {
		if e.CacheTTL, err = time.ParseDuration(v); err != nil || e.CacheTTL <= 0 {
			list = append(list, errs.Warnf("%s must be a positive duration, got %q", EnvCacheTTL, v))
		}
	}
	if v := getEnv(EnvTimeout, ""); v != "" {
		if e.Timeout, err = time.ParseDuration(v); err != nil || e.Timeout <= 0 {
			list = append(list, errs.Warnf("%s must be a positive duration, got %q", EnvTimeout, v))
		}
	}
	if len(list) > 0 {
		return e, errs.Join(list...)
	}
	return e, nil
}

// ParseGridPolicy clamp（預設）或 failfast
func ParseGridPolicy(s string) (grid.Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return grid.Clamp, nil
	case "failfast", "fail_fast", "fail-fast":
		return grid.FailFast, nil
	default:
		return grid.Clamp, errs.Warnf("unknown grid policy %q (clamp|failfast)", s)
	}
}

// LabOptions 建立 Lab 時共用的 Session 選項
func (e Env) LabOptions(log *slog.Logger) []tumblelab.Option {
	return []tumblelab.Option{
		tumblelab.WithLogger(log),
		tumblelab.WithGridPolicy(e.GridPolicy),
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

// SvrCfg 組裝 server 所需的全部依賴
type SvrCfg struct {
	Log     *slog.Logger
	Lab     *tumblelab.Lab
	Addr    string
	Timeout time.Duration // 單一請求的解析期限
	Cache   *cache.Outcomes
	Metrics *metrics.Metrics
}

// Valid 補齊預設值並檢查必要依賴
func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("async log handler is not ready")
		}
	} else {
		sc.Log = logger.NewDefaultLogger(logger.ModeSilence)
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	if _, err := sc.Lab.Summary(); err != nil {
		return errs.Wrap(err, "lab must be frozen before serving")
	}
	if sc.Timeout <= 0 {
		sc.Timeout = defaultTimeout
	}
	sc.Timeout = min(sc.Timeout, maxTimeout)
	if sc.Cache == nil {
		sc.Cache = cache.NewOutcomes(0, 0)
	}
	if sc.Metrics == nil {
		sc.Metrics = metrics.New(false)
	}
	return nil
}
