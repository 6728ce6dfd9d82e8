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

// Package perf 替 CLI（cmd/replay）包一層 pprof，輸出可給 go tool pprof 或 PGO 使用。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/tumblelab/errs"
)

// DefaultDir pprof 檔案寫入路徑
const DefaultDir = "build/profiling"

// Modes 支援的模式；空字串表示不做 profiling
var Modes = []string{"", "cpu", "heap", "allocs"}

// Run 依 mode 包住 exe：
//   - cpu: exe 執行期間錄 CPU profile
//   - heap: exe 結束後 GC 一次再寫 in-use 快照
//   - allocs: exe 結束後寫累積配置
//
// 回傳 exe 的錯誤；profile 寫入失敗時回傳 Fatal。
func Run(mode, dir string, exe func() error) error {
	if dir == "" {
		dir = DefaultDir
	}
	switch mode {
	case "":
		return exe()
	case "cpu":
		return cpuProfile(dir, exe)
	case "heap":
		if err := exe(); err != nil {
			return err
		}
		runtime.GC()
		return writeProfile(dir, "heap")
	case "allocs":
		if err := exe(); err != nil {
			return err
		}
		return writeProfile(dir, "allocs")
	default:
		return errs.Warnf("unknown pprof mode %q (cpu|heap|allocs)", mode)
	}
}

func cpuProfile(dir string, exe func() error) error {
	f, err := create(dir, "cpu")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

func writeProfile(dir, name string) error {
	prof := pprof.Lookup(name)
	if prof == nil {
		return errs.Fatalf("profile %s not found", name)
	}
	f, err := create(dir, name)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "write "+name+" profile")
	}
	return nil
}

func create(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create profiling dir")
	}
	f, err := os.Create(filepath.Join(dir, name+".pprof"))
	if err != nil {
		return nil, errs.Wrap(err, "create "+name+".pprof")
	}
	return f, nil
}
