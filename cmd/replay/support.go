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
	"io"
	"io/fs"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/zintix-labs/tumblelab/demo"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/recorder"
	"github.com/zintix-labs/tumblelab/server/logger"
	"github.com/zintix-labs/tumblelab/server/svrcfg"
	"github.com/zintix-labs/tumblelab/spec"
	"github.com/zintix-labs/tumblelab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg = new(config)

type config struct {
	name       string
	id         spec.GID
	in         string
	workers    int
	maxFree    int
	format     string
	out        string
	progress   bool
	pprof      string
	configDir  string
	logMode    string
	gridPolicy string
}

type gidFlag struct{ p *spec.GID }

func (f gidFlag) String() string {
	if f.p == nil {
		return "0"
	}
	return fmt.Sprint(uint(*f.p))
}

func (f gidFlag) Set(s string) error {
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return err
	}
	*f.p = spec.GID(uint(u))
	return nil
}

func bindVar() {
	flag.StringVar(&cfg.name, "game", "", "target game name")
	flag.Var(gidFlag{&cfg.id}, "gid", "target game id (used when -game is empty)")
	flag.StringVar(&cfg.in, "in", "-", "JSONL file of spin responses; .zst is decompressed; - reads stdin")
	flag.IntVar(&cfg.workers, "workers", runtime.NumCPU(), "number of workers")
	flag.IntVar(&cfg.maxFree, "max-free", 0, "max free spins per response, 0 = unlimited")
	flag.StringVar(&cfg.format, "format", "table", "report format: table|json|yaml")
	flag.StringVar(&cfg.out, "out", "", "write report to file instead of stdout")
	flag.BoolVar(&cfg.progress, "progress", true, "show progress bar")
	flag.StringVar(&cfg.pprof, "p", "", "pprof: '', cpu, heap, allocs")
	flag.StringVar(&cfg.configDir, "configs", "", "extra directory of game configs (yaml/json)")
	flag.StringVar(&cfg.logMode, "log-mode", "silence", "dev|prod|silence")
	flag.StringVar(&cfg.gridPolicy, "grid-policy", "clamp", "clamp|failfast")
	flag.Parse()
}

func execute() error {
	if err := cfg.valid(); err != nil {
		return err
	}
	mode, err := logger.ParseMode(cfg.logMode)
	if err != nil {
		return err
	}
	policy, err := svrcfg.ParseGridPolicy(cfg.gridPolicy)
	if err != nil {
		return err
	}
	log, ah := logger.NewAsync(4096, mode)
	defer ah.Close()

	var extra []fs.FS
	if cfg.configDir != "" {
		extra = append(extra, os.DirFS(cfg.configDir))
	}
	lab, err := demo.NewLab(svrcfg.Env{GridPolicy: policy}.LabOptions(log), extra...)
	if err != nil {
		return err
	}
	if cfg.name != "" {
		ent, ok := lab.EntryByName(cfg.name)
		if !ok {
			return errs.Warnf("game %q does not exist", cfg.name)
		}
		cfg.id = ent.GID
	}
	ent, ok := lab.EntryByID(cfg.id)
	if !ok {
		return errs.Warnf("game %d does not exist", cfg.id)
	}

	in, size, err := openInput(cfg.in)
	if err != nil {
		return err
	}
	defer in.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	p.Fprintf(os.Stderr, "%s[WORKERS:%d] [GAME:%s] [INPUT:%s] [BYTES:%d]%s\n", green, cfg.workers, ent.Name, cfg.in, size, reset)

	var progress io.Writer
	if cfg.progress {
		progress = os.Stderr
	}
	rep, used, err := recorder.ReplayLog(ctx, lab, cfg.id, in, recorder.LogConfig{
		Workers:  cfg.workers,
		MaxFree:  cfg.maxFree,
		Zstd:     recorder.IsZstdPath(cfg.in),
		Size:     size,
		Progress: progress,
		Log:      log,
	})
	if err != nil {
		return err
	}
	return writeReport(rep, used)
}

// openInput 回傳檔案大小給進度條；stdin 為 0（不顯示）
func openInput(path string) (io.ReadCloser, int64, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), 0, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errs.Wrap(err, "open replay log")
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, errs.Wrap(err, "stat replay log")
	}
	return f, st.Size(), nil
}

func writeReport(rep *stats.StatReport, used time.Duration) error {
	if cfg.out == "" && strings.EqualFold(cfg.format, "table") {
		rep.StdOut(used)
		return nil
	}
	w := io.Writer(os.Stdout)
	if cfg.out != "" {
		f, err := os.Create(cfg.out)
		if err != nil {
			return errs.Wrap(err, "create report file")
		}
		defer f.Close()
		w = f
	}
	return rep.WriteWith(w, stats.RenderByName(cfg.format))
}

func (c *config) valid() error {
	if c.workers < 1 {
		return errs.NewWarn("value err : workers must > 0")
	}
	if c.maxFree < 0 {
		return errs.NewWarn("value err : max-free must >= 0")
	}
	if c.name == "" && c.id == 0 {
		return errs.NewWarn("value err : -game or -gid is required")
	}
	switch strings.ToLower(c.format) {
	case "table", "json", "yaml", "yml":
	default:
		return errs.Warnf("value err : unknown format %q", c.format)
	}
	return nil
}
