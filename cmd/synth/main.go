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
	"syscall"

	"github.com/cheggaaa/pb/v3"
	"github.com/klauspost/compress/zstd"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/demo"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/recorder"
	"github.com/zintix-labs/tumblelab/sdk/core"
	"github.com/zintix-labs/tumblelab/sdk/gen"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// 產生合成的伺服器回應紀錄（JSONL，.zst 結尾時壓縮），給 cmd/replay 或壓測使用
//
//	go run ./cmd/synth -game sweet_tumble -n 100000 -seed 7 -out spins.jsonl.zst
func main() {
	var (
		name      = flag.String("game", "sweet_tumble", "target game name")
		n         = flag.Int("n", 10000, "number of responses")
		seed      = flag.Int64("seed", 0, "seed, 0 picks a random one")
		out       = flag.String("out", "-", "output file; .zst is compressed; - writes stdout")
		bet       = flag.String("bet", "1", "bet per response")
		pay       = flag.String("pay", "0.05", "bet multiple paid per removed symbol")
		freeSpins = flag.Int("free-spins", 10, "free spins granted per trigger")
		maxTumble = flag.Int("max-tumbles", 20, "max tumble steps per round")
		scatterW  = flag.Int("scatter-weight", 1, "scatter weight in the base game")
		multW     = flag.Int("mult-weight", 1, "weight of each multiplier symbol in free spins")
		progress  = flag.Bool("progress", true, "show progress bar")
		configDir = flag.String("configs", "", "extra directory of game configs (yaml/json)")
	)
	flag.Parse()

	cfg := gen.DefaultConfig()
	cfg.FreeSpins, cfg.MaxTumbles = *freeSpins, *maxTumble
	cfg.ScatterWeight, cfg.MultiplierWeight = *scatterW, *multW
	if err := run(*name, *n, *seed, *out, *bet, *pay, *progress, *configDir, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(name string, n int, seed int64, out, bet, pay string, progress bool, configDir string, cfg gen.Config) error {
	if n < 1 {
		return errs.NewWarn("value err : n must > 0")
	}
	var err error
	if cfg.Bet, err = decimal.NewFromString(bet); err != nil {
		return errs.Warnf("invalid bet %q", bet)
	}
	if cfg.PayPerSymbol, err = decimal.NewFromString(pay); err != nil {
		return errs.Warnf("invalid pay %q", pay)
	}
	if seed == 0 {
		seed = core.RandomSeed()
	}

	var extra []fs.FS
	if configDir != "" {
		extra = append(extra, os.DirFS(configDir))
	}
	lab, err := demo.NewLab(nil, extra...)
	if err != nil {
		return err
	}
	ent, ok := lab.EntryByName(name)
	if !ok {
		return errs.Warnf("game %q does not exist", name)
	}
	gs, err := lab.GameSetting(ent.GID)
	if err != nil {
		return err
	}
	g, err := gen.NewResponseGenerator(gs, seed, cfg)
	if err != nil {
		return err
	}

	w, closeOut, err := openOutput(out)
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(os.Stderr, "[GAME:%s] [N:%d] [SEED:%d] [OUT:%s]\n", ent.Name, n, seed, out)

	bar := pb.New(n)
	if progress && out != "-" {
		bar.SetWriter(os.Stderr)
	} else {
		bar.SetWriter(io.Discard)
	}
	bar.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	werr := gen.WriteLog(ctx, w, g, n, func() { bar.Increment() })
	bar.Finish()
	if cerr := closeOut(); werr == nil {
		werr = cerr
	}
	return werr
}

// openOutput .zst 結尾時包一層 zstd；關閉順序為 encoder -> 檔案
func openOutput(path string) (io.Writer, func() error, error) {
	var (
		w       io.Writer = os.Stdout
		closeFn           = func() error { return nil }
	)
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, errs.Wrap(err, "create synthetic log")
		}
		w, closeFn = f, f.Close
	}
	if !recorder.IsZstdPath(path) {
		return w, closeFn, nil
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		closeFn()
		return nil, nil, errs.Wrap(err, "zstd writer")
	}
	return enc, func() error {
		if err := enc.Close(); err != nil {
			closeFn()
			return errs.Wrap(err, "close zstd writer")
		}
		return closeFn()
	}, nil
}
