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

// Package gen 產生合成的伺服器回應。
//
// 每個 tumble 步驟消除盤面上數量達 MinSize 的所有同符號，補入的數量逐列對齊，
// 因此產出的回應在重播時一定可以完整對帳。相同 seed 與 Config 產出相同序列。
package gen

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/buf"
	"github.com/zintix-labs/tumblelab/sdk/cascade"
	"github.com/zintix-labs/tumblelab/sdk/core"
	"github.com/zintix-labs/tumblelab/sdk/grid"
	"github.com/zintix-labs/tumblelab/sdk/sampler"
	"github.com/zintix-labs/tumblelab/spec"
)

// Config 合成參數
//
//   - Symbols / Weights: 一般符號與權重，Weights 為空時等權重
//   - ScatterWeight: 一般遊戲中 Scatter 的權重；免費遊戲不出 Scatter
//   - MultiplierWeight: 免費遊戲中每個倍數符號的權重，0 表示不出現
//   - PayPerSymbol: 每消除一顆符號支付的押注倍數
type Config struct {
	Bet              decimal.Decimal
	Symbols          []int16
	Weights          []int
	ScatterWeight    int
	MultiplierWeight int
	PayPerSymbol     decimal.Decimal
	MaxTumbles       int
	FreeSpins        int
	IDPrefix         string
}

// DefaultConfig 押注 1、9 個等權重符號、觸發後 10 次免費遊戲
func DefaultConfig() Config {
	return Config{
		Bet:              decimal.NewFromInt(1),
		ScatterWeight:    1,
		MultiplierWeight: 1,
		PayPerSymbol:     decimal.RequireFromString("0.05"),
		MaxTumbles:       20,
		FreeSpins:        10,
		IDPrefix:         "synth",
	}
}

// ResponseGenerator 不可被多個 goroutine 同時使用
type ResponseGenerator struct {
	gs    *spec.GameSetting
	cfg   Config
	c     *core.Core
	base  *sampler.Weighted[int16]
	bonus *sampler.Weighted[int16]
	rs    *cascade.Resolver
	cols  int
	rows  int
	seq   int
}

func NewResponseGenerator(gs *spec.GameSetting, seed int64, cfg Config) (*ResponseGenerator, error) {
	if gs == nil {
		return nil, errs.NewFatal("gen: nil game setting")
	}
	if err := cfg.fill(gs); err != nil {
		return nil, err
	}
	ss := &gs.SymbolSetting

	baseSyms := slices.Clone(cfg.Symbols)
	baseW := slices.Clone(cfg.Weights)
	if cfg.ScatterWeight > 0 {
		baseSyms = append(baseSyms, ss.Scatter)
		baseW = append(baseW, cfg.ScatterWeight)
	}
	base, err := sampler.NewWeighted(baseSyms, baseW)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "gen: base symbol table", gs.GameName)
	}

	bonusSyms := slices.Clone(cfg.Symbols)
	bonusW := slices.Clone(cfg.Weights)
	if cfg.MultiplierWeight > 0 {
		mults := make([]int16, 0, len(ss.Multipliers))
		for sym := range ss.Multipliers {
			mults = append(mults, sym)
		}
		slices.Sort(mults)
		for _, sym := range mults {
			bonusSyms = append(bonusSyms, sym)
			bonusW = append(bonusW, cfg.MultiplierWeight)
		}
	}
	bonus, err := sampler.NewWeighted(bonusSyms, bonusW)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "gen: bonus symbol table", gs.GameName)
	}

	return &ResponseGenerator{
		gs:    gs,
		cfg:   cfg,
		c:     core.NewSeeded(seed),
		base:  base,
		bonus: bonus,
		rs:    cascade.NewResolver(nil),
		cols:  gs.ScreenSetting.Columns,
		rows:  gs.ScreenSetting.Rows,
	}, nil
}

// Config 回傳補齊預設值後的設定
func (g *ResponseGenerator) Config() Config { return g.cfg }

// Next 產生下一筆回應，SpinID 為 "<IDPrefix>-<序號>"
func (g *ResponseGenerator) Next() (*buf.SpinResult, error) {
	g.seq++
	sr := &buf.SpinResult{
		SpinID: fmt.Sprintf("%s-%d", g.cfg.IDPrefix, g.seq),
		Bet:    g.cfg.Bet,
	}
	area, steps, final, _, err := g.round(g.base)
	if err != nil {
		return nil, err
	}
	sr.Area, sr.Tumbles = area, steps

	ss := &g.gs.SymbolSetting
	if g.cfg.FreeSpins > 0 && final.Count(ss.Scatter) >= g.gs.ScatterSetting.TriggerCount {
		if sr.FreeSpin, err = g.freeSpin(); err != nil {
			return nil, err
		}
	}
	return sr, nil
}

// ============================================================
// ** 以下內部方法 **
// ============================================================

func (cfg *Config) fill(gs *spec.GameSetting) error {
	ss := &gs.SymbolSetting
	if len(cfg.Symbols) == 0 {
		for sym := int16(1); sym <= 9; sym++ {
			if t, ok := ss.TypeOf(sym); ok && t == spec.SymbolTypeStandard {
				cfg.Symbols = append(cfg.Symbols, sym)
			}
		}
	}
	seen := make(map[int16]bool, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		t, ok := ss.TypeOf(sym)
		if !ok || t != spec.SymbolTypeStandard {
			return errs.NewFatal(fmt.Sprintf("gen: symbol %d is not a standard symbol of %s", sym, gs.GameName))
		}
		if seen[sym] {
			return errs.NewFatal(fmt.Sprintf("gen: duplicated symbol %d", sym))
		}
		seen[sym] = true
	}
	if len(cfg.Weights) == 0 {
		cfg.Weights = make([]int, len(cfg.Symbols))
		for i := range cfg.Weights {
			cfg.Weights[i] = 1
		}
	}
	if len(cfg.Weights) != len(cfg.Symbols) {
		return errs.NewFatal(fmt.Sprintf("gen: %d symbols but %d weights", len(cfg.Symbols), len(cfg.Weights)))
	}
	if cfg.Bet.IsNegative() || cfg.PayPerSymbol.IsNegative() {
		return errs.NewFatal("gen: negative bet or pay")
	}
	if cfg.ScatterWeight < 0 || cfg.MultiplierWeight < 0 || cfg.MaxTumbles < 0 || cfg.FreeSpins < 0 {
		return errs.NewFatal("gen: negative weight or count")
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "synth"
	}
	return nil
}

// round 產生初始盤面並一路消除到沒有可消除的符號或達到 MaxTumbles
func (g *ResponseGenerator) round(pool *sampler.Weighted[int16]) ([][]int16, []buf.TumbleStep, *grid.Grid, decimal.Decimal, error) {
	area := make([][]int16, g.cols)
	for c := range area {
		area[c] = g.draw(pool, g.rows)
	}
	gr, err := grid.FromArea(area, g.cols, g.rows)
	if err != nil {
		return nil, nil, nil, decimal.Zero, err
	}

	steps := []buf.TumbleStep{}
	win := decimal.Zero
	for len(steps) < g.cfg.MaxTumbles {
		st, ok := g.step(gr, pool)
		if !ok {
			break
		}
		if _, err := g.rs.Apply(gr, &st); err != nil {
			return nil, nil, nil, decimal.Zero, errs.WrapWithExtra(err, "gen: generated step does not reconcile", g.gs.GameName)
		}
		steps = append(steps, st)
		win = win.Add(st.Win)
	}
	return area, steps, gr, win, nil
}

// step 數量達 MinSize 的一般符號整批消除；每列補入數等於該列被消除的格數
func (g *ResponseGenerator) step(gr *grid.Grid, pool *sampler.Weighted[int16]) (buf.TumbleStep, bool) {
	st := buf.TumbleStep{Win: decimal.Zero}
	perCol := make([]int, g.cols)
	for _, sym := range g.cfg.Symbols {
		n := gr.Count(sym)
		if n < g.gs.ClusterSetting.MinSize {
			continue
		}
		w := g.cfg.Bet.Mul(g.cfg.PayPerSymbol).Mul(decimal.NewFromInt(int64(n)))
		st.Outs = append(st.Outs, buf.Out{Symbol: sym, Count: n, Win: w})
		st.Win = st.Win.Add(w)
		for c := 0; c < g.cols; c++ {
			for _, v := range gr.Column(c) {
				if v == sym {
					perCol[c]++
				}
			}
		}
	}
	if len(st.Outs) == 0 {
		return st, false
	}
	st.Ins = make([][]int16, g.cols)
	for c, n := range perCol {
		st.Ins[c] = g.draw(pool, n)
	}
	return st, true
}

// freeSpin 宣告的 item 總贏分含倍數加總，重播端只記錄不對帳
func (g *ResponseGenerator) freeSpin() (*buf.FreeSpin, error) {
	n := g.cfg.FreeSpins
	fs := &buf.FreeSpin{
		Count:    n,
		TotalWin: decimal.Zero,
		Items:    make([]buf.FreeSpinItem, n),
	}
	ss := &g.gs.SymbolSetting
	for i := range fs.Items {
		area, steps, final, win, err := g.round(g.bonus)
		if err != nil {
			return nil, err
		}
		var mults []int
		sum := 0
		for _, v := range final.Cells() {
			if w := ss.MultiplierWeight(v); w > 0 {
				mults = append(mults, w)
				sum += w
			}
		}
		declared := win
		if sum > 0 && win.IsPositive() {
			declared = win.Mul(decimal.NewFromInt(int64(sum)))
		}
		left := n - 1 - i
		fs.Items[i] = buf.FreeSpinItem{
			SpinsLeft:   &left,
			Area:        area,
			TotalWin:    declared,
			Multipliers: mults,
			Tumbles:     steps,
		}
		fs.TotalWin = fs.TotalWin.Add(declared)
	}
	return fs, nil
}

func (g *ResponseGenerator) draw(pool *sampler.Weighted[int16], n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i], _ = pool.Pick(g.c)
	}
	return out
}
