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

// Package calc 在邏輯盤面上偵測成群得分、Scatter 數量與倍數符號，並判定 Scatter 規則。
//
// Detector 是純計算：不改盤面、不記 log；內部緩衝可重用，非併發安全。
package calc

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/sdk/buf"
	"github.com/zintix-labs/tumblelab/sdk/grid"
	"github.com/zintix-labs/tumblelab/spec"
)

// Evaluation 一次完整掃描的結果
type Evaluation struct {
	Clusters      []buf.Cluster
	Scatters      int
	Multipliers   []buf.Multiplier
	MultiplierSum int
}

// ScatterOutcome Scatter 規則判定
//
//   - Trigger: 一般遊戲中達到觸發門檻，進入免費遊戲
//   - Retrigger: 免費遊戲中達到追加門檻
//   - Multiple / Payout: 只有 Trigger 時才有基本獎金 (Payout = bet * Multiple)
//   - Spins: 追加的次數
type ScatterOutcome struct {
	Count     int
	Trigger   bool
	Retrigger bool
	Multiple  int
	Payout    decimal.Decimal
	Spins     int
}

// Detector 依 GameSetting 偵測盤面
type Detector struct {
	gs      *spec.GameSetting
	symbols *spec.SymbolSetting
	scatter *spec.ScatterSetting
	minSize int

	cb clusterBuf
}

// NewDetector gs 應來自 spec.GetGameSettingByYAML/JSON（已初始化）；未初始化的設定會在這裡補做
func NewDetector(gs *spec.GameSetting) (*Detector, error) {
	if err := gs.SymbolSetting.Init(); err != nil {
		return nil, err
	}
	if err := gs.ScatterSetting.Init(); err != nil {
		return nil, err
	}
	screen := gs.ScreenSetting.Columns * gs.ScreenSetting.Rows
	if err := gs.ClusterSetting.Init(screen); err != nil {
		return nil, err
	}
	return &Detector{
		gs:      gs,
		symbols: &gs.SymbolSetting,
		scatter: &gs.ScatterSetting,
		minSize: gs.ClusterSetting.MinSize,
	}, nil
}

func (d *Detector) Setting() *spec.GameSetting { return d.gs }

// DetectClusterWins 回傳所有達到最小顆數的成群，依起點 (欄優先) 順序
func (d *Detector) DetectClusterWins(g *grid.Grid) []buf.Cluster {
	return detectClusters(g.Cells(), g.Columns(), g.Rows(), d.symbols, d.minSize, &d.cb, nil)
}

// CountScatters 盤面上的 Scatter 數
func (d *Detector) CountScatters(g *grid.Grid) int {
	return g.Count(d.symbols.Scatter)
}

// FindMultipliers 盤面上所有倍數符號，依欄優先、由下往上
func (d *Detector) FindMultipliers(g *grid.Grid) []buf.Multiplier {
	ms, _ := d.findMultipliers(g)
	return ms
}

// Scan 一次取得成群、Scatter 與倍數
func (d *Detector) Scan(g *grid.Grid) Evaluation {
	ev := Evaluation{
		Clusters: d.DetectClusterWins(g),
		Scatters: d.CountScatters(g),
	}
	ev.Multipliers, ev.MultiplierSum = d.findMultipliers(g)
	return ev
}

// EvaluateScatter 依 ScatterSetting 判定觸發或追加。
//
// 一般遊戲：count >= TriggerCount 觸發，基本獎金 = bet * Payouts[k]，k 為不超過 count 的最大鍵。
// 免費遊戲：count >= RetriggerCount 追加 RetriggerSpins 次，沒有基本獎金。
func (d *Detector) EvaluateScatter(count int, inBonus bool, bet decimal.Decimal) ScatterOutcome {
	so := ScatterOutcome{Count: count, Payout: decimal.Zero}
	ss := d.scatter
	if inBonus {
		if count >= ss.RetriggerCount {
			so.Retrigger = true
			so.Spins = ss.RetriggerSpins
		}
		return so
	}
	if count >= ss.TriggerCount {
		so.Trigger = true
		so.Multiple = ss.PayoutMultiple(count)
		so.Payout = bet.Mul(decimal.NewFromInt(int64(so.Multiple)))
	}
	return so
}

func (d *Detector) findMultipliers(g *grid.Grid) ([]buf.Multiplier, int) {
	var (
		out []buf.Multiplier
		sum int
	)
	cells := g.Cells()
	for i, s := range cells {
		if s == grid.Empty {
			continue
		}
		w := d.symbols.MultiplierWeight(s)
		if w <= 0 {
			continue
		}
		out = append(out, buf.Multiplier{Cell: g.CellOf(i), Symbol: s, Weight: w})
		sum += w
	}
	return out, sum
}
