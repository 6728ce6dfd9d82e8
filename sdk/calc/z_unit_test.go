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

package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/sdk/grid"
	"github.com/zintix-labs/tumblelab/spec"
)

const smallCfg = `
game_name: small
screen_setting: {columns: 4, rows: 3}
symbol_setting:
  scatter: 0
  multipliers: {10: 2, 11: 5}
  substitutes: {23: [1, 2]}
cluster_setting: {min_size: 3}
`

func newDetector(t *testing.T, cfg string) *Detector {
	t.Helper()
	gs, err := spec.GetGameSettingByYAML([]byte(cfg))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	d, err := NewDetector(gs)
	if err != nil {
		t.Fatalf("detector: %v", err)
	}
	return d
}

func smallGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g, err := grid.FromArea([][]int16{
		{1, 1, 2},
		{23, 2, 2},
		{0, 10, 5},
		{0, 11, 0},
	}, 4, 3)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	return g
}

func TestDetectClusterWinsSharesSubstitute(t *testing.T) {
	d := newDetector(t, smallCfg)
	cls := d.DetectClusterWins(smallGrid(t))
	if len(cls) != 2 {
		t.Fatalf("expected 2 clusters, got %+v", cls)
	}
	if cls[0].Symbol != 1 || cls[0].Size != 3 || cls[0].Substitutes != 1 {
		t.Fatalf("unexpected first cluster: %+v", cls[0])
	}
	want := []grid.Cell{{Col: 0, Row: 0}, {Col: 0, Row: 1}, {Col: 1, Row: 0}}
	for i, c := range want {
		if cls[0].Cells[i] != c {
			t.Fatalf("cluster cells = %v, want %v", cls[0].Cells, want)
		}
	}
	if cls[1].Symbol != 2 || cls[1].Size != 4 || cls[1].Substitutes != 1 {
		t.Fatalf("unexpected second cluster: %+v", cls[1])
	}
}

func TestDetectClusterWinsMinSize(t *testing.T) {
	d := newDetector(t, `
game_name: small
screen_setting: {columns: 4, rows: 3}
symbol_setting:
  substitutes: {23: [1, 2]}
cluster_setting: {min_size: 5}
`)
	if cls := d.DetectClusterWins(smallGrid(t)); len(cls) != 0 {
		t.Fatalf("no cluster reaches 5, got %+v", cls)
	}
}

func TestDetectClusterWinsSkipsSpecialBases(t *testing.T) {
	d := newDetector(t, smallCfg)
	g, _ := grid.FromArea([][]int16{
		{0, 0, 0},
		{10, 10, 10},
		{23, 23, 23},
		{grid.Empty, grid.Empty, grid.Empty},
	}, 4, 3)
	if cls := d.DetectClusterWins(g); len(cls) != 0 {
		t.Fatalf("scatter, multiplier, substitute and empty are never bases: %+v", cls)
	}
}

func TestScan(t *testing.T) {
	d := newDetector(t, smallCfg)
	ev := d.Scan(smallGrid(t))
	if ev.Scatters != 3 {
		t.Fatalf("scatters = %d", ev.Scatters)
	}
	if len(ev.Multipliers) != 2 || ev.MultiplierSum != 7 {
		t.Fatalf("multipliers = %+v sum=%d", ev.Multipliers, ev.MultiplierSum)
	}
	if m := ev.Multipliers[0]; m.Symbol != 10 || m.Weight != 2 || m.Cell != (grid.Cell{Col: 2, Row: 1}) {
		t.Fatalf("unexpected first multiplier: %+v", m)
	}
	if len(ev.Clusters) != 2 {
		t.Fatalf("clusters = %d", len(ev.Clusters))
	}
}

func TestEvaluateScatter(t *testing.T) {
	d := newDetector(t, smallCfg)
	cases := []struct {
		name      string
		count     int
		inBonus   bool
		bet       string
		trigger   bool
		retrigger bool
		payout    string
		spins     int
	}{
		{"below trigger", 3, false, "1", false, false, "0", 0},
		{"four at bet 1", 4, false, "1", true, false, "3", 0},
		{"five at bet 0.2", 5, false, "0.2", true, false, "1", 0},
		{"six at bet 2", 6, false, "2", true, false, "200", 0},
		{"seven uses largest key", 7, false, "1", true, false, "100", 0},
		{"retrigger in bonus", 3, true, "1", false, true, "0", 5},
		{"bonus below retrigger", 2, true, "1", false, false, "0", 0},
		{"bonus never pays base", 6, true, "1", false, true, "0", 5},
	}
	for _, c := range cases {
		so := d.EvaluateScatter(c.count, c.inBonus, decimal.RequireFromString(c.bet))
		if so.Trigger != c.trigger || so.Retrigger != c.retrigger || so.Spins != c.spins {
			t.Fatalf("%s: unexpected outcome %+v", c.name, so)
		}
		if !so.Payout.Equal(decimal.RequireFromString(c.payout)) {
			t.Fatalf("%s: payout = %s, want %s", c.name, so.Payout, c.payout)
		}
	}
}
