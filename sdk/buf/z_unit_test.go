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

package buf

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLedgerAccumulates(t *testing.T) {
	l := NewLedger()
	l.AddTumble(0, decimal.RequireFromString("0.9"))
	cum := l.AddTumble(1, decimal.RequireFromString("1.25"))
	if !cum.Equal(decimal.RequireFromString("2.15")) {
		t.Fatalf("cumulative after tumbles = %s", cum)
	}
	cum = l.AddScatter(decimal.NewFromInt(3))
	if !cum.Equal(decimal.RequireFromString("5.15")) {
		t.Fatalf("cumulative after scatter = %s", cum)
	}
	if !l.TumbleWin().Equal(decimal.RequireFromString("2.15")) || !l.ScatterWin().Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unexpected split: tumble=%s scatter=%s", l.TumbleWin(), l.ScatterWin())
	}
	es := l.Entries()
	if len(es) != 3 || es[2].Kind != EntryScatter || es[2].Index != -1 {
		t.Fatalf("unexpected entries: %+v", es)
	}
	l.Reset()
	if l.Len() != 0 || !l.Total().IsZero() {
		t.Fatalf("reset failed")
	}
}

func TestTumbleStepCounts(t *testing.T) {
	s := TumbleStep{
		Outs: []Out{{Symbol: 8, Count: 10}},
		Ins:  [][]int16{{9, 6}, {8, 2}, {9, 9}, {}, {6, 7}, {1, 8}},
	}
	if s.OutCount() != 10 || s.InCount() != 10 {
		t.Fatalf("out=%d in=%d", s.OutCount(), s.InCount())
	}
	if s.IsNoop() {
		t.Fatalf("step is not a noop")
	}
	empty := TumbleStep{Ins: [][]int16{{}, {}}}
	if !empty.IsNoop() {
		t.Fatalf("empty step should be a noop")
	}
}

func TestInitialSpinsPreference(t *testing.T) {
	three, ten, neg := 3, 10, -2
	items := make([]FreeSpinItem, 8)
	left := []FreeSpinItem{{SpinsLeft: &ten}, {}}
	negLeft := []FreeSpinItem{{SpinsLeft: &neg}}
	lateLeft := []FreeSpinItem{{}, {SpinsLeft: &ten}}
	cases := []struct {
		name string
		fs   *FreeSpin
		want int
	}{
		{"nil", nil, 0},
		{"explicit remaining", &FreeSpin{Count: 10, Remaining: &three, Items: items}, 3},
		{"remaining beats spinsLeft", &FreeSpin{Remaining: &three, Items: left}, 3},
		{"first spinsLeft", &FreeSpin{Items: left}, 11},
		{"spinsLeft beats count", &FreeSpin{Count: 3, Items: left}, 11},
		{"negative spinsLeft", &FreeSpin{Items: negLeft}, 1},
		{"only first item counts", &FreeSpin{Count: 4, Items: lateLeft}, 4},
		{"count", &FreeSpin{Count: 10, Items: items}, 10},
		{"items", &FreeSpin{Items: items}, 8},
	}
	for _, c := range cases {
		if got := c.fs.InitialSpins(); got != c.want {
			t.Fatalf("%s: InitialSpins = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestItemRound(t *testing.T) {
	fs := &FreeSpin{Items: []FreeSpinItem{{
		Area:     [][]int16{{1}},
		TotalWin: decimal.NewFromInt(4),
	}}}
	r, ok := fs.ItemRound("abc", decimal.NewFromInt(2), 0)
	if !ok || r.SpinID != "abc/fs-0" || !r.Bet.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("unexpected round: %+v", r)
	}
	if r.DeclaredWin == nil || !r.DeclaredWin.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("declared win not carried")
	}
	if _, ok := fs.ItemRound("abc", decimal.Zero, 1); ok {
		t.Fatalf("out of range item must fail")
	}
}
