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

package cascade

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/buf"
	"github.com/zintix-labs/tumblelab/sdk/grid"
)

func sampleGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g, err := grid.FromArea([][]int16{
		{3, 8, 0, 8, 2},
		{8, 7, 5, 8, 6},
		{8, 1, 8, 4, 3},
		{2, 4, 0, 5, 1},
		{8, 3, 8, 2, 7},
		{1, 8, 5, 8, 4},
	}, 6, 5)
	if err != nil {
		t.Fatalf("seed grid: %v", err)
	}
	return g
}

func sampleStep() *buf.TumbleStep {
	return &buf.TumbleStep{
		Outs: []buf.Out{{Symbol: 8, Count: 10, Win: decimal.RequireFromString("0.9")}},
		Ins:  [][]int16{{9, 6}, {8, 2}, {9, 9}, {}, {6, 7}, {1, 8}},
		Win:  decimal.RequireFromString("0.9"),
	}
}

func TestApplyRemovesCompactsAndInserts(t *testing.T) {
	g := sampleGrid(t)
	rep, err := ApplyTumbleStep(g, sampleStep())
	if err != nil {
		t.Fatalf("unexpected reconciliation error: %v", err)
	}
	want := [][]int16{
		{3, 0, 2, 9, 6},
		{7, 5, 6, 8, 2},
		{1, 4, 3, 9, 9},
		{2, 4, 0, 5, 1},
		{3, 2, 7, 6, 7},
		{1, 5, 4, 1, 8},
	}
	got := g.Area()
	for c := range want {
		if !slices.Equal(got[c], want[c]) {
			t.Fatalf("column %d = %v, want %v", c, got[c], want[c])
		}
	}
	if rep.TotalRemoved() != 10 || rep.TotalInserted() != 10 {
		t.Fatalf("removed=%d inserted=%d", rep.TotalRemoved(), rep.TotalInserted())
	}
	if !slices.Equal(rep.Removed, rep.Inserted) {
		t.Fatalf("per column conservation broken: %v vs %v", rep.Removed, rep.Inserted)
	}
	if !g.IsCompact() {
		t.Fatalf("grid not compact:\n%s", g)
	}
}

func TestApplyPrefersColumnsExpectingIns(t *testing.T) {
	g := sampleGrid(t)
	_ = g.Set(3, 1, 8) // an extra 8 in a column without ins
	rep, err := ApplyTumbleStep(g, sampleStep())
	if err != nil {
		t.Fatalf("unexpected reconciliation error: %v", err)
	}
	if rep.Removed[3] != 0 {
		t.Fatalf("column without ins should keep its 8: %v", rep.Removed)
	}
	if v := g.At(3, 1); v != 8 {
		t.Fatalf("column 3 changed:\n%s", g)
	}
}

func TestApplyNoopLeavesGridUnchanged(t *testing.T) {
	g := sampleGrid(t)
	before := g.Clone()
	rep, err := ApplyTumbleStep(g, &buf.TumbleStep{})
	if err != nil {
		t.Fatalf("noop must not error: %v", err)
	}
	if !rep.Noop || !g.Equal(before) {
		t.Fatalf("noop step changed the grid")
	}
	rep, err = ApplyTumbleStep(g, &buf.TumbleStep{Ins: [][]int16{{}, {}, {}, {}, {}, {}}})
	if err != nil || !rep.Noop || !g.Equal(before) {
		t.Fatalf("empty ins lists should also be a noop")
	}
}

func TestApplyShortfallIsReconciliation(t *testing.T) {
	g := sampleGrid(t) // 7 在第 1、4 列各一個
	_ = g.Set(3, 4, 7)
	if n := g.Count(7); n != 3 {
		t.Fatalf("setup expects 3 sevens, got %d", n)
	}
	step := &buf.TumbleStep{
		Outs: []buf.Out{{Symbol: 7, Count: 5}},
		Ins:  [][]int16{{}, {1, 1}, {}, {2}, {3, 3}, {}},
	}
	rep, err := ApplyTumbleStep(g, step)
	if !errors.Is(err, errs.ErrReconciliation) {
		t.Fatalf("expected reconciliation error, got %v", err)
	}
	e, ok := errs.AsErr(err)
	if !ok || e.ErrLv != errs.Warn {
		t.Fatalf("reconciliation must stay at warn level: %v", err)
	}
	if rep.TotalRemoved() != 3 {
		t.Fatalf("removed %d, want 3", rep.TotalRemoved())
	}
	if len(rep.Shortfalls) != 1 || rep.Shortfalls[0].Got != 3 || rep.Shortfalls[0].Want != 5 {
		t.Fatalf("unexpected shortfalls: %+v", rep.Shortfalls)
	}
	if g.Count(7) != 0 {
		t.Fatalf("all available 7s should be removed:\n%s", g)
	}
	if !g.IsCompact() {
		t.Fatalf("grid not compact after shortfall:\n%s", g)
	}
}

func TestApplyTruncatesAndPads(t *testing.T) {
	g, _ := grid.FromArea([][]int16{{5, 5}, {6, 6}}, 2, 2)
	step := &buf.TumbleStep{
		Outs: []buf.Out{{Symbol: 5, Count: 1}, {Symbol: 6, Count: 2}},
		Ins:  [][]int16{{1, 2, 3}, {4}, {9}},
	}
	rep, err := ApplyTumbleStep(g, step)
	if !errors.Is(err, errs.ErrReconciliation) {
		t.Fatalf("expected reconciliation error, got %v", err)
	}
	// col 0: one freed, three offered -> truncated; col 1: two freed, one offered -> padded
	if got := g.Area(); !slices.Equal(got[0], []int16{5, 1}) || !slices.Equal(got[1], []int16{4, grid.Empty}) {
		t.Fatalf("unexpected grid: %v", got)
	}
	if len(rep.Mismatches) != 3 {
		t.Fatalf("expected 3 mismatches (two columns + outside column), got %+v", rep.Mismatches)
	}
	if !g.IsCompact() {
		t.Fatalf("grid not compact:\n%s", g)
	}
}

func TestApplyRandomStepsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	rs := NewResolver(nil)
	const cols, rows = 6, 5
	area := make([][]int16, cols)
	for c := range area {
		area[c] = make([]int16, rows)
		for r := range area[c] {
			area[c][r] = int16(1 + rng.IntN(5))
		}
	}
	g, _ := grid.FromArea(area, cols, rows)

	for round := 0; round < 200; round++ {
		sym := int16(1 + rng.IntN(5))
		perCol := make([]int, cols)
		for c := 0; c < cols; c++ {
			for _, v := range g.Column(c) {
				if v == sym {
					perCol[c]++
				}
			}
		}
		total := 0
		ins := make([][]int16, cols)
		for c, n := range perCol {
			total += n
			for i := 0; i < n; i++ {
				ins[c] = append(ins[c], int16(1+rng.IntN(5)))
			}
		}
		step := &buf.TumbleStep{Ins: ins}
		if total > 0 {
			step.Outs = []buf.Out{{Symbol: sym, Count: total}}
		}
		rep, err := rs.Apply(g, step)
		if err != nil {
			t.Fatalf("round %d: unexpected error %v", round, err)
		}
		if !g.IsCompact() {
			t.Fatalf("round %d: grid not compact:\n%s", round, g)
		}
		if rep.TotalRemoved() != total || !slices.Equal(rep.Removed, perCol) || !slices.Equal(rep.Inserted, perCol) {
			t.Fatalf("round %d: conservation broken removed=%v inserted=%v want=%v", round, rep.Removed, rep.Inserted, perCol)
		}
		if g.Count(grid.Empty) != 0 {
			t.Fatalf("round %d: balanced step left holes:\n%s", round, g)
		}
	}
}
