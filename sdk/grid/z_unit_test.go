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

package grid

import (
	"errors"
	"testing"

	"github.com/zintix-labs/tumblelab/errs"
)

func TestFromAreaLayout(t *testing.T) {
	area := [][]int16{{3, 1, 0}, {8, 7, 5}}
	g, err := FromArea(area, 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Columns() != 2 || g.Rows() != 3 {
		t.Fatalf("unexpected dims %dx%d", g.Columns(), g.Rows())
	}
	// row 0 is the bottom of each column
	if v := g.At(0, 0); v != 3 {
		t.Fatalf("bottom of col 0 = %d", v)
	}
	if v := g.At(1, 2); v != 5 {
		t.Fatalf("top of col 1 = %d", v)
	}
	back := g.Area()
	for c := range area {
		for r := range area[c] {
			if back[c][r] != area[c][r] {
				t.Fatalf("area round trip mismatch at %d,%d", c, r)
			}
		}
	}
	back[0][0] = 99
	if g.At(0, 0) == 99 {
		t.Fatalf("Area must return a copy")
	}
}

func TestFromAreaMalformed(t *testing.T) {
	if _, err := FromArea([][]int16{{1, 2}}, 2, 2); !errors.Is(err, errs.ErrMalformedResponse) {
		t.Fatalf("expected malformed error for missing column, got %v", err)
	}
	if _, err := FromArea([][]int16{{1, 2}, {1}}, 2, 2); !errors.Is(err, errs.ErrMalformedResponse) {
		t.Fatalf("expected malformed error for short column, got %v", err)
	}
	if _, err := FromArea([][]int16{{1, 64}, {1, 2}}, 2, 2); !errors.Is(err, errs.ErrMalformedResponse) {
		t.Fatalf("expected malformed error for symbol above 63, got %v", err)
	}
	if _, err := FromArea([][]int16{{1, -2}, {1, 2}}, 2, 2); !errors.Is(err, errs.ErrMalformedResponse) {
		t.Fatalf("expected malformed error for symbol below Empty, got %v", err)
	}
	if _, err := FromArea([][]int16{{0, 63}, {Empty, 2}}, 2, 2); err != nil {
		t.Fatalf("boundary symbols must be accepted: %v", err)
	}
}

func TestOutOfRangeClamp(t *testing.T) {
	g, _ := New(2, 2)
	v, err := g.Get(5, 0)
	if v != Empty {
		t.Fatalf("clamped get should return Empty, got %d", v)
	}
	if !errors.Is(err, errs.ErrIndexOutOfRange) {
		t.Fatalf("expected IndexOutOfRange, got %v", err)
	}
	if err := g.Set(-1, 0, 4); !errors.Is(err, errs.ErrIndexOutOfRange) {
		t.Fatalf("expected IndexOutOfRange on set, got %v", err)
	}
	for _, c := range g.Cells() {
		if c != Empty {
			t.Fatalf("out of range set must not write: %v", g.Cells())
		}
	}
}

func TestOutOfRangeFailFast(t *testing.T) {
	g, _ := New(2, 2)
	g.WithPolicy(FailFast, nil)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic in fail fast mode")
		}
	}()
	_, _ = g.Get(0, 2)
}

func TestIsCompact(t *testing.T) {
	g, _ := FromArea([][]int16{{1, 2, Empty}, {Empty, Empty, Empty}}, 2, 3)
	if !g.IsCompact() {
		t.Fatalf("expected compact grid:\n%s", g)
	}
	_ = g.Set(1, 2, 4)
	if g.IsCompact() {
		t.Fatalf("floating cell must break compaction:\n%s", g)
	}
}

func TestCloneEqualCount(t *testing.T) {
	g, _ := FromArea([][]int16{{8, 8, 1}, {8, 2, 8}}, 2, 3)
	c := g.Clone()
	if !g.Equal(c) {
		t.Fatalf("clone should equal source")
	}
	_ = c.Set(0, 0, 3)
	if g.Equal(c) {
		t.Fatalf("clone must not share cells")
	}
	if n := g.Count(8); n != 4 {
		t.Fatalf("Count(8) = %d", n)
	}
	if cell := g.CellOf(4); cell.Col != 1 || cell.Row != 1 {
		t.Fatalf("CellOf(4) = %+v", cell)
	}
}
