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

// Package grid 邏輯盤面：columns x rows 的符號值矩陣，與任何畫面物件無關。
//
// 儲存方式為 column-major 的一維 []int16：idx = col*rows + row，row 0 為最底列。
// 這與伺服器 area[col][row]（每列由下往上）的排列一致，
// 因此某一列（column）在底層陣列中是連續的一段，sdk/ops 直接在這段上做壓縮與補入。
package grid

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/spec"
)

// Empty 空格。符號 0 是 Scatter，所以空格不能用 0。
const Empty int16 = -1

// Policy 越界存取的處理方式
type Policy uint8

const (
	// Clamp 正式環境：記錄後忽略（Get 回傳 Empty，Set 不做事）
	Clamp Policy = iota
	// FailFast 開發環境：直接 panic
	FailFast
)

// Cell 盤面座標
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

type Grid struct {
	cols, rows int
	cells      []int16
	policy     Policy
	log        *slog.Logger
}

// New 建立全空盤面
func New(cols, rows int) (*Grid, error) {
	if cols <= 0 || rows <= 0 {
		return nil, errs.Fatalf("invalid grid dimensions: cols=%d rows=%d", cols, rows)
	}
	g := &Grid{
		cols:  cols,
		rows:  rows,
		cells: make([]int16, cols*rows),
		log:   silent,
	}
	for i := range g.cells {
		g.cells[i] = Empty
	}
	return g, nil
}

// FromArea 由伺服器的 area[col][row]（每列由下往上）建立盤面。
// 維度不符或符號超出 [Empty, spec.MaxSymbol] 屬於 MalformedSpinResponse，不做部分建盤。
func FromArea(area [][]int16, cols, rows int) (*Grid, error) {
	if len(area) != cols {
		return nil, errs.Malformedf("area has %d columns, want %d", len(area), cols)
	}
	g, err := New(cols, rows)
	if err != nil {
		return nil, err
	}
	for c, col := range area {
		if len(col) != rows {
			return nil, errs.Malformedf("area column %d has %d rows, want %d", c, len(col), rows)
		}
		for r, v := range col {
			if v < Empty || v > spec.MaxSymbol {
				return nil, errs.Malformedf("area[%d][%d] has invalid symbol %d", c, r, v)
			}
		}
		copy(g.cells[c*rows:(c+1)*rows], col)
	}
	return g, nil
}

// WithPolicy 設定越界處理方式；log 為 nil 時不輸出
func (g *Grid) WithPolicy(p Policy, log *slog.Logger) *Grid {
	g.policy = p
	if log == nil {
		log = silent
	}
	g.log = log
	return g
}

func (g *Grid) Columns() int { return g.cols }

func (g *Grid) Rows() int { return g.rows }

// Get 回傳 (col,row) 的值；越界依 Policy 處理並回傳 IndexOutOfRange
func (g *Grid) Get(col, row int) (int16, error) {
	if !g.InRange(col, row) {
		return Empty, g.fault("get", col, row)
	}
	return g.cells[col*g.rows+row], nil
}

// Set 寫入 (col,row)；越界依 Policy 處理並回傳 IndexOutOfRange
func (g *Grid) Set(col, row int, v int16) error {
	if !g.InRange(col, row) {
		return g.fault("set", col, row)
	}
	if v < Empty {
		v = Empty
	}
	g.cells[col*g.rows+row] = v
	return nil
}

// At 與 Get 相同但不回傳錯誤，適合已確定不越界的迴圈
func (g *Grid) At(col, row int) int16 {
	v, _ := g.Get(col, row)
	return v
}

func (g *Grid) InRange(col, row int) bool {
	return col >= 0 && col < g.cols && row >= 0 && row < g.rows
}

// Cells 回傳底層 column-major 陣列（非複製），供 sdk/ops 原地操作
func (g *Grid) Cells() []int16 { return g.cells }

// Column 回傳第 col 列的切片（由下往上，非複製）
func (g *Grid) Column(col int) []int16 {
	if col < 0 || col >= g.cols {
		_ = g.fault("column", col, 0)
		return nil
	}
	return g.cells[col*g.rows : (col+1)*g.rows]
}

// CellOf 由一維索引換回座標
func (g *Grid) CellOf(idx int) Cell {
	return Cell{Col: idx / g.rows, Row: idx % g.rows}
}

// Area 回傳 area[col][row] 形式的複本
func (g *Grid) Area() [][]int16 {
	area := make([][]int16, g.cols)
	for c := 0; c < g.cols; c++ {
		area[c] = append([]int16(nil), g.Column(c)...)
	}
	return area
}

func (g *Grid) Clone() *Grid {
	return &Grid{
		cols:   g.cols,
		rows:   g.rows,
		cells:  append([]int16(nil), g.cells...),
		policy: g.policy,
		log:    g.log,
	}
}

func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.cols != o.cols || g.rows != o.rows {
		return false
	}
	for i, v := range g.cells {
		if o.cells[i] != v {
			return false
		}
	}
	return true
}

// Count 盤面上等於 sym 的格數
func (g *Grid) Count(sym int16) int {
	n := 0
	for _, v := range g.cells {
		if v == sym {
			n++
		}
	}
	return n
}

// IsCompact 檢查每列非空格是否連續且貼底：空格之上不可再出現非空格
func (g *Grid) IsCompact() bool {
	for c := 0; c < g.cols; c++ {
		seenEmpty := false
		for _, v := range g.Column(c) {
			if v == Empty {
				seenEmpty = true
				continue
			}
			if seenEmpty {
				return false
			}
		}
	}
	return true
}

// String 由上往下逐列輸出，方便除錯
func (g *Grid) String() string {
	var sb strings.Builder
	for r := g.rows - 1; r >= 0; r-- {
		for c := 0; c < g.cols; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			v := g.cells[c*g.rows+r]
			if v == Empty {
				sb.WriteString(" .")
				continue
			}
			fmt.Fprintf(&sb, "%2d", v)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ============================================================
// ** 以下內部方法 **
// ============================================================

var silent = slog.New(slog.NewTextHandler(io.Discard, nil))

func (g *Grid) fault(op string, col, row int) error {
	err := errs.OutOfRangef("%s (%d,%d) outside %dx%d grid", op, col, row, g.cols, g.rows)
	if g.policy == FailFast {
		panic(err)
	}
	g.log.Warn("grid access out of range",
		slog.String("op", op),
		slog.Int("col", col),
		slog.Int("row", row),
		slog.Int("cols", g.cols),
		slog.Int("rows", g.rows),
	)
	return err
}
