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

// Package cascade 把伺服器的一個 tumble step 套用到邏輯盤面上。
//
// 每一步固定三段：標記消除 -> 逐列壓縮 -> 補入。三段不會跨步驟交錯。
// 伺服器宣告的數量與盤面對不上時記錄為 ReconciliationError，盡力套用後繼續，不會中止整個 Spin。
package cascade

import (
	"io"
	"log/slog"

	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/buf"
	"github.com/zintix-labs/tumblelab/sdk/grid"
	"github.com/zintix-labs/tumblelab/sdk/ops"
)

// Shortfall 盤面上找不到足夠的符號可消除
type Shortfall struct {
	Symbol int16 `json:"symbol"`
	Want   int   `json:"want"`
	Got    int   `json:"got"`
}

// Mismatch 某列補入數與空位數不符
type Mismatch struct {
	Column int `json:"column"`
	Freed  int `json:"freed"`
	Ins    int `json:"ins"`
}

// Report 單步套用結果
type Report struct {
	Removed    []int
	Inserted   []int
	Shortfalls []Shortfall
	Mismatches []Mismatch
	Noop       bool
	Issues     error
}

// TotalRemoved 全盤消除數
func (r *Report) TotalRemoved() int {
	n := 0
	for _, v := range r.Removed {
		n += v
	}
	return n
}

// TotalInserted 全盤補入數
func (r *Report) TotalInserted() int {
	n := 0
	for _, v := range r.Inserted {
		n += v
	}
	return n
}

// Resolver 持有可重用的緩衝，非併發安全：一個 Spin 編排器一個 Resolver。
type Resolver struct {
	log *slog.Logger
	ctx []slog.Attr

	marked []bool
	hits   []int
	quota  []int
	freed  []int
	used   []int
}

func NewResolver(log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{log: log}
}

// ApplyTumbleStep 使用一次性的 Resolver 套用單步
func ApplyTumbleStep(g *grid.Grid, step *buf.TumbleStep) (Report, error) {
	return NewResolver(nil).Apply(g, step)
}

// ApplyWithContext 與 Apply 相同，attrs 會附加在每一筆對帳紀錄上（例如 spin_id、step）
func (rs *Resolver) ApplyWithContext(g *grid.Grid, step *buf.TumbleStep, attrs ...slog.Attr) (Report, error) {
	rs.ctx = attrs
	defer func() { rs.ctx = nil }()
	return rs.Apply(g, step)
}

// Apply 原地修改 g。
//
// 回傳的 error 只會是：
//   - Warn 級 ReconciliationError（可能多筆合併）：盤面已盡力套用，呼叫端應繼續
//   - Fatal：g 或 step 為 nil
func (rs *Resolver) Apply(g *grid.Grid, step *buf.TumbleStep) (Report, error) {
	if g == nil || step == nil {
		return Report{}, errs.NewFatal("cascade: nil grid or step")
	}
	cols, rows := g.Columns(), g.Rows()
	rs.resetSizes(cols, rows)

	rep := Report{
		Removed:  make([]int, cols),
		Inserted: make([]int, cols),
	}
	if step.IsNoop() {
		rep.Noop = true
		return rep, nil
	}

	var issues []error
	cells := g.Cells()

	// 宣告總數檢查：消除總數應等於補入總數
	if out, in := step.OutCount(), step.InCount(); out != in {
		issues = append(issues, rs.reconcile("declared counts differ",
			slog.Int("outs", out), slog.Int("ins", in)))
	}

	// 1. 標記：有補入的列優先
	for c := 0; c < cols; c++ {
		if c < len(step.Ins) {
			rs.quota[c] = len(step.Ins[c])
		}
	}
	if len(step.Ins) > cols {
		for c := cols; c < len(step.Ins); c++ {
			rep.Mismatches = append(rep.Mismatches, Mismatch{Column: c, Ins: len(step.Ins[c])})
			issues = append(issues, rs.reconcile("ins for column outside grid",
				slog.Int("column", c), slog.Int("ins", len(step.Ins[c]))))
		}
	}
	for _, o := range step.Outs {
		var got int
		rs.hits, got = ops.MarkSymbol(cells, cols, rows, o.Symbol, o.Count, rs.quota, rs.marked, rs.hits)
		if got < o.Count {
			rep.Shortfalls = append(rep.Shortfalls, Shortfall{Symbol: o.Symbol, Want: o.Count, Got: got})
			issues = append(issues, rs.reconcile("not enough symbols to remove",
				slog.Int("symbol", int(o.Symbol)), slog.Int("want", o.Count), slog.Int("got", got)))
		}
	}
	for _, idx := range rs.hits {
		rep.Removed[idx/rows]++
	}

	// 2. 壓縮
	ops.Clear(cells, rs.hits, grid.Empty)
	ops.Gravity(cells, cols, rows, grid.Empty, rs.freed)

	// 3. 補入
	ops.Fill(cells, cols, rows, step.Ins, rs.freed, rs.used)
	for c := 0; c < cols; c++ {
		rep.Inserted[c] = rs.used[c]
		want := 0
		if c < len(step.Ins) {
			want = len(step.Ins[c])
		}
		if want != rs.freed[c] {
			rep.Mismatches = append(rep.Mismatches, Mismatch{Column: c, Freed: rs.freed[c], Ins: want})
			issues = append(issues, rs.reconcile("ins count differs from freed slots",
				slog.Int("column", c), slog.Int("freed", rs.freed[c]), slog.Int("ins", want)))
		}
	}

	rep.Issues = errs.Join(issues...)
	return rep, rep.Issues
}

// ============================================================
// ** 以下內部方法 **
// ============================================================

// resetSizes 調整緩衝大小並歸零
func (rs *Resolver) resetSizes(cols, rows int) {
	n := cols * rows
	if cap(rs.marked) < n {
		rs.marked = make([]bool, n)
	}
	rs.marked = rs.marked[:n]
	clear(rs.marked)

	rs.hits = rs.hits[:0]

	for _, p := range []*[]int{&rs.quota, &rs.freed, &rs.used} {
		if cap(*p) < cols {
			*p = make([]int, cols)
		}
		*p = (*p)[:cols]
		clear(*p)
	}
}

func (rs *Resolver) reconcile(msg string, attrs ...slog.Attr) error {
	args := make([]any, 0, len(attrs)+len(rs.ctx))
	for _, a := range rs.ctx {
		args = append(args, a)
	}
	for _, a := range attrs {
		args = append(args, a)
	}
	rs.log.Warn("reconciliation: "+msg, args...)
	return errs.Reconcilef("%s %v", msg, attrs)
}
