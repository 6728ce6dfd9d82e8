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

package tumblelab

import (
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/buf"
	"github.com/zintix-labs/tumblelab/sdk/calc"
	"github.com/zintix-labs/tumblelab/sdk/cascade"
	"github.com/zintix-labs/tumblelab/sdk/grid"
	"github.com/zintix-labs/tumblelab/spec"
)

// Phase 編排器狀態
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseGridSeeded
	PhaseApplyingTumbles
	PhaseEvaluating
	PhaseScatterCheck
	PhaseSettled
)

var phaseNames = [...]string{
	PhaseIdle:            "idle",
	PhaseGridSeeded:      "grid_seeded",
	PhaseApplyingTumbles: "applying_tumbles",
	PhaseEvaluating:      "evaluating",
	PhaseScatterCheck:    "scatter_check",
	PhaseSettled:         "settled",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Orchestrator 單一 Spin 的狀態機：Begin -> Next* -> Settle。
//
// 盤面只屬於目前這一局，下一次 Begin 直接換掉。
// 同一個 Orchestrator 不可被多個 goroutine 同時使用。
type Orchestrator struct {
	gs     *spec.GameSetting
	det    *calc.Detector
	rs     *cascade.Resolver
	log    *slog.Logger
	policy grid.Policy

	phase   Phase
	round   buf.Round
	inBonus bool
	g       *grid.Grid
	next    int
	ledger  *buf.Ledger
	out     *buf.Outcome
}

func newOrchestrator(gs *spec.GameSetting, log *slog.Logger, policy grid.Policy) (*Orchestrator, error) {
	det, err := calc.NewDetector(gs)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		gs:     gs,
		det:    det,
		rs:     cascade.NewResolver(log),
		log:    log,
		policy: policy,
		ledger: buf.NewLedger(),
	}, nil
}

func (o *Orchestrator) Phase() Phase { return o.phase }

// Grid 目前的邏輯盤面（Begin 之前為 nil）
func (o *Orchestrator) Grid() *grid.Grid { return o.g }

// Begin Idle/Settled -> GridSeeded。
//
// 以 round.Area 建立盤面；尺寸與設定不符回傳 MalformedResponse，狀態不變、不留下部分盤面。
func (o *Orchestrator) Begin(round buf.Round, inBonus bool) error {
	if o.phase != PhaseIdle && o.phase != PhaseSettled {
		return errs.Fatalf("begin called in phase %s", o.phase)
	}
	ss := &o.gs.ScreenSetting
	g, err := grid.FromArea(round.Area, ss.Columns, ss.Rows)
	if err != nil {
		o.log.Warn("malformed spin area",
			slog.String("spin_id", round.SpinID),
			slog.String("game", o.gs.GameName),
			slog.Any("err", err),
		)
		return err
	}
	g.WithPolicy(o.policy, o.log)

	o.round = round
	o.inBonus = inBonus
	o.g = g
	o.next = 0
	o.ledger = buf.NewLedger()
	o.out = &buf.Outcome{
		SpinID:        round.SpinID,
		InBonus:       inBonus,
		Bet:           round.Bet,
		Grid:          g,
		Ledger:        o.ledger,
		Steps:         make([]buf.StepRecord, 0, len(round.Tumbles)),
		TumbleWin:     decimal.Zero,
		ScatterPayout: decimal.Zero,
		TotalWin:      decimal.Zero,
	}

	o.notify(buf.Notice{Kind: buf.NoticeReelsStop, Step: -1, Count: o.det.CountScatters(g)})
	o.phase = PhaseGridSeeded
	if len(round.Tumbles) == 0 {
		o.phase = PhaseEvaluating
	}
	return nil
}

// Next 套用下一個 tumble 並重新偵測盤面；沒有下一步時回傳 false
func (o *Orchestrator) Next() (buf.StepRecord, bool) {
	if o.phase != PhaseGridSeeded && o.phase != PhaseApplyingTumbles {
		return buf.StepRecord{}, false
	}
	if o.next >= len(o.round.Tumbles) {
		o.phase = PhaseEvaluating
		return buf.StepRecord{}, false
	}
	o.phase = PhaseApplyingTumbles
	i := o.next
	step := &o.round.Tumbles[i]

	rep, err := o.rs.ApplyWithContext(o.g, step,
		slog.String("spin_id", o.round.SpinID),
		slog.Int("step", i),
	)
	if err != nil {
		// 對帳錯誤不中止；已套用的部分保留
		o.out.Warnings = append(o.out.Warnings, err)
	}

	ev := o.det.Scan(o.g)
	cum := o.ledger.AddTumble(i, step.Win)
	shortfall := 0
	for _, s := range rep.Shortfalls {
		shortfall += s.Want - s.Got
	}
	rec := buf.StepRecord{
		Index:       i,
		Removed:     rep.Removed,
		Inserted:    rep.Inserted,
		Shortfall:   shortfall,
		StepWin:     step.Win,
		Cumulative:  cum,
		Scatters:    ev.Scatters,
		Clusters:    ev.Clusters,
		Multipliers: ev.Multipliers,
		Noop:        rep.Noop,
	}
	o.out.Steps = append(o.out.Steps, rec)
	o.notify(buf.Notice{Kind: buf.NoticeTumbleProgress, Step: i, Amount: step.Win, Total: cum})

	o.next++
	if o.next >= len(o.round.Tumbles) {
		o.phase = PhaseEvaluating
	}
	return rec, true
}

// Settle 套用剩下的步驟，做最後一次全盤偵測與 Scatter 判定後回傳結果。
//
// 只有最終盤面的 Scatter 數會決定觸發；Begin 之前呼叫回傳 nil。
func (o *Orchestrator) Settle() *buf.Outcome {
	switch o.phase {
	case PhaseIdle:
		return nil
	case PhaseSettled:
		return o.out
	}
	for {
		if _, ok := o.Next(); !ok {
			break
		}
	}

	// Evaluating
	ev := o.det.Scan(o.g)
	out := o.out
	out.Scatters = ev.Scatters
	out.Multipliers = ev.Multipliers
	out.MultiplierSum = ev.MultiplierSum
	out.TumbleWin = o.ledger.TumbleWin()

	// ScatterCheck
	o.phase = PhaseScatterCheck
	so := o.det.EvaluateScatter(ev.Scatters, o.inBonus, o.round.Bet)
	if so.Trigger {
		o.ledger.AddScatter(so.Payout)
		out.ScatterPayout = so.Payout
		out.PayoutMultiple = so.Multiple
		out.EnterBonus = true
	}
	if so.Retrigger {
		out.PendingRetrigger = true
		out.RetriggerSpins = so.Spins
	}
	out.TotalWin = o.ledger.Total()

	// 伺服器宣告的 item 總贏分可能已含倍數，只記錄不列為對帳錯誤
	if d := o.round.DeclaredWin; d != nil {
		out.DeclaredWin = d
		if !d.Equal(out.TotalWin) {
			o.log.Debug("declared win differs from resolved",
				slog.String("spin_id", o.round.SpinID),
				slog.String("declared", d.String()),
				slog.String("resolved", out.TotalWin.String()),
				slog.Int("multiplier_sum", ev.MultiplierSum),
			)
		}
	}

	// 通知順序：倍數 -> 贏分結束 -> 序列結束 -> Scatter
	if out.TumbleWin.IsPositive() && len(ev.Multipliers) > 0 {
		for i := range ev.Multipliers {
			m := ev.Multipliers[i]
			o.notify(buf.Notice{Kind: buf.NoticeMultiplierArrived, Step: -1, Weight: m.Weight, Cell: &m.Cell})
		}
		o.notify(buf.Notice{Kind: buf.NoticeMultipliersTriggered, Step: -1, Weight: ev.MultiplierSum, Total: out.TumbleWin})
	}
	if out.TotalWin.IsPositive() {
		o.notify(buf.Notice{Kind: buf.NoticeWinSequenceStop, Step: -1, Total: out.TotalWin})
	}
	o.notify(buf.Notice{Kind: buf.NoticeTumbleSequenceDone, Step: -1, Total: out.TotalWin})
	if so.Trigger {
		o.notify(buf.Notice{Kind: buf.NoticeBonusTrigger, Step: -1, Count: ev.Scatters, Amount: so.Payout, Total: out.TotalWin})
	}
	if so.Retrigger {
		o.notify(buf.Notice{Kind: buf.NoticeScatterRetrigger, Step: -1, Count: so.Spins})
	}

	o.phase = PhaseSettled
	o.log.Debug("spin settled",
		slog.String("spin_id", out.SpinID),
		slog.Bool("in_bonus", out.InBonus),
		slog.Int("steps", len(out.Steps)),
		slog.String("total_win", out.TotalWin.String()),
		slog.Int("scatters", out.Scatters),
		slog.Int("warnings", len(out.Warnings)),
	)
	return out
}

// Resolve Begin -> Next* -> Settle
func (o *Orchestrator) Resolve(round buf.Round, inBonus bool) (*buf.Outcome, error) {
	if err := o.Begin(round, inBonus); err != nil {
		return nil, err
	}
	return o.Settle(), nil
}

func (o *Orchestrator) notify(n buf.Notice) {
	n.SpinID = o.round.SpinID
	o.out.Notices = append(o.out.Notices, n)
}
