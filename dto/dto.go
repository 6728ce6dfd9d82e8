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

package dto

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/buf"
	"github.com/zintix-labs/tumblelab/sdk/grid"
)

// OutcomeDTO 對外輸出的單回合結果；金額一律以字串輸出，避免浮點誤差
type OutcomeDTO struct {
	SpinID  string          `json:"spin_id"`
	InBonus bool            `json:"in_bonus"`
	Bet     decimal.Decimal `json:"bet"`
	Area    [][]int16       `json:"area"` // 最終盤面 area[col][row]
	Steps   []StepDTO       `json:"steps"`

	TumbleWin     decimal.Decimal  `json:"tumble_win"`
	ScatterPayout decimal.Decimal  `json:"scatter_payout"`
	TotalWin      decimal.Decimal  `json:"total_win"`
	DeclaredWin   *decimal.Decimal `json:"declared_win,omitempty"`

	Scatters       int              `json:"scatters"`
	PayoutMultiple int              `json:"payout_multiple"`
	Multipliers    []buf.Multiplier `json:"multipliers,omitempty"`
	MultiplierSum  int              `json:"multiplier_sum"`

	EnterBonus       bool `json:"enter_bonus"`
	PendingRetrigger bool `json:"pending_retrigger"`
	RetriggerSpins   int  `json:"retrigger_spins,omitempty"`

	Warnings []WarningDTO `json:"warnings,omitempty"`
	Notices  []NoticeDTO  `json:"notices,omitempty"`
}

// StepDTO 單一 tumble
type StepDTO struct {
	Index      int             `json:"index"`
	Removed    []int           `json:"removed"`
	Inserted   []int           `json:"inserted"`
	Shortfall  int             `json:"shortfall,omitempty"`
	StepWin    decimal.Decimal `json:"step_win"`
	Cumulative decimal.Decimal `json:"cumulative"`
	Scatters   int             `json:"scatters"`
	Clusters   []buf.Cluster   `json:"clusters,omitempty"`
	Noop       bool            `json:"noop,omitempty"`
}

// WarningDTO 對帳警告
type WarningDTO struct {
	Kind    string `json:"kind"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// NoticeDTO 通知的具名形式（event 即對外名稱，如 tumble-win-progress）
type NoticeDTO struct {
	Event  string           `json:"event"`
	SpinID string           `json:"spin_id,omitempty"`
	Step   *int             `json:"step,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Total  *decimal.Decimal `json:"total,omitempty"`
	Weight int              `json:"weight,omitempty"`
	Count  int              `json:"count,omitempty"`
	Cell   *grid.Cell       `json:"cell,omitempty"`
}

// BonusDTO 免費遊戲狀態快照
type BonusDTO struct {
	InBonus          bool            `json:"in_bonus"`
	SpinsRemaining   int             `json:"spins_remaining"`
	PendingRetrigger bool            `json:"pending_retrigger"`
	RetriggerSpins   int             `json:"retrigger_spins"`
	CumulativeWin    decimal.Decimal `json:"cumulative_win"`
	SpinsPlayed      int             `json:"spins_played"`
	Stopped          bool            `json:"stopped"`
}

// ReplayDTO 一份完整回應的重播結果
type ReplayDTO struct {
	Game      string          `json:"game"`
	Base      OutcomeDTO      `json:"base"`
	FreeSpins []OutcomeDTO    `json:"free_spins,omitempty"`
	Bonus     *BonusDTO       `json:"bonus,omitempty"`
	Notices   []NoticeDTO     `json:"notices,omitempty"`
	TotalWin  decimal.Decimal `json:"total_win"`
}

// GameDTO 目錄中的一款遊戲
type GameDTO struct {
	Name    string `json:"name"`
	GID     uint   `json:"gid"`
	Columns int    `json:"columns"`
	Rows    int    `json:"rows"`
	Scatter int16  `json:"scatter"`
}

// ============================================================
// ** 轉換 **
// ============================================================

// NewOutcomeDTO withNotices 為 false 時不輸出通知（例如通知另外彙整在 ReplayDTO）
func NewOutcomeDTO(o *buf.Outcome, withNotices bool) (OutcomeDTO, error) {
	if o == nil {
		return OutcomeDTO{}, errs.NewWarn("outcome is nil")
	}
	d := OutcomeDTO{
		SpinID:           o.SpinID,
		InBonus:          o.InBonus,
		Bet:              o.Bet,
		TumbleWin:        o.TumbleWin,
		ScatterPayout:    o.ScatterPayout,
		TotalWin:         o.TotalWin,
		DeclaredWin:      o.DeclaredWin,
		Scatters:         o.Scatters,
		PayoutMultiple:   o.PayoutMultiple,
		Multipliers:      o.Multipliers,
		MultiplierSum:    o.MultiplierSum,
		EnterBonus:       o.EnterBonus,
		PendingRetrigger: o.PendingRetrigger,
		RetriggerSpins:   o.RetriggerSpins,
	}
	if o.Grid != nil {
		d.Area = o.Grid.Area()
	}
	d.Steps = make([]StepDTO, len(o.Steps))
	for i, s := range o.Steps {
		d.Steps[i] = StepDTO{
			Index:      s.Index,
			Removed:    s.Removed,
			Inserted:   s.Inserted,
			Shortfall:  s.Shortfall,
			StepWin:    s.StepWin,
			Cumulative: s.Cumulative,
			Scatters:   s.Scatters,
			Clusters:   s.Clusters,
			Noop:       s.Noop,
		}
	}
	for _, w := range o.Warnings {
		d.Warnings = append(d.Warnings, NewWarningDTO(w))
	}
	if withNotices {
		d.Notices = NewNoticeDTOs(o.Notices)
	}
	return d, nil
}

func NewWarningDTO(err error) WarningDTO {
	w := WarningDTO{Kind: errs.KindNone.String(), Level: errs.ErrLv(errs.Warn), Message: err.Error()}
	if e, ok := errs.AsErr(err); ok {
		w.Kind = e.Kind.String()
		w.Level = errs.ErrLv(e.ErrLv)
	}
	return w
}

func NewNoticeDTO(n buf.Notice) NoticeDTO {
	d := NoticeDTO{
		Event:  n.Kind.String(),
		SpinID: n.SpinID,
		Weight: n.Weight,
		Count:  n.Count,
		Cell:   n.Cell,
	}
	if n.Step >= 0 {
		step := n.Step
		d.Step = &step
	}
	if !n.Amount.IsZero() {
		amt := n.Amount
		d.Amount = &amt
	}
	switch n.Kind {
	case buf.NoticeTumbleProgress, buf.NoticeWinSequenceStop, buf.NoticeTumbleSequenceDone, buf.NoticeBonusSummary:
		// 累計即使為 0 也輸出
		total := n.Total
		d.Total = &total
	default:
		if !n.Total.IsZero() {
			total := n.Total
			d.Total = &total
		}
	}
	return d
}

func NewNoticeDTOs(ns []buf.Notice) []NoticeDTO {
	if len(ns) == 0 {
		return nil
	}
	out := make([]NoticeDTO, len(ns))
	for i, n := range ns {
		out[i] = NewNoticeDTO(n)
	}
	return out
}
