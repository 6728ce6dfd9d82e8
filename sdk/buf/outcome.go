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
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/sdk/grid"
)

// Cluster 一組成群得分：Size 含替代符號
type Cluster struct {
	Symbol      int16       `json:"symbol"`
	Size        int         `json:"size"`
	Substitutes int         `json:"substitutes"`
	Cells       []grid.Cell `json:"cells"`
}

// Multiplier 盤面上的倍數符號
type Multiplier struct {
	Cell   grid.Cell `json:"cell"`
	Symbol int16     `json:"symbol"`
	Weight int       `json:"weight"`
}

// StepRecord 單一 tumble 套用後的紀錄
type StepRecord struct {
	Index       int             `json:"index"`
	Removed     []int           `json:"removed"`  // 每列消除數
	Inserted    []int           `json:"inserted"` // 每列補入數
	Shortfall   int             `json:"shortfall,omitempty"`
	StepWin     decimal.Decimal `json:"step_win"`
	Cumulative  decimal.Decimal `json:"cumulative"`
	Scatters    int             `json:"scatters"`
	Clusters    []Cluster       `json:"clusters,omitempty"`
	Multipliers []Multiplier    `json:"multipliers,omitempty"`
	Noop        bool            `json:"noop,omitempty"`
}

// Outcome 一次 Spin 解析完成（Settled）後的完整結果
//
// 對帳錯誤不會中止解析，只會放進 Warnings；已累積的贏分一定保留。
type Outcome struct {
	SpinID  string          `json:"spin_id"`
	InBonus bool            `json:"in_bonus"`
	Bet     decimal.Decimal `json:"bet"`
	Grid    *grid.Grid      `json:"-"`
	Steps   []StepRecord    `json:"steps"`
	Ledger  *Ledger         `json:"-"`

	TumbleWin     decimal.Decimal  `json:"tumble_win"`
	ScatterPayout decimal.Decimal  `json:"scatter_payout"`
	TotalWin      decimal.Decimal  `json:"total_win"`
	DeclaredWin   *decimal.Decimal `json:"declared_win,omitempty"` // 伺服器宣告的總贏分（免費遊戲 item）

	Scatters       int          `json:"scatters"`
	PayoutMultiple int          `json:"payout_multiple"`
	Multipliers    []Multiplier `json:"multipliers,omitempty"`
	MultiplierSum  int          `json:"multiplier_sum"`

	EnterBonus       bool `json:"enter_bonus"`
	PendingRetrigger bool `json:"pending_retrigger"`
	RetriggerSpins   int  `json:"retrigger_spins"`

	Notices  []Notice `json:"-"`
	Warnings []error  `json:"-"`
}

// Reconciled 沒有任何對帳警告
func (o *Outcome) Reconciled() bool { return len(o.Warnings) == 0 }
