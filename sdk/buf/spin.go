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
	"fmt"

	"github.com/shopspring/decimal"
)

// SpinResult 伺服器回應經正規化後的唯一內部形狀。
//
// 建構後唯讀；下一次 Spin 直接取代。
// 新舊兩種 key（freeSpin / freespin）在 dto.Normalize 已經合併，核心只看到 FreeSpin。
type SpinResult struct {
	SpinID   string          `json:"spin_id"`
	Bet      decimal.Decimal `json:"bet"`
	Area     [][]int16       `json:"area"`
	Tumbles  []TumbleStep    `json:"tumbles"`
	FreeSpin *FreeSpin       `json:"free_spin,omitempty"`
}

// TumbleStep 一次消除/補入。Outs 是依符號彙總的消除指令（不是逐格），Ins 為每列補入值（由下往上）。
type TumbleStep struct {
	Outs []Out           `json:"out"`
	Ins  [][]int16       `json:"in"`
	Win  decimal.Decimal `json:"win"`
}

type Out struct {
	Symbol int16           `json:"symbol"`
	Count  int             `json:"count"`
	Win    decimal.Decimal `json:"win"`
}

// FreeSpin 免費遊戲資訊
//
//   - Remaining: 伺服器明確給的剩餘次數（remainingFreeSpin），沒有時為 nil
//   - Items[i].SpinsLeft: 該局之後的剩餘次數
//   - Items: 預先算好的每一次免費遊戲
type FreeSpin struct {
	Count     int             `json:"count"`
	TotalWin  decimal.Decimal `json:"total_win"`
	Remaining *int            `json:"remaining,omitempty"`
	Items     []FreeSpinItem  `json:"items"`
}

type FreeSpinItem struct {
	SpinsLeft   *int            `json:"spins_left,omitempty"`
	Area        [][]int16       `json:"area"`
	TotalWin    decimal.Decimal `json:"total_win"`
	Multipliers []int           `json:"multipliers,omitempty"`
	Tumbles     []TumbleStep    `json:"tumbles"`
}

// Round 編排器一次要解析的單位：一般 Spin 或一個免費遊戲 item
type Round struct {
	SpinID      string
	Bet         decimal.Decimal
	Area        [][]int16
	Tumbles     []TumbleStep
	DeclaredWin *decimal.Decimal // item 的 totalWin，只用來比對
	Multipliers []int            // 伺服器宣告的倍數
}

// ============================================================
// ** 公開方法 **
// ============================================================

func (s *TumbleStep) OutCount() int {
	n := 0
	for _, o := range s.Outs {
		n += o.Count
	}
	return n
}

func (s *TumbleStep) InCount() int {
	n := 0
	for _, col := range s.Ins {
		n += len(col)
	}
	return n
}

// IsNoop 沒有任何消除也沒有補入
func (s *TumbleStep) IsNoop() bool {
	return len(s.Outs) == 0 && s.InCount() == 0
}

// BaseRound 一般遊戲的 Round
func (sr *SpinResult) BaseRound() Round {
	return Round{
		SpinID:  sr.SpinID,
		Bet:     sr.Bet,
		Area:    sr.Area,
		Tumbles: sr.Tumbles,
	}
}

// HasFreeSpin 是否帶有免費遊戲
func (sr *SpinResult) HasFreeSpin() bool {
	return sr.FreeSpin != nil && (sr.FreeSpin.Count > 0 || len(sr.FreeSpin.Items) > 0 || sr.FreeSpin.Remaining != nil)
}

// InitialSpins 進入免費遊戲時的初始次數。
//
// 優先順序：Remaining、第一個 item 的 SpinsLeft+1、Count、item 數。
// SpinsLeft 是「這局之後還剩幾局」，所以第一個 item 的值加一才是總局數。
func (fs *FreeSpin) InitialSpins() int {
	if fs == nil {
		return 0
	}
	if fs.Remaining != nil {
		return max(0, *fs.Remaining)
	}
	if len(fs.Items) > 0 && fs.Items[0].SpinsLeft != nil {
		return max(0, *fs.Items[0].SpinsLeft) + 1
	}
	if fs.Count > 0 {
		return fs.Count
	}
	return len(fs.Items)
}

// ItemRound 第 i 個免費遊戲的 Round，SpinID 以 parent 衍生
func (fs *FreeSpin) ItemRound(parent string, bet decimal.Decimal, i int) (Round, bool) {
	if fs == nil || i < 0 || i >= len(fs.Items) {
		return Round{}, false
	}
	it := &fs.Items[i]
	win := it.TotalWin
	return Round{
		SpinID:      fmt.Sprintf("%s/fs-%d", parent, i),
		Bet:         bet,
		Area:        it.Area,
		Tumbles:     it.Tumbles,
		DeclaredWin: &win,
		Multipliers: it.Multipliers,
	}, true
}
