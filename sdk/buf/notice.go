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

// NoticeKind 對外通知種類。核心只產生通知值，不持有任何事件匯流排。
type NoticeKind uint8

const (
	NoticeReelsStop NoticeKind = iota
	NoticeTumbleProgress
	NoticeWinSequenceStop
	NoticeTumbleSequenceDone
	NoticeMultiplierArrived
	NoticeMultipliersTriggered
	NoticeBonusTrigger
	NoticeScatterRetrigger
	NoticeRetriggerComplete
	NoticeFreeRoundCount
	NoticeBonusSummary
)

var noticeNames = [...]string{
	NoticeReelsStop:            "spin-reels-stop",
	NoticeTumbleProgress:       "tumble-win-progress",
	NoticeWinSequenceStop:      "win-sequence-stop",
	NoticeTumbleSequenceDone:   "tumble-sequence-done",
	NoticeMultiplierArrived:    "multiplier-arrived",
	NoticeMultipliersTriggered: "multipliers-triggered",
	NoticeBonusTrigger:         "bonus-trigger",
	NoticeScatterRetrigger:     "scatter-retrigger",
	NoticeRetriggerComplete:    "scatter-retrigger-animation-complete",
	NoticeFreeRoundCount:       "free-round-count-update",
	NoticeBonusSummary:         "bonus-summary",
}

func (k NoticeKind) String() string {
	if int(k) < len(noticeNames) {
		return noticeNames[k]
	}
	return "unknown"
}

// Notice 單一通知
//
//   - Step: tumble 序號，與步驟無關時為 -1
//   - Amount: 本次金額（步驟贏分、Scatter 獎金）
//   - Total: 當下的累計
//   - Weight: 倍數權重（單一或總和）
//   - Count: 數量（Scatter 數、剩餘次數、追加次數）
type Notice struct {
	Kind   NoticeKind
	SpinID string
	Step   int
	Amount decimal.Decimal
	Total  decimal.Decimal
	Weight int
	Count  int
	Cell   *grid.Cell
}
