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

import "github.com/shopspring/decimal"

type EntryKind uint8

const (
	EntryTumble EntryKind = iota
	EntryScatter
)

func (k EntryKind) String() string {
	switch k {
	case EntryTumble:
		return "tumble"
	case EntryScatter:
		return "scatter"
	default:
		return ""
	}
}

// LedgerEntry 一筆入帳
//
//   - Index: tumble 的序號；scatter 固定為 -1
//   - Cumulative: 入帳後的累計
type LedgerEntry struct {
	Kind       EntryKind       `json:"kind"`
	Index      int             `json:"index"`
	Win        decimal.Decimal `json:"win"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// Ledger 單次 Spin 的贏分帳本：每個 tumble 的贏分依序入帳，最後可能加上 Scatter 基本獎金。
//
// 只增不減；已入帳的金額不會因為後續的對帳錯誤被撤回。
type Ledger struct {
	entries []LedgerEntry
	tumble  decimal.Decimal
	scatter decimal.Decimal
}

func NewLedger() *Ledger {
	return &Ledger{entries: make([]LedgerEntry, 0, 16)}
}

// AddTumble 記錄第 idx 個 tumble 的贏分，回傳目前累計
func (l *Ledger) AddTumble(idx int, win decimal.Decimal) decimal.Decimal {
	l.tumble = l.tumble.Add(win)
	return l.append(EntryTumble, idx, win)
}

// AddScatter 記錄 Scatter 基本獎金，回傳目前累計
func (l *Ledger) AddScatter(payout decimal.Decimal) decimal.Decimal {
	l.scatter = l.scatter.Add(payout)
	return l.append(EntryScatter, -1, payout)
}

func (l *Ledger) Total() decimal.Decimal { return l.tumble.Add(l.scatter) }

func (l *Ledger) TumbleWin() decimal.Decimal { return l.tumble }

func (l *Ledger) ScatterWin() decimal.Decimal { return l.scatter }

// Entries 回傳複本
func (l *Ledger) Entries() []LedgerEntry {
	return append([]LedgerEntry(nil), l.entries...)
}

func (l *Ledger) Len() int { return len(l.entries) }

func (l *Ledger) Reset() {
	l.entries = l.entries[:0]
	l.tumble = decimal.Zero
	l.scatter = decimal.Zero
}

func (l *Ledger) append(k EntryKind, idx int, win decimal.Decimal) decimal.Decimal {
	cum := l.Total()
	l.entries = append(l.entries, LedgerEntry{Kind: k, Index: idx, Win: win, Cumulative: cum})
	return cum
}
