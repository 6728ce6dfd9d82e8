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

package spec

import (
	"fmt"

	"github.com/zintix-labs/tumblelab/errs"
)

// MaxSymbol 符號值上限（含）。替代表以 uint64 bitmask 儲存，因此最多 64 種符號。
const MaxSymbol int16 = 63

type SymbolType uint8

const (
	SymbolTypeStandard SymbolType = iota
	SymbolTypeScatter
	SymbolTypeMultiplier
	SymbolTypeSubstitute
)

// SymbolSetting 符號表
//
//   - Scatter: 分散符號的值（本遊戲為 0）
//   - Multipliers: 倍數符號值 -> 倍數權重，例如 10 -> 2, 22 -> 100
//   - Substitutes: 替代符號值 -> 它可以替代的符號列表（顯式設定，不做隱性推導）
type SymbolSetting struct {
	Scatter     int16             `yaml:"scatter"      json:"scatter"`
	Multipliers map[int16]int     `yaml:"multipliers"  json:"multipliers"`
	Substitutes map[int16][]int16 `yaml:"substitutes"  json:"substitutes"`

	// 以下為 Init 後的查表結構，索引為符號值
	SymbolTypes    []SymbolType `yaml:"-" json:"-"`
	WeightLUT      []int        `yaml:"-" json:"-"`
	SubstituteMask []uint64     `yaml:"-" json:"-"`
	initFlag       bool
}

// Init 檢查設定並建立查表
func (ss *SymbolSetting) Init() error {
	if ss.initFlag {
		return nil
	}
	if !validSymbol(ss.Scatter) {
		return errs.NewFatal(fmt.Sprintf("scatter symbol out of range: %d", ss.Scatter))
	}
	n := int(MaxSymbol) + 1
	ss.SymbolTypes = make([]SymbolType, n)
	ss.WeightLUT = make([]int, n)
	ss.SubstituteMask = make([]uint64, n)

	ss.SymbolTypes[ss.Scatter] = SymbolTypeScatter

	for sym, w := range ss.Multipliers {
		if !validSymbol(sym) {
			return errs.NewFatal(fmt.Sprintf("multiplier symbol out of range: %d", sym))
		}
		if w <= 0 {
			return errs.NewFatal(fmt.Sprintf("multiplier symbol %d has non-positive weight %d", sym, w))
		}
		ss.WeightLUT[sym] = w
		ss.SymbolTypes[sym] = SymbolTypeMultiplier
	}

	for sub, targets := range ss.Substitutes {
		if !validSymbol(sub) {
			return errs.NewFatal(fmt.Sprintf("substitute symbol out of range: %d", sub))
		}
		if len(targets) == 0 {
			return errs.NewFatal(fmt.Sprintf("substitute symbol %d has no targets", sub))
		}
		var mask uint64
		for _, t := range targets {
			if !validSymbol(t) {
				return errs.NewFatal(fmt.Sprintf("substitute target out of range: %d", t))
			}
			if t == sub {
				return errs.NewFatal(fmt.Sprintf("symbol %d substitutes for itself", sub))
			}
			mask |= 1 << uint(t)
		}
		ss.SubstituteMask[sub] = mask
		// 倍數符號也可以兼任替代，類型以替代為準（不作為成群起點）
		ss.SymbolTypes[sub] = SymbolTypeSubstitute
	}

	ss.initFlag = true
	return nil
}

// TypeOf 回傳符號類型，範圍外（包含 Empty）一律視為非標準
func (ss *SymbolSetting) TypeOf(sym int16) (SymbolType, bool) {
	if !validSymbol(sym) || int(sym) >= len(ss.SymbolTypes) {
		return 0, false
	}
	return ss.SymbolTypes[sym], true
}

func (ss *SymbolSetting) MultiplierWeight(sym int16) int {
	if !validSymbol(sym) {
		return 0
	}
	if ss.WeightLUT != nil {
		return ss.WeightLUT[sym]
	}
	return ss.Multipliers[sym]
}

func (ss *SymbolSetting) IsSubstitute(sym int16) bool {
	if !validSymbol(sym) {
		return false
	}
	if ss.SubstituteMask != nil {
		return ss.SubstituteMask[sym] != 0
	}
	_, ok := ss.Substitutes[sym]
	return ok
}

func validSymbol(sym int16) bool {
	return sym >= 0 && sym <= MaxSymbol
}
