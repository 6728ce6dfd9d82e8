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
	"sort"

	"github.com/zintix-labs/tumblelab/errs"
)

const (
	DefaultClusterMinSize = 8
	DefaultTriggerCount   = 4
	DefaultRetriggerCount = 3
	DefaultRetriggerSpins = 5
)

// DefaultScatterPayouts Scatter 數量 -> 押注倍數。6 以上沿用 6 的倍數。
func DefaultScatterPayouts() map[int]int {
	return map[int]int{4: 3, 5: 5, 6: 100}
}

// ClusterSetting 成群規則：4 方向相連、同符號數量 >= MinSize 才算贏
type ClusterSetting struct {
	MinSize int `yaml:"min_size" json:"min_size"`
}

func (cs *ClusterSetting) Init(screenSize int) error {
	if cs.MinSize == 0 {
		cs.MinSize = DefaultClusterMinSize
	}
	if cs.MinSize < 1 || cs.MinSize > screenSize {
		return errs.NewFatal(fmt.Sprintf("cluster min_size %d out of range [1,%d]", cs.MinSize, screenSize))
	}
	return nil
}

// ScatterSetting Scatter 觸發/再觸發規則
//
//   - 非免費遊戲：數量 >= TriggerCount 進入免費遊戲，並依 Payouts 派發押注倍數
//   - 免費遊戲中：數量 >= RetriggerCount 追加 RetriggerSpins 次，不派發基本獎金
type ScatterSetting struct {
	TriggerCount   int         `yaml:"trigger_count"    json:"trigger_count"`
	RetriggerCount int         `yaml:"retrigger_count"  json:"retrigger_count"`
	RetriggerSpins int         `yaml:"retrigger_spins"  json:"retrigger_spins"`
	Payouts        map[int]int `yaml:"payouts"          json:"payouts"`

	payoutKeys []int
	initFlag   bool
}

func (ss *ScatterSetting) Init() error {
	if ss.initFlag {
		return nil
	}
	if ss.TriggerCount == 0 {
		ss.TriggerCount = DefaultTriggerCount
	}
	if ss.RetriggerCount == 0 {
		ss.RetriggerCount = DefaultRetriggerCount
	}
	if ss.RetriggerSpins == 0 {
		ss.RetriggerSpins = DefaultRetriggerSpins
	}
	if len(ss.Payouts) == 0 {
		ss.Payouts = DefaultScatterPayouts()
	}
	if ss.TriggerCount < 1 || ss.RetriggerCount < 1 || ss.RetriggerSpins < 1 {
		return errs.NewFatal(fmt.Sprintf("invalid scatter thresholds: trigger=%d retrigger=%d spins=%d",
			ss.TriggerCount, ss.RetriggerCount, ss.RetriggerSpins))
	}
	ss.payoutKeys = ss.payoutKeys[:0]
	for k, v := range ss.Payouts {
		if k < 1 || v < 0 {
			return errs.NewFatal(fmt.Sprintf("invalid scatter payout entry %d:%d", k, v))
		}
		ss.payoutKeys = append(ss.payoutKeys, k)
	}
	sort.Ints(ss.payoutKeys)
	if ss.payoutKeys[0] > ss.TriggerCount {
		return errs.NewFatal(fmt.Sprintf("scatter payouts start at %d but trigger_count is %d", ss.payoutKeys[0], ss.TriggerCount))
	}
	ss.initFlag = true
	return nil
}

// PayoutMultiple 回傳 count 個 Scatter 的押注倍數：取 <= count 的最大設定鍵值。
// 低於所有鍵值時回傳 0。
func (ss *ScatterSetting) PayoutMultiple(count int) int {
	keys := ss.payoutKeys
	if len(keys) == 0 {
		for k := range ss.Payouts {
			keys = append(keys, k)
		}
		sort.Ints(keys)
	}
	i := sort.SearchInts(keys, count+1) - 1
	if i < 0 {
		return 0
	}
	return ss.Payouts[keys[i]]
}
