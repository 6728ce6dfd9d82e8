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
	"strings"

	"github.com/zintix-labs/tumblelab/errs"
)

// GID 遊戲編號
type GID uint

// GameSetting 單一遊戲的完整設定。
//
// 盤面、符號表、成群規則、Scatter 規則都屬於產品設定，
// 演算法本身（消除/掉落/補入/偵測）不寫死任何數值。
type GameSetting struct {
	GameName       string         `yaml:"game_name"        json:"game_name"`
	GameID         GID            `yaml:"game_id"          json:"game_id"`
	ScreenSetting  ScreenSetting  `yaml:"screen_setting"   json:"screen_setting"`
	SymbolSetting  SymbolSetting  `yaml:"symbol_setting"   json:"symbol_setting"`
	ClusterSetting ClusterSetting `yaml:"cluster_setting"  json:"cluster_setting"`
	ScatterSetting ScatterSetting `yaml:"scatter_setting"  json:"scatter_setting"`
}

func (gs *GameSetting) init() error {
	gs.GameName = strings.TrimSpace(gs.GameName)
	if err := gs.ScreenSetting.Init(); err != nil {
		return errs.WrapWithExtra(err, "screen_setting init failed", gs.GameName)
	}
	if err := gs.SymbolSetting.Init(); err != nil {
		return errs.WrapWithExtra(err, "symbol_setting init failed", gs.GameName)
	}
	if err := gs.ClusterSetting.Init(gs.ScreenSetting.ScreenSize); err != nil {
		return errs.WrapWithExtra(err, "cluster_setting init failed", gs.GameName)
	}
	if err := gs.ScatterSetting.Init(); err != nil {
		return errs.WrapWithExtra(err, "scatter_setting init failed", gs.GameName)
	}
	return gs.valid()
}

func (gs *GameSetting) valid() error {
	if gs.GameName == "" {
		return errs.NewFatal("empty game_name")
	}
	ss := &gs.SymbolSetting
	if ss.IsSubstitute(ss.Scatter) || ss.MultiplierWeight(ss.Scatter) > 0 {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err: scatter symbol %d can not be a multiplier or substitute", gs.GameName, ss.Scatter))
	}
	for sub, targets := range ss.Substitutes {
		for _, t := range targets {
			if t == ss.Scatter {
				return errs.NewFatal(fmt.Sprintf("game_name: %s err: symbol %d substitutes for scatter", gs.GameName, sub))
			}
		}
	}
	return nil
}
