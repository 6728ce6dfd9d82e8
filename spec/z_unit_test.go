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

import "testing"

const yamlCfg = `
game_name: bonanza
game_id: 7
screen_setting:
  columns: 6
  rows: 5
symbol_setting:
  scatter: 0
  multipliers: {10: 2, 11: 3, 22: 100}
  substitutes:
    23: [1, 2, 3]
`

func TestGetGameSettingByYAMLDefaults(t *testing.T) {
	gs, err := GetGameSettingByYAML([]byte(yamlCfg))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gs.ScreenSetting.ScreenSize != 30 {
		t.Fatalf("screen size = %d", gs.ScreenSetting.ScreenSize)
	}
	if gs.ClusterSetting.MinSize != DefaultClusterMinSize {
		t.Fatalf("cluster min size = %d", gs.ClusterSetting.MinSize)
	}
	sc := gs.ScatterSetting
	if sc.TriggerCount != 4 || sc.RetriggerCount != 3 || sc.RetriggerSpins != 5 {
		t.Fatalf("unexpected scatter defaults: %+v", sc)
	}
	if gs.SymbolSetting.MultiplierWeight(22) != 100 || gs.SymbolSetting.MultiplierWeight(5) != 0 {
		t.Fatalf("unexpected multiplier weights")
	}
	if !gs.SymbolSetting.IsSubstitute(23) || gs.SymbolSetting.IsSubstitute(1) {
		t.Fatalf("unexpected substitute flags")
	}
	if typ, _ := gs.SymbolSetting.TypeOf(0); typ != SymbolTypeScatter {
		t.Fatalf("symbol 0 should be scatter, got %v", typ)
	}
}

func TestGetGameSettingRejectsUnknownField(t *testing.T) {
	if _, err := GetGameSettingByYAML([]byte(yamlCfg + "bogus: 1\n")); err == nil {
		t.Fatalf("expected error for unknown yaml field")
	}
	if _, err := GetGameSettingByJSON([]byte(`{"game_name":"x","screen_setting":{"columns":1,"rows":8},"oops":1}`)); err == nil {
		t.Fatalf("expected error for unknown json field")
	}
}

func TestGetGameSettingValidation(t *testing.T) {
	cases := map[string]string{
		"zero columns":        `{"game_name":"x","screen_setting":{"columns":0,"rows":5}}`,
		"scatter multiplier":  `{"game_name":"x","screen_setting":{"columns":6,"rows":5},"symbol_setting":{"scatter":0,"multipliers":{"0":2}}}`,
		"sub for scatter":     `{"game_name":"x","screen_setting":{"columns":6,"rows":5},"symbol_setting":{"substitutes":{"9":[0]}}}`,
		"cluster too big":     `{"game_name":"x","screen_setting":{"columns":2,"rows":2},"cluster_setting":{"min_size":8}}`,
		"symbol out of range": `{"game_name":"x","screen_setting":{"columns":6,"rows":5},"symbol_setting":{"multipliers":{"64":2}}}`,
		"empty name":          `{"screen_setting":{"columns":6,"rows":5}}`,
	}
	for name, raw := range cases {
		if _, err := GetGameSettingByJSON([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestScatterPayoutMultiple(t *testing.T) {
	ss := ScatterSetting{}
	if err := ss.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	cases := []struct{ count, want int }{
		{0, 0}, {3, 0}, {4, 3}, {5, 5}, {6, 100}, {9, 100},
	}
	for _, c := range cases {
		if got := ss.PayoutMultiple(c.count); got != c.want {
			t.Fatalf("PayoutMultiple(%d) = %d, want %d", c.count, got, c.want)
		}
	}
}
