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

package gen_test

import (
	"bufio"
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	tumblelab "github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/demo/demo_configs"
	"github.com/zintix-labs/tumblelab/dto"
	"github.com/zintix-labs/tumblelab/sdk/gen"
	"github.com/zintix-labs/tumblelab/spec"
)

func newLab(t *testing.T) *tumblelab.Lab {
	t.Helper()
	lab, err := tumblelab.NewAuto(tumblelab.Configs(demo_configs.FS))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	return lab
}

func setting(t *testing.T, lab *tumblelab.Lab, id spec.GID) *spec.GameSetting {
	t.Helper()
	gs, err := lab.GameSetting(id)
	if err != nil {
		t.Fatalf("game setting: %v", err)
	}
	return gs
}

// richConfig 三個符號讓消除與觸發都很常見
func richConfig() gen.Config {
	cfg := gen.DefaultConfig()
	cfg.Symbols = []int16{1, 2, 3}
	cfg.FreeSpins = 3
	cfg.MultiplierWeight = 0
	return cfg
}

func TestDeterministic(t *testing.T) {
	lab := newLab(t)
	gs := setting(t, lab, 1)
	a, err := gen.NewResponseGenerator(gs, 7, richConfig())
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	b, _ := gen.NewResponseGenerator(gs, 7, richConfig())
	for i := 0; i < 20; i++ {
		ra, err := a.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		rb, _ := b.Next()
		ja, _ := dto.EncodeResponse(ra)
		jb, _ := dto.EncodeResponse(rb)
		if !bytes.Equal(ja, jb) {
			t.Fatalf("response %d differs for the same seed", i)
		}
	}
}

// 合成回應經過編碼、正規化、重播後必須完整對帳，贏分等於各步驟加總加上 Scatter 獎金
func TestReplayReconciles(t *testing.T) {
	for _, id := range []spec.GID{1, 2} {
		lab := newLab(t)
		gs := setting(t, lab, id)
		g, err := gen.NewResponseGenerator(gs, 11, richConfig())
		if err != nil {
			t.Fatalf("new generator: %v", err)
		}
		sess, err := lab.NewSession(id)
		if err != nil {
			t.Fatalf("session: %v", err)
		}

		tumbles, triggers := 0, 0
		for i := 0; i < 100; i++ {
			sr, err := g.Next()
			if err != nil {
				t.Fatalf("next: %v", err)
			}
			raw, err := dto.EncodeResponse(sr)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			back, err := dto.Normalize(raw)
			if err != nil {
				t.Fatalf("normalize %s: %v", raw, err)
			}
			if back.SpinID != sr.SpinID || len(back.Tumbles) != len(sr.Tumbles) {
				t.Fatalf("round trip changed the response: %s", sr.SpinID)
			}

			res, err := sess.Replay(context.Background(), back, tumblelab.NopPacer{}, 0)
			if err != nil {
				t.Fatalf("replay %s: %v", sr.SpinID, err)
			}
			if !res.Base.Reconciled() {
				t.Fatalf("%s did not reconcile: %v", sr.SpinID, res.Base.Warnings)
			}
			want := decimal.Zero
			for _, st := range sr.Tumbles {
				want = want.Add(st.Win)
			}
			if !res.Base.TumbleWin.Equal(want) {
				t.Fatalf("%s tumble win %s want %s", sr.SpinID, res.Base.TumbleWin, want)
			}
			if !res.Base.TotalWin.Equal(want.Add(res.Base.ScatterPayout)) {
				t.Fatalf("%s total win %s", sr.SpinID, res.Base.TotalWin)
			}
			tumbles += len(sr.Tumbles)

			if sr.FreeSpin != nil {
				triggers++
				if !res.Base.EnterBonus {
					t.Fatalf("%s carries free spins without a trigger", sr.SpinID)
				}
				if len(res.FreeSpins) != sr.FreeSpin.Count {
					t.Fatalf("%s played %d free spins, want %d", sr.SpinID, len(res.FreeSpins), sr.FreeSpin.Count)
				}
				for _, o := range res.FreeSpins {
					if !o.Reconciled() {
						t.Fatalf("%s free spin did not reconcile: %v", o.SpinID, o.Warnings)
					}
					if o.DeclaredWin == nil || !o.DeclaredWin.Equal(o.TotalWin) {
						t.Fatalf("%s declared win differs without multipliers", o.SpinID)
					}
				}
			}
		}
		if tumbles == 0 || triggers == 0 {
			t.Fatalf("game %d: expected tumbles and triggers, got %d / %d", id, tumbles, triggers)
		}
	}
}

func TestMultipliersInDeclaredWin(t *testing.T) {
	lab := newLab(t)
	cfg := richConfig()
	cfg.MultiplierWeight = 2
	g, err := gen.NewResponseGenerator(setting(t, lab, 1), 3, cfg)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	seen := false
	for i := 0; i < 200 && !seen; i++ {
		sr, err := g.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if sr.FreeSpin == nil {
			continue
		}
		for _, it := range sr.FreeSpin.Items {
			if len(it.Multipliers) > 0 {
				seen = true
			}
		}
	}
	if !seen {
		t.Fatalf("expected multipliers in free spin items")
	}
}

func TestConfigErrors(t *testing.T) {
	lab := newLab(t)
	gs := setting(t, lab, 1)
	bad := []gen.Config{
		{Symbols: []int16{0}},
		{Symbols: []int16{1, 1}},
		{Symbols: []int16{1, 2}, Weights: []int{1}},
		{Symbols: []int16{1}, FreeSpins: -1},
	}
	for i, cfg := range bad {
		if _, err := gen.NewResponseGenerator(gs, 1, cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
	if _, err := gen.NewResponseGenerator(nil, 1, gen.DefaultConfig()); err == nil {
		t.Fatalf("expected error for nil setting")
	}
}

func TestWriteLog(t *testing.T) {
	lab := newLab(t)
	g, err := gen.NewResponseGenerator(setting(t, lab, 1), 5, richConfig())
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	var out bytes.Buffer
	lines := 0
	if err := gen.WriteLog(context.Background(), &out, g, 25, func() { lines++ }); err != nil {
		t.Fatalf("write log: %v", err)
	}
	if lines != 25 {
		t.Fatalf("onLine called %d times", lines)
	}
	sc := bufio.NewScanner(&out)
	sc.Buffer(make([]byte, 0, 64<<10), 4<<20)
	n := 0
	for sc.Scan() {
		if _, err := dto.Normalize(sc.Bytes()); err != nil {
			t.Fatalf("line %d: %v", n, err)
		}
		n++
	}
	if n != 25 {
		t.Fatalf("got %d lines", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := gen.WriteLog(ctx, &out, g, 5, nil); err == nil {
		t.Fatalf("expected context error")
	}
}
