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

package catalog

import (
	"testing"
	"testing/fstest"
)

const gameA = `game_name: Alpha
game_id: 7
screen_setting: {columns: 6, rows: 5}
symbol_setting: {scatter: 0}
`

const gameB = `{"game_name": "beta", "game_id": 3, "screen_setting": {"columns": 7, "rows": 7}, "symbol_setting": {"scatter": 0}}`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"alpha.yaml":  {Data: []byte(gameA)},
		"beta.json":   {Data: []byte(gameB)},
		"README.md":   {Data: []byte("ignored")},
		".hidden.yml": {Data: []byte("ignored")},
	}
}

func TestRegisterAllSortsAndCaches(t *testing.T) {
	c, err := New(testFS())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.RegisterAll(); err != nil {
		t.Fatalf("register all: %v", err)
	}
	ids := c.IDs()
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 7 {
		t.Fatalf("ids should be sorted: %v", ids)
	}
	if e, ok := c.GetByName(" ALPHA "); !ok || e.ConfigName != "alpha.yaml" {
		t.Fatalf("lookup by name failed: %+v %v", e, ok)
	}

	c.Freeze()
	gs1, err := c.GameSettingById(7)
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	gs2, _ := c.GameSettingByName("alpha")
	if gs1 != gs2 {
		t.Fatalf("frozen catalog should share the parsed setting")
	}
	if _, err := c.GameSettingById(99); err == nil {
		t.Fatalf("unknown id should fail")
	}

	sum, err := c.Summaries()
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if sum[0].Name != "beta" || sum[0].Columns != 7 || sum[1].Rows != 5 {
		t.Fatalf("unexpected summaries: %+v", sum)
	}
}

func TestRegisterRejects(t *testing.T) {
	c, err := New(testFS())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cases := map[string][]Entry{
		"missing file": {{GID: 1, Name: "x", ConfigName: "nope.yaml"}},
		"path":         {{GID: 1, Name: "x", ConfigName: "sub/alpha.yaml"}},
		"bad ext":      {{GID: 1, Name: "x", ConfigName: "README.md"}},
		"empty name":   {{GID: 1, Name: " ", ConfigName: "alpha.yaml"}},
		"dup id in batch": {
			{GID: 1, Name: "x", ConfigName: "alpha.yaml"},
			{GID: 1, Name: "y", ConfigName: "beta.json"},
		},
	}
	for name, ents := range cases {
		if err := c.Register(ents...); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if len(c.IDs()) != 0 {
		t.Fatalf("failed batches must not register anything")
	}

	if err := c.Register(Entry{GID: 1, Name: "x", ConfigName: "alpha.yaml"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := c.Register(Entry{GID: 1, Name: "z", ConfigName: "beta.json"}); err != ErrDupID {
		t.Fatalf("want ErrDupID, got %v", err)
	}
	c.Freeze()
	if err := c.Register(Entry{GID: 2, Name: "b", ConfigName: "beta.json"}); err == nil {
		t.Fatalf("frozen catalog should refuse registration")
	}
}

func TestMultiFS(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatalf("no sources should fail")
	}
	dup := fstest.MapFS{"alpha.yaml": {Data: []byte(gameA)}}
	if _, err := New(testFS(), dup); err == nil {
		t.Fatalf("duplicate config across sources should fail")
	}
	nested := fstest.MapFS{"dir/alpha.yaml": {Data: []byte(gameA)}}
	if _, err := New(nested); err == nil {
		t.Fatalf("nested config FS should fail")
	}
	bad := fstest.MapFS{"broken.yaml": {Data: []byte("game_name: x\nunknown_key: 1\n")}}
	c, err := New(bad)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.RegisterAll(); err == nil {
		t.Fatalf("unknown yaml field should fail registration")
	}
}
