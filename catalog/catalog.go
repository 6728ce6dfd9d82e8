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

// Package catalog 遊戲目錄：GID / 名稱 -> 設定檔名，設定來源一律是扁平的 fs.FS。
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/spec"
)

var (
	ErrDupID   = errs.NewFatal("duplicate game id")
	ErrDupName = errs.NewFatal("duplicate game name")
)

type Entry struct {
	GID        spec.GID
	Name       string
	ConfigName string
}

// Summary 對外列出的遊戲資訊
type Summary struct {
	GID            spec.GID `json:"gid"`
	Name           string   `json:"name"`
	Columns        int      `json:"columns"`
	Rows           int      `json:"rows"`
	Scatter        int16    `json:"scatter"`
	ClusterMinSize int      `json:"cluster_min_size"`
	TriggerCount   int      `json:"trigger_count"`
	RetriggerCount int      `json:"retrigger_count"`
	Multipliers    int      `json:"multipliers"` // 倍數符號種類數
}

type Catalog struct {
	byID   map[spec.GID]Entry
	byName map[string]Entry
	ids    []spec.GID          // 用來穩定排序
	unique map[string]struct{} // 一組遊戲，檔名需唯一
	config *multiFS
	frozen bool

	// 凍結後設定不會再變，解析結果可以共用（唯讀）
	mu       sync.RWMutex
	settings map[spec.GID]*spec.GameSetting
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:     map[spec.GID]Entry{},
		byName:   map[string]Entry{},
		ids:      make([]spec.GID, 0, 16),
		unique:   map[string]struct{}{},
		config:   multFS,
		settings: map[spec.GID]*spec.GameSetting{},
	}, nil
}

func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenID := map[spec.GID]struct{}{}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.Name = strings.ToLower(strings.TrimSpace(meta.Name))
		if meta.Name == "" {
			return errs.NewFatal("game name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.byID[meta.GID]; ok {
			return ErrDupID
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		if _, ok := seenID[meta.GID]; ok {
			return ErrDupID
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		seenID[meta.GID] = struct{}{}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byID[meta.GID] = meta
		c.byName[meta.Name] = meta
		c.ids = append(c.ids, meta.GID)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return nil
}

// RegisterAll 掃描所有來源中的 .yaml/.yml/.json，以設定檔內的 game_id / game_name 註冊。
//
// 任何一個檔案解析失敗就整批失敗（不會只註冊一半）；依檔名排序處理，結果穩定。
func (c *Catalog) RegisterAll() error {
	names := make([]string, 0, len(c.config.index))
	for name := range c.config.index {
		names = append(names, name)
	}
	if len(names) == 0 {
		return errs.NewFatal("no config files found to register")
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		gs, err := c.parse(name)
		if err != nil {
			return errs.WrapWithExtra(err, "parse game setting failed", name)
		}
		entries = append(entries, Entry{GID: gs.GameID, Name: gs.GameName, ConfigName: name})
	}
	return c.Register(entries...)
}

func (c *Catalog) GetByID(id spec.GID) (Entry, bool) {
	m, ok := c.byID[id]
	return m, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

func (c *Catalog) IDs() []spec.GID {
	if len(c.ids) == 0 {
		return nil
	}
	return append([]spec.GID(nil), c.ids...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		if meta, ok := c.GetByID(id); ok {
			m = append(m, meta)
		}
	}
	return m
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// GameSettingById 讀取並初始化設定；凍結後的結果會快取，之後回傳同一個（唯讀）指標
func (c *Catalog) GameSettingById(id spec.GID) (*spec.GameSetting, error) {
	if c.frozen {
		c.mu.RLock()
		gs, ok := c.settings[id]
		c.mu.RUnlock()
		if ok {
			return gs, nil
		}
	}
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.Warnf("game id %d does not exist in catalog", id)
	}
	gs, err := c.parse(e.ConfigName)
	if err != nil {
		return nil, err
	}
	if c.frozen {
		c.mu.Lock()
		if prev, ok := c.settings[id]; ok {
			gs = prev
		} else {
			c.settings[id] = gs
		}
		c.mu.Unlock()
	}
	return gs, nil
}

// GameSettingByName 同 GameSettingById，以名稱（不分大小寫）查找
func (c *Catalog) GameSettingByName(name string) (*spec.GameSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.Warnf("game %q does not exist in catalog", name)
	}
	return c.GameSettingById(e.GID)
}

// Summaries 依 GID 排序
func (c *Catalog) Summaries() ([]Summary, error) {
	out := make([]Summary, 0, len(c.ids))
	for _, id := range c.ids {
		gs, err := c.GameSettingById(id)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{
			GID:            id,
			Name:           c.byID[id].Name,
			Columns:        gs.ScreenSetting.Columns,
			Rows:           gs.ScreenSetting.Rows,
			Scatter:        gs.SymbolSetting.Scatter,
			ClusterMinSize: gs.ClusterSetting.MinSize,
			TriggerCount:   gs.ScatterSetting.TriggerCount,
			RetriggerCount: gs.ScatterSetting.RetriggerCount,
			Multipliers:    len(gs.SymbolSetting.Multipliers),
		})
	}
	return out, nil
}

// ============================================================
// ** 以下內部方法 **
// ============================================================

func (c *Catalog) parse(configName string) (*spec.GameSetting, error) {
	src, ok := c.config.GetFS(configName)
	if !ok {
		return nil, errs.Warnf("config %s does not exist in catalog", configName)
	}
	raw, err := fs.ReadFile(src, configName)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return parseGameSettingByExt(configName, raw)
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	// 1) 不能包含路徑或類似字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename; no / \\ :)", file))
	}
	// 2) 必須以 .yaml/.yml/.json 結尾（大小寫不敏感）
	if !isConfigFile(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	// 3) 不能以 . 開頭
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

func isConfigFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func parseGameSettingByExt(filename string, raw []byte) (*spec.GameSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetGameSettingByYAML(raw)
	case ".json":
		return spec.GetGameSettingByJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported config format: %q", filename))
	}
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 16),
	}

	// 一次建好索引，同名設定跨來源直接失敗
	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 只允許根目錄
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			if strings.HasPrefix(path, ".") || !isConfigFile(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}
