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

// Package tumblelab 消除（tumble/cascade）老虎機的客戶端解析引擎。
//
// 伺服器決定結果，引擎只負責把伺服器回應套到邏輯盤面上：
//  1. dto.Normalize：把新舊格式的回應轉成唯一的 buf.SpinResult。
//  2. Orchestrator：Begin -> Next* -> Settle，逐步消除/掉落/補入並重新偵測盤面。
//  3. Autoplay：免費遊戲循環（扣次數、追加、硬停止、彙總）。
//
// Lab 是組裝入口：持有遊戲目錄（Catalog），依遊戲 ID 或名稱建立 Session。
// 設定檔來源一律以 fs.FS 注入，Lab 本身不綁定任何檔案路徑。
//
// 典型使用：
//
//	lab, _ := tumblelab.NewAuto(tumblelab.Configs(cfgFS))
//	s, _ := lab.NewSessionByName("sweet_tumble")
//	res, _ := s.Replay(ctx, sr, tumblelab.NopPacer{}, 0)
package tumblelab

import (
	"io"
	"io/fs"
	"log/slog"

	"github.com/zintix-labs/tumblelab/catalog"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/spec"
)

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Configs 把一或多個設定檔來源打包成 New() 需要的參數（go:embed 或 os.DirFS 皆可）
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 組裝器：一份 Catalog 加上建立 Session 時共用的選項。
//
// 兩個階段：
//   - 註冊階段：Register / RegisterAll，檢查重複與缺漏
//   - 執行階段：Freeze 之後才能建立 Session，目錄不再變動
type Lab struct {
	cat  *catalog.Catalog
	opts []Option
	log  *slog.Logger
	sum  []catalog.Summary
}

func New(cfgs []fs.FS, opts ...Option) (*Lab, error) {
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cat, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Lab{
		cat:  cat,
		opts: opts,
		log:  buildOptions(opts...).log,
	}, nil
}

// NewAuto 註冊所有設定檔並凍結，直接進入執行階段
func NewAuto(cfgs []fs.FS, opts ...Option) (*Lab, error) {
	lab, err := New(cfgs, opts...)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (l *Lab) Register(ents ...catalog.Entry) error {
	return l.cat.Register(ents...)
}

// RegisterAll 以設定檔內的 game_id / game_name 批次註冊。任一檔案失敗就整批失敗。
func (l *Lab) RegisterAll() error {
	if err := l.cat.RegisterAll(); err != nil {
		return err
	}
	l.log.Info("catalog registered", slog.Int("games", len(l.cat.IDs())))
	return nil
}

func (l *Lab) Freeze() {
	l.cat.Freeze()
}

func (l *Lab) EntryByID(id spec.GID) (catalog.Entry, bool) {
	return l.cat.GetByID(id)
}

func (l *Lab) EntryByName(name string) (catalog.Entry, bool) {
	return l.cat.GetByName(name)
}

func (l *Lab) IDs() []spec.GID {
	return l.cat.IDs()
}

func (l *Lab) All() []catalog.Entry {
	return l.cat.All()
}

func (l *Lab) Summary() ([]catalog.Summary, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if l.sum != nil {
		return l.sum, nil
	}
	sum, err := l.cat.Summaries()
	if err != nil {
		return nil, err
	}
	l.sum = sum
	return l.sum, nil
}

// GameSetting 凍結後回傳共用的唯讀設定
func (l *Lab) GameSetting(id spec.GID) (*spec.GameSetting, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return l.cat.GameSettingById(id)
}

// NewSession 依遊戲 ID 建立 Session；extra 覆寫 Lab 的選項
func (l *Lab) NewSession(id spec.GID, extra ...Option) (*Session, error) {
	gs, err := l.GameSetting(id)
	if err != nil {
		return nil, err
	}
	return NewSession(gs, l.merge(extra)...)
}

func (l *Lab) NewSessionByName(name string, extra ...Option) (*Session, error) {
	e, ok := l.cat.GetByName(name)
	if !ok {
		return nil, errs.Warnf("game %q does not exist in catalog", name)
	}
	return l.NewSession(e.GID, extra...)
}

// NewSessionByYAML 以外部設定建立 Session，GID 與名稱必須對應到目錄中同一款遊戲
func (l *Lab) NewSessionByYAML(raw []byte, extra ...Option) (*Session, error) {
	gs, err := spec.GetGameSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	return l.sessionFor(gs, extra)
}

func (l *Lab) NewSessionByJSON(raw []byte, extra ...Option) (*Session, error) {
	gs, err := spec.GetGameSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	return l.sessionFor(gs, extra)
}

// ============================================================
// ** 以下內部方法 **
// ============================================================

func (l *Lab) sessionFor(gs *spec.GameSetting, extra []Option) (*Session, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if err := l.validCfg(gs); err != nil {
		return nil, err
	}
	return NewSession(gs, l.merge(extra)...)
}

func (l *Lab) validCfg(cfg *spec.GameSetting) error {
	ent, ok := l.cat.GetByID(cfg.GameID)
	if !ok {
		return errs.NewWarn("gid not exist")
	}
	ent2, ok := l.cat.GetByName(cfg.GameName)
	if !ok {
		return errs.NewWarn("game name not exist")
	}
	if ent.GID != ent2.GID {
		return errs.NewWarn("game id is not matched game name")
	}
	return nil
}

func (l *Lab) merge(extra []Option) []Option {
	if len(extra) == 0 {
		return l.opts
	}
	out := make([]Option, 0, len(l.opts)+len(extra))
	out = append(out, l.opts...)
	return append(out, extra...)
}
