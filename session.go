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

package tumblelab

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/dto"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/buf"
	"github.com/zintix-labs/tumblelab/sdk/grid"
	"github.com/zintix-labs/tumblelab/spec"
)

type options struct {
	log    *slog.Logger
	policy grid.Policy
}

// Option Lab 與 Session 共用的選項
type Option func(*options)

// WithLogger nil 等同靜音
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithGridPolicy 盤面越界存取的處理方式（預設 Clamp）
func WithGridPolicy(p grid.Policy) Option {
	return func(o *options) { o.policy = p }
}

func buildOptions(opts ...Option) options {
	o := options{log: silentLogger, policy: grid.Clamp}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// Session 單一遊戲的解析入口：持有一個 Orchestrator（含偵測用的暫存）。
//
// 不可被多個 goroutine 同時使用；HTTP 服務每個請求建立自己的 Session。
type Session struct {
	gs  *spec.GameSetting
	orc *Orchestrator
	log *slog.Logger
}

func NewSession(gs *spec.GameSetting, opts ...Option) (*Session, error) {
	if gs == nil {
		return nil, errs.NewFatal("game setting required")
	}
	o := buildOptions(opts...)
	log := o.log.With(slog.String("game", gs.GameName))
	orc, err := newOrchestrator(gs, log, o.policy)
	if err != nil {
		return nil, err
	}
	return &Session{gs: gs, orc: orc, log: log}, nil
}

func (s *Session) GameSetting() *spec.GameSetting { return s.gs }

// Orchestrator 逐步操作用（Begin / Next / Settle）
func (s *Session) Orchestrator() *Orchestrator { return s.orc }

// Resolve 解析一局
func (s *Session) Resolve(round buf.Round, inBonus bool) (*buf.Outcome, error) {
	return s.orc.Resolve(round, inBonus)
}

// ResolveSpin 解析回應的一般遊戲部分
func (s *Session) ResolveSpin(sr *buf.SpinResult, inBonus bool) (*buf.Outcome, error) {
	if sr == nil {
		return nil, errs.Malformedf("spin result is nil")
	}
	return s.orc.Resolve(sr.BaseRound(), inBonus)
}

// ResolveResponse 正規化原始回應後解析
func (s *Session) ResolveResponse(raw []byte, inBonus bool) (*buf.SpinResult, *buf.Outcome, error) {
	sr, err := dto.Normalize(raw)
	if err != nil {
		s.log.Warn("malformed spin response", slog.Any("err", err))
		return nil, nil, err
	}
	o, err := s.ResolveSpin(sr, inBonus)
	if err != nil {
		return sr, nil, err
	}
	return sr, o, nil
}

// ReplayResult 一份完整回應（一般遊戲 + 免費遊戲）的重播結果
type ReplayResult struct {
	Base      *buf.Outcome
	FreeSpins []*buf.Outcome
	Bonus     *BonusState      // 沒有免費遊戲時為 nil
	Summary   *AutoplaySummary // 同上
	Notices   []buf.Notice     // 依發生順序
	TotalWin  decimal.Decimal
}

// Replay 解析一般遊戲，若回應帶有免費遊戲則以 ItemSource 跑完自動循環。
//
// maxFree > 0 時最多播放 maxFree 局，超過視為硬停止。
// ctx 取消或資料格式錯誤時回傳已完成的部分與錯誤。
func (s *Session) Replay(ctx context.Context, sr *buf.SpinResult, pacer Pacer, maxFree int) (*ReplayResult, error) {
	base, err := s.ResolveSpin(sr, false)
	if err != nil {
		return nil, err
	}
	res := &ReplayResult{
		Base:     base,
		Notices:  append([]buf.Notice(nil), base.Notices...),
		TotalWin: base.TotalWin,
	}

	initial := sr.FreeSpin.InitialSpins()
	if !sr.HasFreeSpin() || initial <= 0 {
		if base.EnterBonus {
			s.log.Warn("bonus triggered but response carries no free spins", slog.String("spin_id", sr.SpinID))
		}
		return res, nil
	}
	if !base.EnterBonus {
		s.log.Debug("response carries free spins without a base trigger",
			slog.String("spin_id", sr.SpinID),
			slog.Int("scatters", base.Scatters),
		)
	}

	ap := NewAutoplay(s.log)
	ap.OnSettled(func(o *buf.Outcome) {
		res.FreeSpins = append(res.FreeSpins, o)
		res.Notices = appendSpinNotices(res.Notices, ap.Drain(), o.Notices)
	})
	if err := ap.Enter(initial); err != nil {
		return res, err
	}
	runErr := ap.Run(ctx, NewItemSource(sr, maxFree), s, pacer)
	res.Notices = append(res.Notices, ap.Drain()...)

	bs := ap.Snapshot()
	sum := ap.Summary()
	res.Bonus = &bs
	res.Summary = &sum
	res.TotalWin = res.TotalWin.Add(sum.CumulativeWin)
	return res, runErr
}

// appendSpinNotices 循環通知在前，這一局的通知其次，bonus-summary 最後
func appendSpinNotices(dst, loop, spin []buf.Notice) []buf.Notice {
	var tail []buf.Notice
	for _, n := range loop {
		if n.Kind == buf.NoticeBonusSummary {
			tail = append(tail, n)
			continue
		}
		dst = append(dst, n)
	}
	dst = append(dst, spin...)
	return append(dst, tail...)
}
