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
	"errors"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/buf"
)

// AutoplayState 免費遊戲自動循環的狀態
type AutoplayState uint8

const (
	AutoplayInactive AutoplayState = iota
	AutoplayActive
	AutoplayRequesting
	AutoplayWaiting // 等待這一局解析完成
)

var autoplayNames = [...]string{
	AutoplayInactive:   "inactive",
	AutoplayActive:     "active",
	AutoplayRequesting: "requesting",
	AutoplayWaiting:    "waiting_for_resolution",
}

func (s AutoplayState) String() string {
	if int(s) < len(autoplayNames) {
		return autoplayNames[s]
	}
	return "unknown"
}

// BonusState 免費遊戲狀態快照
//
//   - SpinsRemaining: 每一局實際開始時扣一次（同一個 spin ID 只扣一次）
//   - PendingRetrigger: 追加尚未入帳；有追加待處理時循環不會結束
type BonusState struct {
	InBonus          bool            `json:"in_bonus"`
	SpinsRemaining   int             `json:"spins_remaining"`
	PendingRetrigger bool            `json:"pending_retrigger"`
	RetriggerSpins   int             `json:"retrigger_spins"`
	CumulativeWin    decimal.Decimal `json:"cumulative_win"`
}

// AutoplaySummary 循環結束時的彙總
type AutoplaySummary struct {
	Played        int             `json:"played"`
	Retriggers    int             `json:"retriggers"`
	CumulativeWin decimal.Decimal `json:"cumulative_win"`
	Stopped       bool            `json:"stopped"` // 由 Cancel（硬停止）結束
}

// Autoplay 免費遊戲循環。
//
// 所有狀態變更都經過方法並由 mutex 保護；HTTP handler 或 Pacer 可以同時讀 Snapshot。
// 通知累積在內部，由 Drain 取走。
type Autoplay struct {
	mu sync.Mutex

	state   AutoplayState
	bonus   BonusState
	current string
	started map[string]struct{}
	settled map[string]struct{}

	played     int
	retriggers int
	stopped    bool

	notices  []buf.Notice
	observer func(*buf.Outcome)
	log      *slog.Logger
}

func NewAutoplay(log *slog.Logger) *Autoplay {
	if log == nil {
		log = silentLogger
	}
	return &Autoplay{
		started: map[string]struct{}{},
		settled: map[string]struct{}{},
		log:     log,
	}
}

// OnSettled 每一局 Settle 之後呼叫 fn（在 Run 內，Pacer 之前）
func (a *Autoplay) OnSettled(fn func(*buf.Outcome)) {
	a.mu.Lock()
	a.observer = fn
	a.mu.Unlock()
}

// Enter Inactive -> Active
func (a *Autoplay) Enter(initial int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != AutoplayInactive {
		return errs.Warnf("autoplay already %s", a.state)
	}
	if initial <= 0 {
		return errs.Warnf("no free spins to play: %d", initial)
	}
	a.bonus = BonusState{InBonus: true, SpinsRemaining: initial, CumulativeWin: decimal.Zero}
	a.current = ""
	clear(a.started)
	clear(a.settled)
	a.played, a.retriggers, a.stopped = 0, 0, false
	a.state = AutoplayActive
	a.log.Info("autoplay enter", slog.Int("spins", initial))
	a.emitCount()
	return nil
}

// Request Active -> Requesting。
//
// 剩餘為 0 但有追加待處理時，必須先 ConsumeRetrigger。
func (a *Autoplay) Request() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != AutoplayActive {
		return errs.Warnf("request in state %s", a.state)
	}
	if a.bonus.SpinsRemaining <= 0 {
		return errs.Warnf("no spins remaining (pending retrigger=%v)", a.bonus.PendingRetrigger)
	}
	a.state = AutoplayRequesting
	return nil
}

// BeginSpin Requesting -> WaitingForResolution，剩餘次數扣 1。
//
// 同一個 spinID 重複呼叫回傳 false 且不再扣次數。
func (a *Autoplay) BeginSpin(spinID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.started[spinID]; ok {
		return false, nil
	}
	if a.state != AutoplayRequesting {
		return false, errs.Warnf("begin spin %s in state %s", spinID, a.state)
	}
	a.started[spinID] = struct{}{}
	a.current = spinID
	a.bonus.SpinsRemaining--
	a.played++
	a.state = AutoplayWaiting
	a.emitCount()
	return true, nil
}

// Settle WaitingForResolution -> Active（或 Inactive）。
//
// 同一個 spinID 重複 Settle 會被忽略。
func (a *Autoplay) Settle(spinID string, o *buf.Outcome) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.settled[spinID]; ok {
		return nil
	}
	if a.state != AutoplayWaiting || spinID != a.current {
		return errs.Warnf("settle %s in state %s (current=%s)", spinID, a.state, a.current)
	}
	if o == nil {
		return errs.NewFatal("settle with nil outcome")
	}
	a.settled[spinID] = struct{}{}
	a.bonus.CumulativeWin = a.bonus.CumulativeWin.Add(o.TotalWin)
	// 硬停止後不再接受追加
	if o.PendingRetrigger && !a.stopped {
		a.bonus.PendingRetrigger = true
		a.bonus.RetriggerSpins += o.RetriggerSpins
	}
	a.state = AutoplayActive
	a.maybeFinish()
	return nil
}

// ConsumeRetrigger 追加次數入帳；沒有待處理的追加時回傳 false
func (a *Autoplay) ConsumeRetrigger() (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.bonus.PendingRetrigger {
		return 0, false
	}
	spins := a.bonus.RetriggerSpins
	a.bonus.SpinsRemaining += spins
	a.bonus.PendingRetrigger = false
	a.bonus.RetriggerSpins = 0
	a.retriggers++
	a.notify(buf.Notice{Kind: buf.NoticeRetriggerComplete, Step: -1, Count: spins})
	a.emitCount()
	a.log.Info("autoplay retrigger", slog.Int("spins", spins), slog.Int("remaining", a.bonus.SpinsRemaining))
	a.maybeFinish()
	return spins, true
}

// Cancel 硬停止：剩餘歸零、丟棄待處理的追加。
//
// 已經 BeginSpin 的那一局不會被丟棄：等它 Settle 入帳後才結束並送出 bonus-summary。
// 其餘狀態直接結束。
func (a *Autoplay) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == AutoplayInactive || a.stopped {
		return
	}
	changed := a.bonus.SpinsRemaining != 0
	a.bonus.SpinsRemaining = 0
	a.bonus.PendingRetrigger = false
	a.bonus.RetriggerSpins = 0
	a.stopped = true
	if changed {
		a.emitCount()
	}
	a.log.Info("autoplay hard stop", slog.Int("played", a.played), slog.Bool("in_flight", a.state == AutoplayWaiting))
	if a.state == AutoplayWaiting {
		return
	}
	a.finish()
}

// Stopped 是否已收到硬停止
func (a *Autoplay) Stopped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopped
}

func (a *Autoplay) Done() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == AutoplayInactive
}

func (a *Autoplay) State() AutoplayState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Autoplay) Snapshot() BonusState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bonus
}

func (a *Autoplay) Summary() AutoplaySummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AutoplaySummary{
		Played:        a.played,
		Retriggers:    a.retriggers,
		CumulativeWin: a.bonus.CumulativeWin,
		Stopped:       a.stopped,
	}
}

// Drain 取走並清空累積的通知
func (a *Autoplay) Drain() []buf.Notice {
	a.mu.Lock()
	defer a.mu.Unlock()
	ns := a.notices
	a.notices = nil
	return ns
}

// Run 驅動 Request -> Next -> BeginSpin -> Resolve -> Settle -> Pace 循環直到 Inactive。
//
//   - ctx 只在兩局之間檢查
//   - 來源回傳 AutoplayHardStop 時 Cancel 並正常結束；其他地方呼叫 Cancel 也一樣
//   - MalformedResponse 與其他錯誤直接回傳，循環停在 Active，可以再 Run 或 Cancel
func (a *Autoplay) Run(ctx context.Context, src SpinSource, s *Session, p Pacer) error {
	if src == nil || s == nil {
		return errs.NewFatal("autoplay run requires a spin source and a session")
	}
	if p == nil {
		p = NopPacer{}
	}
	for !a.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		// 剩餘為 0 但有追加：先入帳再請求
		if a.Snapshot().SpinsRemaining <= 0 {
			if _, ok := a.ConsumeRetrigger(); !ok {
				return errs.Fatalf("autoplay stuck: active with no spins and no retrigger")
			}
			continue
		}
		if err := a.Request(); err != nil {
			return a.haltErr(err)
		}
		round, err := src.Next(ctx)
		if err != nil {
			a.release()
			if errors.Is(err, errs.ErrAutoplayHardStop) {
				a.Cancel()
				return nil
			}
			return err
		}
		started, err := a.BeginSpin(round.SpinID)
		if err != nil {
			a.release()
			return a.haltErr(err)
		}
		if !started {
			// 來源重送了同一局
			a.release()
			a.log.Warn("autoplay duplicate spin ignored", slog.String("spin_id", round.SpinID))
			continue
		}
		o, err := s.Resolve(round, true)
		if err != nil {
			a.release()
			return err
		}
		if err := a.Settle(round.SpinID, o); err != nil {
			return a.haltErr(err)
		}
		a.mu.Lock()
		obs := a.observer
		a.mu.Unlock()
		if obs != nil {
			obs(o)
		}
		if err := p.Pace(ctx, o); err != nil {
			return err
		}
		// 追加動畫結束後入帳
		a.ConsumeRetrigger()
	}
	return nil
}

// haltErr 硬停止造成的狀態錯誤屬於正常結束
func (a *Autoplay) haltErr(err error) error {
	if a.Stopped() && a.Done() {
		return nil
	}
	return err
}

// ============================================================
// ** 以下內部方法（呼叫端需持有 mu） **
// ============================================================

func (a *Autoplay) maybeFinish() {
	if a.bonus.SpinsRemaining <= 0 && !a.bonus.PendingRetrigger {
		a.finish()
	}
}

func (a *Autoplay) finish() {
	a.state = AutoplayInactive
	a.bonus.InBonus = false
	a.notify(buf.Notice{Kind: buf.NoticeBonusSummary, Step: -1, Total: a.bonus.CumulativeWin, Count: a.played})
	a.log.Info("autoplay finished",
		slog.Int("played", a.played),
		slog.Int("retriggers", a.retriggers),
		slog.String("cumulative_win", a.bonus.CumulativeWin.String()),
		slog.Bool("stopped", a.stopped),
	)
}

func (a *Autoplay) emitCount() {
	a.notify(buf.Notice{Kind: buf.NoticeFreeRoundCount, Step: -1, Count: a.bonus.SpinsRemaining})
}

func (a *Autoplay) notify(n buf.Notice) {
	n.SpinID = a.current
	a.notices = append(a.notices, n)
}

// release 中斷的請求退回 Active（已扣的次數不退）
func (a *Autoplay) release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == AutoplayRequesting || a.state == AutoplayWaiting {
		a.state = AutoplayActive
		a.maybeFinish()
	}
}
