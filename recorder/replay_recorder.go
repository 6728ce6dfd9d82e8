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

package recorder

import (
	"github.com/shopspring/decimal"
	tumblelab "github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/buf"
	"github.com/zintix-labs/tumblelab/spec"
	"github.com/zintix-labs/tumblelab/stats"
)

// ReplayRecorder 重播紀錄員
//
// 逐筆紀錄 ReplayResult，Done 輸出統計報表。不可被多個 goroutine 同時使用，
// 平行重播時每個 worker 一個，最後 MergeReplayRecorder。
type ReplayRecorder struct {
	GameName string
	GameId   spec.GID
	Basic    *BasicRecord
	Dist     *DistRecord
	Quality  *stats.QualityReport
	mults    []float64
}

// BasicRecord 基本資料
type BasicRecord struct {
	TotalBet    decimal.Decimal
	TotalWin    decimal.Decimal
	BaseWin     decimal.Decimal
	FreeWin     decimal.Decimal
	Trigger     int
	Retrigger   int
	FreeSpins   int
	NoWinRounds int
	Rounds      int
}

// DistRecord 贏倍區間落點
type DistRecord struct {
	TotalWinCollect []int
	BaseWinCollect  []int
	FreeWinCollect  []int
}

func NewReplayRecorder(name string, id spec.GID) *ReplayRecorder {
	l := stats.Buckets.Len()
	return &ReplayRecorder{
		GameName: name,
		GameId:   id,
		Basic:    &BasicRecord{},
		Dist: &DistRecord{
			TotalWinCollect: make([]int, l),
			BaseWinCollect:  make([]int, l),
			FreeWinCollect:  make([]int, l),
		},
		Quality: &stats.QualityReport{},
	}
}

func MergeReplayRecorder(r []*ReplayRecorder) (*ReplayRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge replay record err : empty input")
	}
	r0 := r[0]
	s := NewReplayRecorder(r0.GameName, r0.GameId)
	for _, v := range r {
		if v.GameName != r0.GameName || v.GameId != r0.GameId {
			return nil, errs.NewFatal("merge replay record err : different game")
		}
		b := v.Basic
		s.Basic.TotalBet = s.Basic.TotalBet.Add(b.TotalBet)
		s.Basic.TotalWin = s.Basic.TotalWin.Add(b.TotalWin)
		s.Basic.BaseWin = s.Basic.BaseWin.Add(b.BaseWin)
		s.Basic.FreeWin = s.Basic.FreeWin.Add(b.FreeWin)
		s.Basic.Trigger += b.Trigger
		s.Basic.Retrigger += b.Retrigger
		s.Basic.FreeSpins += b.FreeSpins
		s.Basic.NoWinRounds += b.NoWinRounds
		s.Basic.Rounds += b.Rounds

		for i := range v.Dist.TotalWinCollect {
			s.Dist.TotalWinCollect[i] += v.Dist.TotalWinCollect[i]
			s.Dist.BaseWinCollect[i] += v.Dist.BaseWinCollect[i]
			s.Dist.FreeWinCollect[i] += v.Dist.FreeWinCollect[i]
		}

		q := v.Quality
		s.Quality.Reconciled += q.Reconciled
		s.Quality.Unreconciled += q.Unreconciled
		s.Quality.Warnings += q.Warnings
		s.Quality.Shortfall += q.Shortfall
		s.Quality.Malformed += q.Malformed
		s.Quality.DeclaredDiffer += q.DeclaredDiffer

		s.mults = append(s.mults, v.mults...)
	}
	return s, nil
}

// Record 一份完整回應的重播結果（一般遊戲 + 免費遊戲）算一回合
func (s *ReplayRecorder) Record(res *tumblelab.ReplayResult) {
	if res == nil || res.Base == nil {
		return
	}
	bet := res.Base.Bet
	bw := res.Base.TotalWin
	tw := res.TotalWin
	fw := tw.Sub(bw)

	b := s.Basic
	b.TotalBet = b.TotalBet.Add(bet)
	b.TotalWin = b.TotalWin.Add(tw)
	b.BaseWin = b.BaseWin.Add(bw)
	b.FreeWin = b.FreeWin.Add(fw)
	if res.Base.EnterBonus {
		b.Trigger++
	}
	if res.Summary != nil {
		b.Retrigger += res.Summary.Retriggers
	}
	b.FreeSpins += len(res.FreeSpins)
	if tw.IsZero() {
		b.NoWinRounds++
	}
	b.Rounds++

	tm, bm, fm := mult(tw, bet), mult(bw, bet), mult(fw, bet)
	s.mults = append(s.mults, tm)
	s.Dist.TotalWinCollect[stats.Buckets.Index(tm)]++
	s.Dist.BaseWinCollect[stats.Buckets.Index(bm)]++
	s.Dist.FreeWinCollect[stats.Buckets.Index(fm)]++

	s.recordQuality(res.Base)
	for _, o := range res.FreeSpins {
		s.recordQuality(o)
	}
}

// RecordMalformed 無法解析的回應只計數，不算回合
func (s *ReplayRecorder) RecordMalformed() {
	s.Quality.Malformed++
}

func (s *ReplayRecorder) Done() *stats.StatReport {
	r := stats.NewStatReport(s.GameName, s.GameId)
	b := s.Basic
	*r.Summary = stats.SummaryReport{
		GameName:    s.GameName,
		GameId:      s.GameId,
		Rounds:      b.Rounds,
		TotalBet:    b.TotalBet,
		TotalWin:    b.TotalWin,
		BaseWin:     b.BaseWin,
		FreeWin:     b.FreeWin,
		Trigger:     b.Trigger,
		Retrigger:   b.Retrigger,
		FreeSpins:   b.FreeSpins,
		NoWinRounds: b.NoWinRounds,
	}
	r.Mult.Mults = append([]float64(nil), s.mults...)
	copy(r.Dist.TotalWinCollect, s.Dist.TotalWinCollect)
	copy(r.Dist.BaseWinCollect, s.Dist.BaseWinCollect)
	copy(r.Dist.FreeWinCollect, s.Dist.FreeWinCollect)
	*r.Quality = *s.Quality
	r.Done()
	return r
}

// ============================================================
// ** 以下內部方法 **
// ============================================================

func (s *ReplayRecorder) recordQuality(o *buf.Outcome) {
	q := s.Quality
	if o.Reconciled() {
		q.Reconciled++
	} else {
		q.Unreconciled++
		q.Warnings += len(o.Warnings)
	}
	for _, st := range o.Steps {
		q.Shortfall += st.Shortfall
	}
	if o.DeclaredWin != nil && !o.DeclaredWin.Equal(o.TotalWin) {
		q.DeclaredDiffer++
	}
}

func mult(win, bet decimal.Decimal) float64 {
	if !bet.IsPositive() {
		return 0
	}
	return win.Div(bet).InexactFloat64()
}
