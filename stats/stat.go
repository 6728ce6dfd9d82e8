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

// Package stats 重播統計報表：RTP、信賴區間、命中率、觸發率、贏倍分布與對帳品質。
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var lang language.Tag = language.English

const confidence = 0.95

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"lo"`
	Hi float64 `json:"Hi" yaml:"hi"`
}

// StatReport 重播統計報告
type StatReport struct {
	Summary *SummaryReport `json:"Summary" yaml:"summary"`
	Mult    *MultReport    `json:"Mult"    yaml:"mult"`
	Dist    *DistReport    `json:"Dist"    yaml:"dist"`
	Quality *QualityReport `json:"Quality" yaml:"quality"`
	isDone  bool
}

type SummaryReport struct {
	GameName    string          `json:"GameName"    yaml:"game_name"`
	GameId      spec.GID        `json:"GameId"      yaml:"game_id"`
	Rounds      int             `json:"Rounds"      yaml:"rounds"`
	TotalBet    decimal.Decimal `json:"TotalBet"    yaml:"total_bet"`
	TotalWin    decimal.Decimal `json:"TotalWin"    yaml:"total_win"`
	BaseWin     decimal.Decimal `json:"BaseWin"     yaml:"base_win"`
	FreeWin     decimal.Decimal `json:"FreeWin"     yaml:"free_win"`
	RTP         float64         `json:"RTP"         yaml:"rtp"`
	RtpCI       CI              `json:"RtpCI"       yaml:"rtp_ci"`
	Std         float64         `json:"Std"         yaml:"std"`
	Cv          float64         `json:"Cv"          yaml:"cv"`
	Trigger     int             `json:"Trigger"     yaml:"trigger"`
	TriggerRate PointStat       `json:"TriggerRate" yaml:"trigger_rate"`
	Retrigger   int             `json:"Retrigger"   yaml:"retrigger"`
	FreeSpins   int             `json:"FreeSpins"   yaml:"free_spins"`
	NoWinRounds int             `json:"NoWinRounds" yaml:"no_win_rounds"`
	HitRate     float64         `json:"HitRate"     yaml:"hit_rate"`
}

// MultReport 單回合贏倍（總贏分 / 押注）
//
// 紀錄時只收集原始贏倍，Done() 才計算統計量
type MultReport struct {
	Mults []float64 `json:"-" yaml:"-"`
	Mean  float64   `json:"Mean" yaml:"mean"`
	Max   float64   `json:"Max"  yaml:"max"`
	P50   PointStat `json:"P50"  yaml:"p50"`
	P90   PointStat `json:"P90"  yaml:"p90"`
	P99   PointStat `json:"P99"  yaml:"p99"`
}

// DistReport 贏倍區間落點統計
type DistReport struct {
	WinBucket       []string  `json:"WinBucket"       yaml:"win_bucket"`
	TotalWinCollect []int     `json:"TotalWinCollect" yaml:"total_win_collect"`
	BaseWinCollect  []int     `json:"BaseWinCollect"  yaml:"base_win_collect"`
	FreeWinCollect  []int     `json:"FreeWinCollect"  yaml:"free_win_collect"`
	TotalWinDist    []float64 `json:"TotalWinDist"    yaml:"total_win_dist"`
}

// QualityReport 對帳品質
type QualityReport struct {
	Reconciled     int `json:"Reconciled"     yaml:"reconciled"`      // 沒有任何警告的回合（含免費遊戲）
	Unreconciled   int `json:"Unreconciled"   yaml:"unreconciled"`    // 至少一個警告
	Warnings       int `json:"Warnings"       yaml:"warnings"`        // 警告總數
	Shortfall      int `json:"Shortfall"      yaml:"shortfall"`       // 找不到可消除的符號總數
	Malformed      int `json:"Malformed"      yaml:"malformed"`       // 無法解析的回應
	DeclaredDiffer int `json:"DeclaredDiffer" yaml:"declared_differ"` // item 宣告總贏分與解析結果不同
}

// NewStatReport 空報表，Dist 已依 Buckets 配置
func NewStatReport(name string, id spec.GID) *StatReport {
	l := Buckets.Len()
	return &StatReport{
		Summary: &SummaryReport{GameName: name, GameId: id},
		Mult:    &MultReport{},
		Dist: &DistReport{
			WinBucket:       Buckets.WinBucketStr(),
			TotalWinCollect: make([]int, l),
			BaseWinCollect:  make([]int, l),
			FreeWinCollect:  make([]int, l),
		},
		Quality: &QualityReport{},
	}
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 一次性計算統計結果；重複呼叫無效果
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	sum := s.Summary
	sum.RTP = s.Rtp()
	sum.Std = s.Std()
	sum.Cv = s.Cv()
	sum.RtpCI = s.Ci()
	sum.TriggerRate = proportionCICP(sum.Trigger, sum.Rounds, confidence)
	if sum.Rounds > 0 {
		sum.HitRate = 1.0 - float64(sum.NoWinRounds)/float64(sum.Rounds)
	}

	m := s.Mult
	if len(m.Mults) > 0 {
		sorted := sortedCopy(m.Mults)
		m.Mean = stat.Mean(m.Mults, nil)
		m.Max = sorted[len(sorted)-1]
		m.P50 = quantileStat(sorted, 0.50, confidence)
		m.P90 = quantileStat(sorted, 0.90, confidence)
		m.P99 = quantileStat(sorted, 0.99, confidence)
	}

	d := s.Dist
	d.TotalWinDist = make([]float64, len(d.TotalWinCollect))
	if sum.Rounds > 0 {
		rf := float64(sum.Rounds)
		for i, c := range d.TotalWinCollect {
			d.TotalWinDist[i] = float64(c) / rf
		}
	}
	s.isDone = true
}

// Rtp 總贏分 / 總押注
func (s *StatReport) Rtp() float64 {
	if s.Summary.Rounds == 0 || !s.Summary.TotalBet.IsPositive() {
		return 0
	}
	return s.Summary.TotalWin.Div(s.Summary.TotalBet).InexactFloat64()
}

// Std 單回合贏倍的樣本標準差
func (s *StatReport) Std() float64 {
	if len(s.Mult.Mults) < 2 {
		return 0
	}
	_, std := stat.MeanStdDev(s.Mult.Mults, nil)
	if math.IsNaN(std) {
		return 0
	}
	return std
}

// Cv 變異係數
func (s *StatReport) Cv() float64 {
	rtp := s.Rtp()
	if rtp <= 0 {
		return 0
	}
	return s.Std() / rtp
}

// Ci RTP 的常態近似信賴區間
func (s *StatReport) Ci() CI {
	rtp := s.Rtp()
	n := len(s.Mult.Mults)
	if n < 2 {
		return CI{Lo: rtp, Hi: rtp}
	}
	z := distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
	se := s.Std() / math.Sqrt(float64(n))
	return CI{Lo: max(rtp-z*se, 0), Hi: rtp + z*se}
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 印出表格與耗時
func (s *StatReport) StdOut(ut time.Duration) {
	s.Done()
	fmt.Print(formatDuration(ut, s.Summary.Rounds))
	_ = (&TableStatReportRender{}).Write(os.Stdout, s)
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, rounds int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	rps := int(float64(rounds) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\nrps : %d responses/sec\n", sec, rps)
	}
	sc := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\nrps : %d responses/sec\n", m, sc, rps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\nrps : %d responses/sec\n", h, m, sc, rps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	sum := s.Summary
	money := func(d decimal.Decimal) string { return p.Sprintf("%.2f", d.InexactFloat64()) }
	basic := map[string]string{
		"Game Name":     sum.GameName,
		"Game ID":       fmt.Sprintf("%d", sum.GameId),
		"Total Rounds":  p.Sprintf("%d", sum.Rounds),
		"Total RTP":     p.Sprintf("%.2f %%", 100.0*sum.RTP),
		"RTP 95% CI":    p.Sprintf("[%.2f%%,%.2f%%]", 100.0*sum.RtpCI.Lo, 100.0*sum.RtpCI.Hi),
		"Total Bet":     money(sum.TotalBet),
		"Total Win":     money(sum.TotalWin),
		"Base Win":      money(sum.BaseWin),
		"Free Win":      money(sum.FreeWin),
		"Hit Rate":      p.Sprintf("%.2f %%", 100.0*sum.HitRate),
		"Trigger":       p.Sprintf("%d (%.3f%% [%.3f%%,%.3f%%])", sum.Trigger, 100*sum.TriggerRate.Hat, 100*sum.TriggerRate.CI.Lo, 100*sum.TriggerRate.CI.Hi),
		"Retrigger":     p.Sprintf("%d", sum.Retrigger),
		"Free Spins":    p.Sprintf("%d", sum.FreeSpins),
		"STD":           p.Sprintf("%.3f", sum.Std),
		"CV":            p.Sprintf("%.3f", sum.Cv),
		"Max Mult":      p.Sprintf("%.2f", s.Mult.Max),
		"Unreconciled":  p.Sprintf("%d", s.Quality.Unreconciled),
		"Warnings":      p.Sprintf("%d", s.Quality.Warnings),
		"Malformed":     p.Sprintf("%d", s.Quality.Malformed),
		"Declared Diff": p.Sprintf("%d", s.Quality.DeclaredDiffer),
	}
	keys := []string{
		"Game Name", "Game ID", "Total Rounds", "Total RTP", "RTP 95% CI",
		"Total Bet", "Total Win", "Base Win", "Free Win", "Hit Rate",
		"Trigger", "Retrigger", "Free Spins", "STD", "CV", "Max Mult",
		"Unreconciled", "Warnings", "Malformed", "Declared Diff",
	}
	return keys, basic
}

func (s *StatReport) fmtDist() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, len(s.Dist.WinBucket))
	msg := make(map[string]string, len(s.Dist.WinBucket))
	for i, k := range s.Dist.WinBucket {
		keys = append(keys, k)
		msg[k] = p.Sprintf("%d (%.3f%%)", s.Dist.TotalWinCollect[i], 100*s.Dist.TotalWinDist[i])
	}
	return keys, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := runewidth.StringWidth(title)
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
