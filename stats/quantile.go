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

package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// PointStat 點估計 + 信賴區間
type PointStat struct {
	Hat float64 `json:"Hat" yaml:"hat"`
	CI  CI      `json:"CI"  yaml:"ci"`
}

// Clopper–Pearson exact CI（n 次中 k 次成功）
func proportionCICP(k int, n int, confidence float64) PointStat {
	if n == 0 {
		return PointStat{CI: CI{0, 1}}
	}
	alpha := 1 - confidence
	ps := PointStat{Hat: float64(k) / float64(n)}

	if k == 0 {
		ps.CI.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ps.CI.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ps.CI.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ps.CI.Hi = b.Quantile(1 - alpha/2)
	}
	return ps
}

// quantileStat 第 q 分位的點估計與區間：order statistic 的秩視為二項，以 Beta 反推 p 範圍再轉回樣本索引。
// sorted 必須已排序。
func quantileStat(sorted []float64, q, confidence float64) PointStat {
	n := len(sorted)
	if n == 0 {
		return PointStat{}
	}
	ps := PointStat{Hat: quantilePoint(sorted, q)}
	if n == 1 {
		ps.CI = CI{sorted[0], sorted[0]}
		return ps
	}

	alpha := 1 - confidence
	k := int(q * float64(n))
	k = min(max(k, 1), n-1)

	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	li := int(bLo.Quantile(alpha/2) * float64(n))
	ui := int(bHi.Quantile(1-alpha/2)*float64(n)) - 1

	li = min(max(li, 0), n-1)
	ui = min(max(ui, 0), n-1)
	ps.CI = CI{sorted[li], sorted[ui]}
	return ps
}

// 最近秩法；sorted 必須已排序
func quantilePoint(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := min(max(int(q*float64(n)), 0), n-1)
	return sorted[idx]
}

func sortedCopy(data []float64) []float64 {
	cp := make([]float64, len(data))
	copy(cp, data)
	sort.Float64s(cp)
	return cp
}
