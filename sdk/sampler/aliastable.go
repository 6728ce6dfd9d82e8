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

// Package sampler 整數版 Vose Alias Method，O(1) 加權抽樣。
//
// 全程整數運算，權重總和很大或差異懸殊時也不會有浮點誤差。
package sampler

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/core"
)

// AliasTable 每個槽位只放「自己」與「別名」兩個選項；抽樣固定兩次 IntN。
//
//   - Prob: 乘上 Size 後的權重
//   - Aliases: 機率不足時指向補足的索引
//   - Total: 權重總和
type AliasTable struct {
	Prob    []int
	Aliases []int
	Size    int
	Total   int
}

// BuildAliasTable 權重不需正規化，可含 0；負值、全 0 或乘積溢位回傳錯誤。空輸入回傳空表。
func BuildAliasTable(weights []int) (*AliasTable, error) {
	n := len(weights)
	if n == 0 {
		return &AliasTable{Prob: []int{}, Aliases: []int{}}, nil
	}

	total := uint64(0)
	for i, w := range weights {
		if w < 0 {
			return nil, errs.NewFatal(fmt.Sprintf("alias table: negative weight %d at %d", w, i))
		}
		if total > uint64(math.MaxInt)-uint64(w) {
			return nil, errs.NewFatal("alias table: total weight overflow")
		}
		total += uint64(w)
	}
	if total == 0 {
		return nil, errs.NewFatal("alias table: all weights are zero")
	}
	if !isSafeMultiply(int(total), n) {
		return nil, errs.NewFatal("alias table: weights too large")
	}

	prob := make([]int, n)
	aliases := make([]int, n)
	small := make([]int, 0, n)
	large := make([]int, 0, n)

	for i, w := range weights {
		prob[i] = w * n
		if prob[i] < int(total) {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		aliases[s] = l
		// sum(prob) 維持 total * n
		prob[l] = prob[l] + prob[s] - int(total)
		if prob[l] < int(total) {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}

	return &AliasTable{Prob: prob, Aliases: aliases, Size: n, Total: int(total)}, nil
}

// Pick 抽一個索引，空表回傳 -1
func (at *AliasTable) Pick(c *core.Core) int {
	if at.Size == 0 {
		return -1
	}
	idx := c.IntN(at.Size)
	if c.IntN(at.Total) < at.Prob[idx] {
		return idx
	}
	return at.Aliases[idx]
}

func errLenMismatch(items, weights int) error {
	return errs.NewFatal(fmt.Sprintf("weighted: %d items but %d weights", items, weights))
}

func isSafeMultiply(a, b int) bool {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	return hi == 0 && lo <= math.MaxInt64
}
