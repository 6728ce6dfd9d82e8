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

package calc

import (
	"github.com/zintix-labs/tumblelab/sdk/buf"
	"github.com/zintix-labs/tumblelab/sdk/grid"
	"github.com/zintix-labs/tumblelab/spec"
)

// clusterBuf 只保留 BFS 必要的緩衝
type clusterBuf struct {
	rows, cols int
	n          int

	// BFS 佇列
	q []int

	// visited 記錄「一般符號」是否已被任何 cluster 使用過 (本次掃描全局有效)
	visited []bool

	// subMark 記錄「替代符號」在「當前 cluster」是否已被訪問 (只在當前 cluster 有效)
	// 配合 subEpoch 使用，避免每次清零；替代符號因此可以同時加入多個 cluster
	subMark  []int
	subEpoch int
}

// resetSizes 只調整容量，不清內容
func (b *clusterBuf) resetSizes(cols int, rows int) {
	b.rows, b.cols = rows, cols
	b.n = rows * cols
	needN := b.n

	if cap(b.visited) < needN {
		b.visited = make([]bool, needN)
	} else {
		b.visited = b.visited[:needN]
	}

	if cap(b.subMark) < needN {
		b.subMark = make([]int, needN)
		b.subEpoch = 0
	} else {
		b.subMark = b.subMark[:needN]
	}

	if cap(b.q) < needN {
		b.q = make([]int, 0, needN)
	}
}

// detectClusters 直接在欄優先 (column-major) 的盤面上做四方向 BFS。
//
// 鄰居：同列上下為 idx±1，左右兩列為 idx±rows。
// 起點只能是一般符號；替代符號依 SubstituteMask 依附，Scatter 與倍數符號不參與。
func detectClusters(cells []int16, cols, rows int, ss *spec.SymbolSetting, minSize int, b *clusterBuf, out []buf.Cluster) []buf.Cluster {
	b.resetSizes(cols, rows)

	// 重置 Global Visited (每次掃描清一次)
	clear(b.visited)
	// subMark 不用清，依靠 epoch 區分；溢位才清一次
	b.subEpoch++
	if b.subEpoch < 0 {
		b.subEpoch = 1
		clear(b.subMark)
	}

	isBase := func(s int16) bool {
		t, ok := ss.TypeOf(s)
		return ok && t == spec.SymbolTypeStandard
	}
	canSub := func(s, base int16) bool {
		if s < 0 || int(s) >= len(ss.SubstituteMask) {
			return false
		}
		return (ss.SubstituteMask[s]>>uint(base))&1 != 0
	}

	for i := 0; i < b.n; i++ {
		sym := cells[i]
		if b.visited[i] || !isBase(sym) {
			continue
		}

		// --- 開始一個新的 Cluster ---
		b.subEpoch++
		epoch := b.subEpoch

		b.q = b.q[:0]
		b.q = append(b.q, i)
		b.visited[i] = true
		subs := 0

		checkNeighbor := func(next int) {
			ns := cells[next]
			if ns == sym {
				if !b.visited[next] {
					b.visited[next] = true
					b.q = append(b.q, next)
				}
				return
			}
			if canSub(ns, sym) && b.subMark[next] != epoch {
				b.subMark[next] = epoch
				b.q = append(b.q, next)
				subs++
			}
		}

		for head := 0; head < len(b.q); head++ {
			curr := b.q[head]
			c, r := curr/rows, curr%rows
			if r > 0 {
				checkNeighbor(curr - 1)
			}
			if r+1 < rows {
				checkNeighbor(curr + 1)
			}
			if c > 0 {
				checkNeighbor(curr - rows)
			}
			if c+1 < cols {
				checkNeighbor(curr + rows)
			}
		}

		if len(b.q) < minSize {
			continue
		}
		cl := buf.Cluster{
			Symbol:      sym,
			Size:        len(b.q),
			Substitutes: subs,
			Cells:       make([]grid.Cell, len(b.q)),
		}
		for k, idx := range b.q {
			cl.Cells[k] = grid.Cell{Col: idx / rows, Row: idx % rows}
		}
		out = append(out, cl)
	}
	return out
}
