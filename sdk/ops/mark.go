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

package ops

// MarkSymbol 在盤面上標記 count 個值為 sym 的格子，回傳追加後的 hits 與實際標記數。
//
//   - quota: 每列尚可優先消除的數量（該列本步驟補入數 - 已標記數），會被原地扣減；nil 表示不偏好任何列
//   - marked: 已標記旗標，跨 symbol 共用，避免同一格被標記兩次
//   - hits: 追加標記的一維索引
//
// 選格順序固定：先掃 quota > 0 的列，再掃其餘符合的格子；兩輪都是由左到右、每列由上往下。
// 找不到足夠的格子時就停，不會重掃。
func MarkSymbol(cells []int16, cols int, rows int, sym int16, count int, quota []int, marked []bool, hits []int) ([]int, int) {
	n := 0
	if count <= 0 {
		return hits, 0
	}

	// 第一輪：優先消除有補入的列
	if quota != nil {
		for c := 0; c < cols && n < count; c++ {
			if c >= len(quota) || quota[c] <= 0 {
				continue
			}
			for r := rows - 1; r >= 0 && n < count && quota[c] > 0; r-- {
				idx := c*rows + r
				if marked[idx] || cells[idx] != sym {
					continue
				}
				marked[idx] = true
				hits = append(hits, idx)
				quota[c]--
				n++
			}
		}
	}

	// 第二輪：任何剩下的符合格
	for c := 0; c < cols && n < count; c++ {
		for r := rows - 1; r >= 0 && n < count; r-- {
			idx := c*rows + r
			if marked[idx] || cells[idx] != sym {
				continue
			}
			marked[idx] = true
			hits = append(hits, idx)
			if quota != nil && c < len(quota) && quota[c] > 0 {
				quota[c]--
			}
			n++
		}
	}
	return hits, n
}
