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

// Gravity 逐列壓縮：非空格保持原本的上下順序，往下貼齊；上方補空格。
//
//   - cells: column-major 盤面 (idx = c*rows + r，r=0 為底，將被原地修改)
//   - cols, rows: 盤面維度
//   - freedBuf: (選用) 回傳每列空出的格數，若為 nil 則不紀錄
func Gravity(cells []int16, cols int, rows int, empty int16, freedBuf []int) {
	for c := 0; c < cols; c++ {
		base := c * rows
		wp := base // 寫入位置，從底開始

		// 自底向上掃描
		for rp := base; rp < base+rows; rp++ {
			if cells[rp] == empty {
				continue
			}
			if rp != wp {
				cells[wp] = cells[rp]
			}
			wp++
		}

		if freedBuf != nil && c < len(freedBuf) {
			freedBuf[c] = base + rows - wp
		}

		for w := wp; w < base+rows; w++ {
			cells[w] = empty
		}
	}
}
