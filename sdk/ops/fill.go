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

// Fill 堆疊補盤：配合 Gravity 使用，從每列最低的空位往上依序放入 ins[c]。
//
//   - cells: 盤面 (原地修改)
//   - ins: 每列補入的符號 (由下往上)，長度可少於 cols
//   - freed: 每列空出的格數 (通常由 Gravity 回傳)
//   - usedBuf: (選用) 回傳每列實際放入的數量
//
// 補入數多於空位時截斷，少於空位時其餘保持空格；差額由呼叫端比對 usedBuf 與 len(ins[c]) 判斷。
func Fill(cells []int16, cols int, rows int, ins [][]int16, freed []int, usedBuf []int) {
	for c := 0; c < cols; c++ {
		used := 0
		if c < len(ins) && c < len(freed) {
			free := freed[c]
			if free > rows {
				free = rows
			}
			start := c*rows + rows - free
			for i, v := range ins[c] {
				if i >= free {
					break
				}
				cells[start+i] = v
				used++
			}
		}
		if usedBuf != nil && c < len(usedBuf) {
			usedBuf[c] = used
		}
	}
}
