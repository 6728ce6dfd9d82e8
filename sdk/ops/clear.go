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

// Clear 把標記位置改為空格
//
//   - cells: 盤面數據 (將被原地修改)
//   - hits: 消除位置 (一維索引)
//   - empty: 空格值
func Clear(cells []int16, hits []int, empty int16) {
	for _, v := range hits {
		if v >= 0 && v < len(cells) {
			cells[v] = empty
		}
	}
}
