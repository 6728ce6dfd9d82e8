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

package sampler

import "github.com/zintix-labs/tumblelab/sdk/core"

// Weighted 把 AliasTable 的索引對應回實際的值
type Weighted[T any] struct {
	items []T
	table *AliasTable
}

// NewWeighted items 與 weights 長度必須一致
func NewWeighted[T any](items []T, weights []int) (*Weighted[T], error) {
	if len(items) != len(weights) {
		return nil, errLenMismatch(len(items), len(weights))
	}
	at, err := BuildAliasTable(weights)
	if err != nil {
		return nil, err
	}
	return &Weighted[T]{items: items, table: at}, nil
}

// Pick 空集合回傳零值與 false
func (w *Weighted[T]) Pick(c *core.Core) (T, bool) {
	idx := w.table.Pick(c)
	if idx < 0 {
		var zero T
		return zero, false
	}
	return w.items[idx], true
}

func (w *Weighted[T]) Len() int { return len(w.items) }
