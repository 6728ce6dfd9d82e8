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

// Package core 提供可重現的亂數核心，合成回應與測試資料都由同一個 seed 派生。
package core

// PRNG 可快照/還原的亂數來源
type PRNG interface {
	Uint64() uint64
	Float64() float64
	// UintN 回傳 [0,max)，max == 0 回傳 0
	UintN(uint) uint
	// IntN 回傳 [0,max)，max <= 0 回傳 -1
	IntN(int) int

	Snapshot() ([]byte, error)
	Restore([]byte) error
}

// NewPRNG 相同 seed 必定得到相同序列
func NewPRNG(seed int64) PRNG {
	return newPCG64WithSeed(seed)
}

// Core 封裝 PRNG 並提供常用取樣
type Core struct {
	PRNG
}

func New(rng PRNG) *Core {
	return &Core{rng}
}

// NewSeeded 以預設 PCG64 建立 Core
func NewSeeded(seed int64) *Core {
	return New(NewPRNG(seed))
}

// Derive 以 base seed 與序號派生子 seed，平行產生時每個 worker 一個
func Derive(base int64, seq uint64) int64 {
	return int64(splitmix64(uint64(base) ^ splitmix64(seq+1)))
}

// Pick 從列表中隨機選一個，空列表回傳 -1
func (c *Core) Pick(src []int) int {
	if len(src) == 0 {
		return -1
	}
	return src[c.IntN(len(src))]
}

// ShuffleInts Fisher-Yates 就地重排
func (c *Core) ShuffleInts(src []int) {
	for i := len(src) - 1; i > 0; i-- {
		j := c.IntN(i + 1)
		src[i], src[j] = src[j], src[i]
	}
}

// Chance 以機率 p 回傳 true
func (c *Core) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	return c.Float64() < p
}
