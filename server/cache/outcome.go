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

// Package cache 已解析結果的短期快取，供 GET /v1/outcome/{spinID} 查詢。
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/zintix-labs/tumblelab/dto"
)

const (
	DefaultSize = 4096
	DefaultTTL  = 10 * time.Minute
)

// Outcomes 以 spin_id 為鍵；容量滿時淘汰最久未用，超過 TTL 自動過期。可並行使用。
type Outcomes struct {
	lru *expirable.LRU[string, dto.OutcomeDTO]
}

// NewOutcomes size <= 0 用 DefaultSize；ttl <= 0 用 DefaultTTL
func NewOutcomes(size int, ttl time.Duration) *Outcomes {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Outcomes{lru: expirable.NewLRU[string, dto.OutcomeDTO](size, nil, ttl)}
}

// Put 沒有 spin_id 的結果不快取
func (c *Outcomes) Put(o dto.OutcomeDTO) {
	if c == nil || o.SpinID == "" {
		return
	}
	c.lru.Add(o.SpinID, o)
}

// PutReplay 一般遊戲與每一局免費遊戲各自成一筆
func (c *Outcomes) PutReplay(r dto.ReplayDTO) {
	c.Put(r.Base)
	for _, o := range r.FreeSpins {
		c.Put(o)
	}
}

func (c *Outcomes) Get(spinID string) (dto.OutcomeDTO, bool) {
	if c == nil {
		return dto.OutcomeDTO{}, false
	}
	return c.lru.Get(spinID)
}

func (c *Outcomes) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func (c *Outcomes) Purge() {
	if c != nil {
		c.lru.Purge()
	}
}
