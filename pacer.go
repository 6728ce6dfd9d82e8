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

package tumblelab

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/zintix-labs/tumblelab/sdk/buf"
)

// Pacer 每一局結算後的節奏控制（動畫、等待）。狀態機本身不等待。
type Pacer interface {
	Pace(ctx context.Context, o *buf.Outcome) error
}

// NopPacer 不等待，重播與測試使用
type NopPacer struct{}

func (NopPacer) Pace(context.Context, *buf.Outcome) error { return nil }

// Speed 加速開關，可在循環進行中由其他 goroutine 切換
type Speed struct {
	turbo atomic.Bool
}

func (s *Speed) SetTurbo(on bool) { s.turbo.Store(on) }

func (s *Speed) Turbo() bool { return s != nil && s.turbo.Load() }

// DelayPacer 依步驟數等待：Settle + PerStep*len(Steps)，加速時除以 TurboDiv
type DelayPacer struct {
	Speed    *Speed
	PerStep  time.Duration
	Settle   time.Duration
	TurboDiv int
}

func (p *DelayPacer) Delay(o *buf.Outcome) time.Duration {
	d := p.Settle
	if o != nil {
		d += p.PerStep * time.Duration(len(o.Steps))
	}
	if p.Speed.Turbo() {
		div := p.TurboDiv
		if div <= 0 {
			div = 4
		}
		d /= time.Duration(div)
	}
	return d
}

func (p *DelayPacer) Pace(ctx context.Context, o *buf.Outcome) error {
	d := p.Delay(o)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
