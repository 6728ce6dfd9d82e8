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

// Package app 管理長期運行元件（HTTP server、背景 worker）的啟動與關閉。
package app

import "context"

// Component 可啟動、可關閉的長生命週期元件。
//   - Run 阻塞到元件停止為止
//   - Shutdown 要求優雅關閉，需尊重 ctx 的期限
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Func 把一組函式包成 Component（例如關閉 AsyncHandler 的收尾工作）
type Func struct {
	RunFn      func() error
	ShutdownFn func(ctx context.Context) error
}

func (f Func) Run() error {
	if f.RunFn == nil {
		return nil
	}
	return f.RunFn()
}

func (f Func) Shutdown(ctx context.Context) error {
	if f.ShutdownFn == nil {
		return nil
	}
	return f.ShutdownFn(ctx)
}
