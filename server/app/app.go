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

package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 5 * time.Second

// App 啟動所有 Component，收到 SIGINT/SIGTERM、ctx 結束或任一元件返回時統一關閉。
type App struct {
	comps   []Component
	timeout time.Duration
	log     *slog.Logger
}

func New() *App { return &App{timeout: defaultShutdownTimeout} }

// NewWith 建立並註冊 Component
func NewWith(comps ...Component) *App {
	a := New()
	for _, c := range comps {
		a.Register(c)
	}
	return a
}

func (a *App) Register(c Component) {
	if c != nil {
		a.comps = append(a.comps, c)
	}
}

// WithLogger 關閉錯誤寫入 log；nil 則不輸出
func (a *App) WithLogger(log *slog.Logger) *App {
	a.log = log
	return a
}

// WithShutdownTimeout td <= 0 時沿用預設 5 秒
func (a *App) WithShutdownTimeout(td time.Duration) *App {
	if td > 0 {
		a.timeout = td
	}
	return a
}

// Run 等同 RunContext(context.Background())
func (a *App) Run() error {
	return a.RunContext(context.Background())
}

// RunContext 阻塞直到下列任一情況，之後依註冊順序呼叫 Shutdown：
//   - 收到終止信號或 ctx 結束：回傳 nil
//   - 任一 Component.Run 返回：回傳其錯誤（http.ErrServerClosed 視為正常）
func (a *App) RunContext(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}
	a.gracefulShutdown()
	return err
}

func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil && a.log != nil {
			a.log.Error("shutdown failed", slog.Any("err", err))
		}
	}
}
